package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Realwahba/support-tickets/internal/domain"
	"github.com/Realwahba/support-tickets/internal/events"
	"github.com/Realwahba/support-tickets/internal/repository"
	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

// TicketService coordinates ticket workflows. It is the only place business
// rules live; handlers adapt transport, repositories persist.
type TicketService struct {
	tickets    repository.TicketRepository
	replies    repository.ReplyRepository
	allocator  NumberAllocator
	dispatcher events.Dispatcher
}

// NumberAllocator issues the next human-facing ticket number.
type NumberAllocator interface {
	Allocate(ctx context.Context) (string, error)
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	ReplyRepo  repository.ReplyRepository
	Allocator  NumberAllocator
	Dispatcher events.Dispatcher
}

// SubmitTicketInput describes the submission form payload plus the request
// diagnostics captured at the transport boundary.
type SubmitTicketInput struct {
	Name           string
	Email          string
	OrderReference string
	Subject        string
	Category       string
	Priority       domain.TicketPriority
	Message        string
	ClientIP       string
	UserAgent      string
}

// EditTicketInput carries the staff edit form.
type EditTicketInput struct {
	Name           string
	Email          string
	OrderReference string
	Subject        string
	Category       string
	Priority       domain.TicketPriority
	Status         domain.TicketStatus
	Message        string
}

// TicketListFilter narrows listings. AccountEmail applies the customer
// visibility rule; nil lists everything (staff console).
type TicketListFilter struct {
	AccountEmail *string
	Statuses     []domain.TicketStatus
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		replies:    deps.ReplyRepo,
		allocator:  deps.Allocator,
		dispatcher: deps.Dispatcher,
	}
}

// SubmitTicket validates the form, allocates a ticket number and persists the
// ticket bound to the authenticated account. The typed email is kept as
// display metadata only; correspondence keys off the account email.
func (s *TicketService) SubmitTicket(ctx context.Context, input SubmitTicketInput, account domain.Account) (*domain.Ticket, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)

	missing := []string{}
	if input.Name == "" {
		missing = append(missing, "name")
	}
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Subject == "" {
		missing = append(missing, "subject")
	}
	if input.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("please fill in all required fields", map[string]any{"missing": missing})
	}

	if input.Priority == "" {
		input.Priority = domain.TicketPriorityNormal
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	number, err := s.allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	accountEmail := account.Email
	accountID := account.ID
	ticket := &domain.Ticket{
		TicketNumber:   number,
		SubmittedName:  input.Name,
		SubmittedEmail: input.Email,
		AccountEmail:   &accountEmail,
		AccountID:      &accountID,
		OrderReference: strings.TrimSpace(input.OrderReference),
		Subject:        input.Subject,
		Category:       strings.TrimSpace(input.Category),
		Priority:       input.Priority,
		Message:        input.Message,
		Status:         domain.TicketStatusNew,
		ClientIP:       input.ClientIP,
		UserAgent:      input.UserAgent,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			TicketNumber:   ticket.TicketNumber,
			SubmittedName:  ticket.SubmittedName,
			SubmittedEmail: ticket.SubmittedEmail,
			AccountEmail:   accountEmail,
			OrderReference: ticket.OrderReference,
			Subject:        ticket.Subject,
			Category:       ticket.Category,
			Priority:       ticket.Priority,
			Message:        ticket.Message,
		},
	})
	return ticket, nil
}

// PostStaffReply appends a staff reply and applies the reply-driven status
// transition (a fresh ticket moves to in-progress, nothing else changes).
func (s *TicketService) PostStaffReply(ctx context.Context, ticketID, body, staffDisplayName string) (*domain.Reply, error) {
	return s.postReply(ctx, ticketID, body, domain.SenderRoleStaff, staffDisplayName, nil)
}

// PostCustomerReply appends a customer reply after checking the visibility
// rule; a reply to a resolved ticket reopens it.
func (s *TicketService) PostCustomerReply(ctx context.Context, ticketID, body string, account domain.Account) (*domain.Reply, error) {
	return s.postReply(ctx, ticketID, body, domain.SenderRoleCustomer, account.DisplayName, &account)
}

func (s *TicketService) postReply(ctx context.Context, ticketID, body string, role domain.SenderRole, displayName string, account *domain.Account) (*domain.Reply, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("reply body required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if account != nil && !ticket.VisibleTo(account.Email) {
		return nil, apperrors.NewForbidden("you don't have permission to view this ticket")
	}

	next := domain.NextStatusOnReply(ticket.Status, role)
	reply := &domain.Reply{
		TicketID:          ticket.ID,
		SenderRole:        role,
		SenderDisplayName: displayName,
		Body:              body,
	}
	if err := s.replies.CreateWithStatus(ctx, reply, next); err != nil {
		return nil, mapStoreError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReplied,
		TicketID: ticket.ID,
		Payload: events.TicketRepliedPayload{
			TicketNumber:        ticket.TicketNumber,
			SubmittedName:       ticket.SubmittedName,
			Subject:             ticket.Subject,
			SenderRole:          role,
			SenderDisplayName:   displayName,
			Body:                body,
			CorrespondenceEmail: ticket.CorrespondenceEmail(),
			NewStatus:           next,
		},
	})
	return reply, nil
}

// EditTicket applies the staff edit form to a ticket.
func (s *TicketService) EditTicket(ctx context.Context, ticketID string, input EditTicketInput) (*domain.Ticket, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)
	if input.Name == "" || input.Email == "" || input.Subject == "" || input.Message == "" {
		return nil, apperrors.NewValidationError("name, email, subject and message are required", nil)
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if !domain.ValidStatus(input.Status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": input.Status})
	}

	ticket, err := s.tickets.Update(ctx, ticketID, repository.TicketPatch{
		SubmittedName:  input.Name,
		SubmittedEmail: input.Email,
		OrderReference: strings.TrimSpace(input.OrderReference),
		Subject:        input.Subject,
		Category:       strings.TrimSpace(input.Category),
		Priority:       input.Priority,
		Status:         input.Status,
		Message:        input.Message,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return ticket, nil
}

// SetStatus is the explicit staff override; any of the three states is
// reachable from any other.
func (s *TicketService) SetStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status

	updated, err := s.tickets.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: updated.ID,
		Payload: events.TicketStatusChangedPayload{
			TicketNumber: updated.TicketNumber,
			OldStatus:    oldStatus,
			NewStatus:    status,
		},
	})
	return updated, nil
}

// DeleteTicket removes a ticket and all of its replies.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID string) error {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return mapStoreError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Payload:  events.TicketDeletedPayload{TicketNumber: ticket.TicketNumber},
	})
	return nil
}

// GetTicket fetches a ticket for the staff console.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// GetTicketForAccount fetches a ticket on behalf of a customer, enforcing the
// visibility rule. The forbidden response carries no ticket data.
func (s *TicketService) GetTicketForAccount(ctx context.Context, ticketID string, account domain.Account) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.VisibleTo(account.Email) {
		return nil, apperrors.NewForbidden("you don't have permission to view this ticket")
	}
	return ticket, nil
}

// ListTickets returns tickets newest first, optionally scoped to an account.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		AccountEmail: filter.AccountEmail,
		Statuses:     filter.Statuses,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return tickets, nil
}

// ListReplies returns a ticket's thread ascending by creation time.
func (s *TicketService) ListReplies(ctx context.Context, ticketID string) ([]domain.Reply, error) {
	replies, err := s.replies.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return replies, nil
}

// TicketStats summarizes a listing's status distribution.
type TicketStats struct {
	Total      int
	New        int
	InProgress int
	Resolved   int
}

// StatusBreakdown computes the stat-box counts, scoped to an account when
// given.
func (s *TicketService) StatusBreakdown(ctx context.Context, accountEmail *string) (TicketStats, error) {
	counts, err := s.tickets.StatusCounts(ctx, accountEmail)
	if err != nil {
		return TicketStats{}, mapStoreError(err)
	}
	stats := TicketStats{
		New:        counts[domain.TicketStatusNew],
		InProgress: counts[domain.TicketStatusInProgress],
		Resolved:   counts[domain.TicketStatusResolved],
	}
	stats.Total = stats.New + stats.InProgress + stats.Resolved
	return stats, nil
}

// ReplyCounts returns per-ticket thread sizes for the admin list.
func (s *TicketService) ReplyCounts(ctx context.Context, ticketIDs []string) (map[string]int, error) {
	counts, err := s.tickets.ReplyCounts(ctx, ticketIDs)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return counts, nil
}

var exportHeader = []string{
	"Ticket #", "Date", "Name", "Email", "Account Email", "Order #",
	"Subject", "Category", "Priority", "Status", "Message",
}

// ExportCSV streams every ticket as CSV rows, newest first.
func (s *TicketService) ExportCSV(ctx context.Context, w io.Writer) error {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{Limit: -1})
	if err != nil {
		return mapStoreError(err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i := range tickets {
		t := &tickets[i]
		accountEmail := ""
		if t.AccountEmail != nil {
			accountEmail = *t.AccountEmail
		}
		row := []string{
			t.TicketNumber,
			t.CreatedAt.Format("2006-01-02 15:04:05"),
			t.SubmittedName,
			t.SubmittedEmail,
			accountEmail,
			t.OrderReference,
			t.Subject,
			t.Category,
			string(t.Priority),
			string(t.Status),
			t.Message,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return ticket, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.NewStorageUnavailable(err)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
