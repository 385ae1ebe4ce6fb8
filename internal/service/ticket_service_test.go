package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Realwahba/support-tickets/internal/domain"
	"github.com/Realwahba/support-tickets/internal/events"
	"github.com/Realwahba/support-tickets/internal/repository"
	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
	replies *fakeReplyRepo
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ticket.ID = fmt.Sprintf("id-%d", f.seq)
	ticket.CreatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute)
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	f.tickets[ticket.ID] = &clone
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (f *fakeTicketRepo) Update(_ context.Context, id string, patch repository.TicketPatch) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.SubmittedName = patch.SubmittedName
	ticket.SubmittedEmail = patch.SubmittedEmail
	ticket.OrderReference = patch.OrderReference
	ticket.Subject = patch.Subject
	ticket.Category = patch.Category
	ticket.Priority = patch.Priority
	ticket.Status = patch.Status
	ticket.Message = patch.Message
	ticket.UpdatedAt = ticket.UpdatedAt.Add(time.Minute)
	clone := *ticket
	return &clone, nil
}

func (f *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.Status = status
	clone := *ticket
	return &clone, nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.tickets, id)
	if f.replies != nil {
		f.replies.deleteByTicket(id)
	}
	return nil
}

func (f *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.AccountEmail != nil && !ticket.VisibleTo(*filter.AccountEmail) {
			continue
		}
		out = append(out, *ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTicketRepo) ReplyCounts(_ context.Context, ticketIDs []string) (map[string]int, error) {
	counts := map[string]int{}
	if f.replies == nil {
		return counts, nil
	}
	f.replies.mu.Lock()
	defer f.replies.mu.Unlock()
	for _, id := range ticketIDs {
		if n := len(f.replies.byTicket[id]); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (f *fakeTicketRepo) StatusCounts(_ context.Context, accountEmail *string) (map[domain.TicketStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.TicketStatus]int{}
	for _, ticket := range f.tickets {
		if accountEmail != nil && !ticket.VisibleTo(*accountEmail) {
			continue
		}
		counts[ticket.Status]++
	}
	return counts, nil
}

type fakeReplyRepo struct {
	mu       sync.Mutex
	seq      int
	byTicket map[string][]domain.Reply
	tickets  *fakeTicketRepo
	failErr  error
}

func newFakeReplyRepo(tickets *fakeTicketRepo) *fakeReplyRepo {
	repo := &fakeReplyRepo{byTicket: map[string][]domain.Reply{}, tickets: tickets}
	tickets.replies = repo
	return repo
}

func (f *fakeReplyRepo) CreateWithStatus(_ context.Context, reply *domain.Reply, status domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.tickets.mu.Lock()
	ticket, ok := f.tickets.tickets[reply.TicketID]
	if ok {
		ticket.Status = status
	}
	f.tickets.mu.Unlock()
	if !ok {
		return pgx.ErrNoRows
	}
	f.seq++
	reply.ID = fmt.Sprintf("reply-%d", f.seq)
	reply.CreatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute)
	f.byTicket[reply.TicketID] = append(f.byTicket[reply.TicketID], *reply)
	return nil
}

func (f *fakeReplyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Reply{}, f.byTicket[ticketID]...), nil
}

func (f *fakeReplyRepo) deleteByTicket(ticketID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byTicket, ticketID)
}

type fakeAllocator struct {
	seq int
	err error
}

func (f *fakeAllocator) Allocate(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.seq++
	return fmt.Sprintf("KC-2025-%04d", f.seq), nil
}

type recordingDispatcher struct {
	events []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func newTestService(t *testing.T) (*TicketService, *fakeTicketRepo, *fakeReplyRepo, *recordingDispatcher) {
	t.Helper()
	tickets := newFakeTicketRepo()
	replies := newFakeReplyRepo(tickets)
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		ReplyRepo:  replies,
		Allocator:  &fakeAllocator{},
		Dispatcher: dispatcher,
	})
	return svc, tickets, replies, dispatcher
}

var testAccount = domain.Account{ID: "acct-1", Email: "jo@x.com", DisplayName: "Jo Doe"}

func submitTicket(t *testing.T, svc *TicketService, account domain.Account, typedEmail string) *domain.Ticket {
	t.Helper()
	ticket, err := svc.SubmitTicket(context.Background(), SubmitTicketInput{
		Name:    account.DisplayName,
		Email:   typedEmail,
		Subject: "License not received",
		Message: "I paid an hour ago but got nothing.",
	}, account)
	require.NoError(t, err)
	return ticket
}

func TestSubmitTicketRejectsMissingFields(t *testing.T) {
	svc, tickets, _, dispatcher := newTestService(t)

	_, err := svc.SubmitTicket(context.Background(), SubmitTicketInput{
		Name:  "Jo Doe",
		Email: "jo@x.com",
	}, testAccount)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Empty(t, tickets.tickets, "nothing should be persisted")
	assert.Empty(t, dispatcher.events)
}

func TestSubmitTicketBindsAccountAndAllocatesNumber(t *testing.T) {
	svc, _, _, dispatcher := newTestService(t)

	ticket := submitTicket(t, svc, testAccount, "typo@x.com")

	assert.Equal(t, "KC-2025-0001", ticket.TicketNumber)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.TicketPriorityNormal, ticket.Priority)
	require.NotNil(t, ticket.AccountEmail)
	assert.Equal(t, "jo@x.com", *ticket.AccountEmail)
	assert.Equal(t, "typo@x.com", ticket.SubmittedEmail)

	second := submitTicket(t, svc, testAccount, "jo@x.com")
	assert.Equal(t, "KC-2025-0002", second.TicketNumber)

	require.Len(t, dispatcher.events, 2)
	assert.Equal(t, events.EventTicketCreated, dispatcher.events[0].Type)
	payload := dispatcher.events[0].Payload.(events.TicketCreatedPayload)
	assert.Equal(t, "jo@x.com", payload.AccountEmail)
}

func TestSubmitTicketSurfacesAllocatorFailure(t *testing.T) {
	tickets := newFakeTicketRepo()
	svc := NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		ReplyRepo:  newFakeReplyRepo(tickets),
		Allocator:  &fakeAllocator{err: apperrors.NewStorageUnavailable(errors.New("counter down"))},
		Dispatcher: &recordingDispatcher{},
	})

	_, err := svc.SubmitTicket(context.Background(), SubmitTicketInput{
		Name: "Jo", Email: "jo@x.com", Subject: "s", Message: "m",
	}, testAccount)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeStorageUnavailable, domainErr.Code)
	assert.Empty(t, tickets.tickets)
}

func TestStaffReplyMovesNewTicketToInProgress(t *testing.T) {
	svc, _, _, dispatcher := newTestService(t)
	ticket := submitTicket(t, svc, testAccount, "jo@x.com")

	reply, err := svc.PostStaffReply(context.Background(), ticket.ID, "Your key was resent.", "Agent Smith")
	require.NoError(t, err)
	assert.Equal(t, domain.SenderRoleStaff, reply.SenderRole)

	got, err := svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)

	last := dispatcher.events[len(dispatcher.events)-1]
	require.Equal(t, events.EventTicketReplied, last.Type)
	payload := last.Payload.(events.TicketRepliedPayload)
	assert.Equal(t, "jo@x.com", payload.CorrespondenceEmail)
	assert.Equal(t, domain.TicketStatusInProgress, payload.NewStatus)
}

func TestStaffReplyLeavesResolvedTicketResolved(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ticket := submitTicket(t, svc, testAccount, "jo@x.com")
	_, err := svc.SetStatus(context.Background(), ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	_, err = svc.PostStaffReply(context.Background(), ticket.ID, "Closing note.", "Agent Smith")
	require.NoError(t, err)

	got, err := svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)
}

func TestCustomerReplyReopensResolvedTicket(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ticket := submitTicket(t, svc, testAccount, "jo@x.com")
	_, err := svc.SetStatus(context.Background(), ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	_, err = svc.PostCustomerReply(context.Background(), ticket.ID, "Still broken.", testAccount)
	require.NoError(t, err)

	got, err := svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, got.Status)
}

func TestCustomerReplyOnOtherAccountTicketIsForbidden(t *testing.T) {
	svc, _, replies, _ := newTestService(t)
	ticket := submitTicket(t, svc, testAccount, "jo@x.com")

	stranger := domain.Account{ID: "acct-2", Email: "sam@x.com", DisplayName: "Sam"}
	_, err := svc.PostCustomerReply(context.Background(), ticket.ID, "Let me in.", stranger)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeForbidden, domainErr.Code)
	assert.Empty(t, replies.byTicket[ticket.ID], "no reply should be persisted")
}

func TestGetTicketForAccountVisibility(t *testing.T) {
	svc, tickets, _, _ := newTestService(t)
	ticket := submitTicket(t, svc, testAccount, "typo@x.com")

	// Owner sees it even though the typed email differs.
	_, err := svc.GetTicketForAccount(context.Background(), ticket.ID, testAccount)
	require.NoError(t, err)

	// A matching typed email alone grants nothing once an account is bound.
	typoAccount := domain.Account{ID: "acct-9", Email: "typo@x.com"}
	_, err = svc.GetTicketForAccount(context.Background(), ticket.ID, typoAccount)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeForbidden, domainErr.Code)

	// Legacy row with no bound account falls back to the typed email.
	legacy := &domain.Ticket{
		ID:             "legacy-1",
		TicketNumber:   "KC-2019-0007",
		SubmittedEmail: "old@x.com",
		Status:         domain.TicketStatusNew,
	}
	tickets.tickets[legacy.ID] = legacy
	_, err = svc.GetTicketForAccount(context.Background(), legacy.ID, domain.Account{ID: "acct-3", Email: "old@x.com"})
	require.NoError(t, err)
}

func TestGetTicketForAccountMissingTicket(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.GetTicketForAccount(context.Background(), "nope", testAccount)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
}

func TestListTicketsScopedToAccount(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	submitTicket(t, svc, testAccount, "jo@x.com")
	other := domain.Account{ID: "acct-2", Email: "sam@x.com", DisplayName: "Sam"}
	submitTicket(t, svc, other, "sam@x.com")

	email := testAccount.Email
	mine, err := svc.ListTickets(context.Background(), TicketListFilter{AccountEmail: &email})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	all, err := svc.ListTickets(context.Background(), TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStatusBreakdown(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	first := submitTicket(t, svc, testAccount, "jo@x.com")
	submitTicket(t, svc, testAccount, "jo@x.com")
	other := domain.Account{ID: "acct-2", Email: "sam@x.com", DisplayName: "Sam"}
	submitTicket(t, svc, other, "sam@x.com")
	_, err := svc.SetStatus(context.Background(), first.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	all, err := svc.StatusBreakdown(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, TicketStats{Total: 3, New: 2, Resolved: 1}, all)

	email := testAccount.Email
	mine, err := svc.StatusBreakdown(context.Background(), &email)
	require.NoError(t, err)
	assert.Equal(t, TicketStats{Total: 2, New: 1, Resolved: 1}, mine)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ticket := submitTicket(t, svc, testAccount, "jo@x.com")

	_, err := svc.SetStatus(context.Background(), ticket.ID, domain.TicketStatus("archived"))

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
}

func TestDeleteTicketCascadesReplies(t *testing.T) {
	svc, _, replies, dispatcher := newTestService(t)
	ticket := submitTicket(t, svc, testAccount, "jo@x.com")
	_, err := svc.PostStaffReply(context.Background(), ticket.ID, "On it.", "Agent Smith")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTicket(context.Background(), ticket.ID))

	_, err = svc.GetTicket(context.Background(), ticket.ID)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
	assert.Empty(t, replies.byTicket[ticket.ID])

	last := dispatcher.events[len(dispatcher.events)-1]
	assert.Equal(t, events.EventTicketDeleted, last.Type)
}

func TestDeleteMissingTicket(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.DeleteTicket(context.Background(), "nope")

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
}

func TestEditTicketValidatesEnums(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ticket := submitTicket(t, svc, testAccount, "jo@x.com")

	_, err := svc.EditTicket(context.Background(), ticket.ID, EditTicketInput{
		Name: "Jo", Email: "jo@x.com", Subject: "s", Message: "m",
		Priority: domain.TicketPriority("critical"),
		Status:   domain.TicketStatusNew,
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)

	updated, err := svc.EditTicket(context.Background(), ticket.ID, EditTicketInput{
		Name: "Jo Doe", Email: "jo@x.com", Subject: "Updated subject", Message: "m",
		Priority: domain.TicketPriorityHigh,
		Status:   domain.TicketStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated subject", updated.Subject)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)
}

func TestExportCSV(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	submitTicket(t, svc, testAccount, "typo@x.com")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Ticket #,Date,Name,Email,Account Email,Order #,Subject,Category,Priority,Status,Message", lines[0])
	assert.Contains(t, lines[1], "KC-2025-0001")
	assert.Contains(t, lines[1], "typo@x.com")
	assert.Contains(t, lines[1], "jo@x.com")
	assert.Contains(t, lines[1], "new")
}
