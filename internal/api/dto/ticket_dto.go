package dto

import (
	"time"

	"github.com/Realwahba/support-tickets/internal/domain"
)

// SubmitTicketRequest payload for the portal submission form.
type SubmitTicketRequest struct {
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	OrderReference string                `json:"order_reference"`
	Subject        string                `json:"subject"`
	Category       string                `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	Message        string                `json:"message"`
}

// ReplyRequest payload for posting a thread reply.
type ReplyRequest struct {
	Body string `json:"body"`
}

// EditTicketRequest payload for the staff edit form.
type EditTicketRequest struct {
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	OrderReference string                `json:"order_reference"`
	Subject        string                `json:"subject"`
	Category       string                `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	Message        string                `json:"message"`
}

// SetStatusRequest payload for the explicit staff status override.
type SetStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketSummary response for list endpoints.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	Subject      string                `json:"subject"`
	Category     string                `json:"category,omitempty"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	ReplyCount   int                   `json:"reply_count"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info plus its thread.
type TicketDetailResponse struct {
	ID             string                `json:"id"`
	TicketNumber   string                `json:"ticket_number"`
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	AccountEmail   *string               `json:"account_email,omitempty"`
	OrderReference string                `json:"order_reference,omitempty"`
	Subject        string                `json:"subject"`
	Category       string                `json:"category,omitempty"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	Message        string                `json:"message"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Replies        []ReplyResponse       `json:"replies"`
}

// ReplyResponse represents a thread entry.
type ReplyResponse struct {
	ID                string            `json:"id"`
	SenderRole        domain.SenderRole `json:"sender_role"`
	SenderDisplayName string            `json:"sender_display_name"`
	Body              string            `json:"body"`
	CreatedAt         time.Time         `json:"created_at"`
}

// TicketStats carries the stat-box counts shown above a listing.
type TicketStats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

// TicketListResponse wraps a listing.
type TicketListResponse struct {
	Tickets []TicketSummary `json:"tickets"`
	Stats   TicketStats     `json:"stats"`
}

// FromTicket maps a domain ticket to its summary form.
func FromTicket(t *domain.Ticket, replyCount int) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		Subject:      t.Subject,
		Category:     t.Category,
		Priority:     t.Priority,
		Status:       t.Status,
		ReplyCount:   replyCount,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// FromTicketDetail maps a domain ticket and its replies to the detail form.
func FromTicketDetail(t *domain.Ticket, replies []domain.Reply) TicketDetailResponse {
	out := TicketDetailResponse{
		ID:             t.ID,
		TicketNumber:   t.TicketNumber,
		Name:           t.SubmittedName,
		Email:          t.SubmittedEmail,
		AccountEmail:   t.AccountEmail,
		OrderReference: t.OrderReference,
		Subject:        t.Subject,
		Category:       t.Category,
		Priority:       t.Priority,
		Status:         t.Status,
		Message:        t.Message,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		Replies:        make([]ReplyResponse, 0, len(replies)),
	}
	for _, reply := range replies {
		out.Replies = append(out.Replies, FromReply(&reply))
	}
	return out
}

// FromReply maps a domain reply.
func FromReply(r *domain.Reply) ReplyResponse {
	return ReplyResponse{
		ID:                r.ID,
		SenderRole:        r.SenderRole,
		SenderDisplayName: r.SenderDisplayName,
		Body:              r.Body,
		CreatedAt:         r.CreatedAt,
	}
}
