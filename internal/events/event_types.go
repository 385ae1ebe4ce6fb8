package events

import (
	"time"

	"github.com/Realwahba/support-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketReplied       EventType = "ticket_replied"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload carries everything the notification layer needs to
// compose both the staff alert and the customer confirmation without another
// store read.
type TicketCreatedPayload struct {
	TicketNumber   string                `json:"ticket_number"`
	SubmittedName  string                `json:"submitted_name"`
	SubmittedEmail string                `json:"submitted_email"`
	AccountEmail   string                `json:"account_email"`
	OrderReference string                `json:"order_reference,omitempty"`
	Subject        string                `json:"subject"`
	Category       string                `json:"category,omitempty"`
	Priority       domain.TicketPriority `json:"priority"`
	Message        string                `json:"message"`
}

// TicketRepliedPayload describes a new thread reply.
type TicketRepliedPayload struct {
	TicketNumber        string              `json:"ticket_number"`
	SubmittedName       string              `json:"submitted_name"`
	Subject             string              `json:"subject"`
	SenderRole          domain.SenderRole   `json:"sender_role"`
	SenderDisplayName   string              `json:"sender_display_name"`
	Body                string              `json:"body"`
	CorrespondenceEmail string              `json:"correspondence_email"`
	NewStatus           domain.TicketStatus `json:"new_status"`
}

// TicketStatusChangedPayload records an explicit staff override.
type TicketStatusChangedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
}

// TicketDeletedPayload records a ticket removal.
type TicketDeletedPayload struct {
	TicketNumber string `json:"ticket_number"`
}
