package domain

import "time"

// SenderRole indicates which side of the conversation wrote a reply.
type SenderRole string

const (
	SenderRoleStaff    SenderRole = "staff"
	SenderRoleCustomer SenderRole = "customer"
)

// Reply is one message in a ticket's conversation thread. Replies are
// immutable once written; they are only ever removed together with their
// ticket.
type Reply struct {
	ID                string
	TicketID          string
	SenderRole        SenderRole
	SenderDisplayName string
	Body              string
	CreatedAt         time.Time
}

// NextStatusOnReply returns the ticket status after a reply by the given
// role. A staff reply picks up a fresh ticket; a customer reply reopens a
// resolved one. Every other combination leaves the status alone — in
// particular a staff reply never reopens a resolved ticket.
func NextStatusOnReply(current TicketStatus, role SenderRole) TicketStatus {
	switch role {
	case SenderRoleStaff:
		switch current {
		case TicketStatusNew:
			return TicketStatusInProgress
		case TicketStatusInProgress, TicketStatusResolved:
			return current
		}
	case SenderRoleCustomer:
		switch current {
		case TicketStatusResolved:
			return TicketStatusNew
		case TicketStatusNew, TicketStatusInProgress:
			return current
		}
	}
	return current
}
