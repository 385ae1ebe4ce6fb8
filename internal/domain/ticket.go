package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// ValidStatus reports whether s is one of the three ticket states.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// TicketPriority enumerates urgency as chosen on the submission form.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for customer support requests.
//
// SubmittedName and SubmittedEmail hold the free-text identity fields exactly
// as typed into the form. AccountEmail and AccountID identify the
// authenticated account that created the ticket; they are nil only for
// tickets created before account capture existed.
type Ticket struct {
	ID             string
	TicketNumber   string
	SubmittedName  string
	SubmittedEmail string
	AccountEmail   *string
	AccountID      *string
	OrderReference string
	Subject        string
	Category       string
	Priority       TicketPriority
	Message        string
	Status         TicketStatus
	ClientIP       string
	UserAgent      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CorrespondenceEmail returns the address outbound mail for this ticket goes
// to: the verified account email when known, otherwise the typed one.
func (t *Ticket) CorrespondenceEmail() string {
	if t.AccountEmail != nil && *t.AccountEmail != "" {
		return *t.AccountEmail
	}
	return t.SubmittedEmail
}

// VisibleTo reports whether the account with the given email may view or
// reply to this ticket. Tickets bound to an account are reachable only
// through that account's email; only unbound legacy tickets (nil
// AccountEmail, matching the store's NULL column) fall back to the typed
// address.
func (t *Ticket) VisibleTo(email string) bool {
	if t.AccountEmail != nil {
		return *t.AccountEmail == email
	}
	return t.SubmittedEmail == email
}
