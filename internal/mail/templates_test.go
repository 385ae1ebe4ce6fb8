package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Realwahba/support-tickets/internal/domain"
	"github.com/Realwahba/support-tickets/internal/events"
)

func TestStaffNotification(t *testing.T) {
	subject, body, err := StaffNotification(events.TicketCreatedPayload{
		TicketNumber:   "KC-2025-0042",
		SubmittedName:  "Jo Doe",
		SubmittedEmail: "typo@x.com",
		AccountEmail:   "jo@x.com",
		OrderReference: "KC-123456",
		Subject:        "License not received",
		Category:       "delivery",
		Priority:       domain.TicketPriorityHigh,
		Message:        "I paid an hour ago but got nothing.",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Support Ticket: License not received", subject)
	assert.Contains(t, body, "Ticket Number: KC-2025-0042")
	assert.Contains(t, body, "Email (entered): typo@x.com")
	assert.Contains(t, body, "Account Email: jo@x.com")
	assert.Contains(t, body, "Order Number: KC-123456")
	assert.Contains(t, body, "I paid an hour ago")
}

func TestStaffNotificationOmitsEmptyOrderReference(t *testing.T) {
	_, body, err := StaffNotification(events.TicketCreatedPayload{
		TicketNumber: "KC-2025-0001",
		Subject:      "Hi",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "Order Number:")
}

func TestCustomerConfirmation(t *testing.T) {
	subject, body, err := CustomerConfirmation(events.TicketCreatedPayload{
		TicketNumber:  "KC-2025-0042",
		SubmittedName: "Jo Doe",
		Subject:       "License not received",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ticket Received: KC-2025-0042", subject)
	assert.Contains(t, body, "Dear Jo Doe,")
	assert.Contains(t, body, "KeyCart Support Team")
}

func TestReplyNotification(t *testing.T) {
	subject, body, err := ReplyNotification(events.TicketRepliedPayload{
		TicketNumber:  "KC-2025-0042",
		SubmittedName: "Jo Doe",
		Subject:       "License not received",
		Body:          "Your license key was resent.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Reply to Ticket #KC-2025-0042", subject)
	assert.Contains(t, body, "Your license key was resent.")
}
