package mail

import (
	"strings"
	"text/template"

	"github.com/Realwahba/support-tickets/internal/events"
)

const signature = "Best regards,\nKeyCart Support Team"

var staffNotificationTmpl = template.Must(template.New("staff_notification").Parse(
	`A new support ticket has been submitted.

Ticket Number: {{.TicketNumber}}
Name: {{.SubmittedName}}
Email (entered): {{.SubmittedEmail}}
Account Email: {{.AccountEmail}}
{{- if .OrderReference}}
Order Number: {{.OrderReference}}
{{- end}}
Subject: {{.Subject}}
Category: {{.Category}}
Priority: {{.Priority}}

Message:
{{.Message}}
`))

var customerConfirmationTmpl = template.Must(template.New("customer_confirmation").Parse(
	`Dear {{.SubmittedName}},

Thank you for contacting us. We have received your support ticket.

Ticket Number: {{.TicketNumber}}
Subject: {{.Subject}}

We will review your request and respond as soon as possible.

` + signature + "\n"))

var replyNotificationTmpl = template.Must(template.New("reply_notification").Parse(
	`Hello {{.SubmittedName}},

You have received a reply to your support ticket.

Ticket: #{{.TicketNumber}}
Subject: {{.Subject}}

Reply from Support Team:
------------------------
{{.Body}}
------------------------

` + signature + "\n"))

// StaffNotification renders the new-ticket alert sent to the configured
// notification address.
func StaffNotification(p events.TicketCreatedPayload) (subject, body string, err error) {
	return render(staffNotificationTmpl, "New Support Ticket: "+p.Subject, p)
}

// CustomerConfirmation renders the receipt sent to the submitting account.
func CustomerConfirmation(p events.TicketCreatedPayload) (subject, body string, err error) {
	return render(customerConfirmationTmpl, "Ticket Received: "+p.TicketNumber, p)
}

// ReplyNotification renders the email sent to the customer when staff reply.
func ReplyNotification(p events.TicketRepliedPayload) (subject, body string, err error) {
	return render(replyNotificationTmpl, "Reply to Ticket #"+p.TicketNumber, p)
}

func render(tmpl *template.Template, subject string, data any) (string, string, error) {
	var body strings.Builder
	if err := tmpl.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subject, body.String(), nil
}
