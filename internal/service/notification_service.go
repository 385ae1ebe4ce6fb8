package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Realwahba/support-tickets/internal/config"
	"github.com/Realwahba/support-tickets/internal/domain"
	"github.com/Realwahba/support-tickets/internal/events"
	"github.com/Realwahba/support-tickets/internal/mail"
	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

// NotificationService turns ticket events into outbound email. It never
// returns errors to publishers; a failed delivery is logged and dropped so the
// triggering mutation stands.
type NotificationService struct {
	sender mail.Sender
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService constructs the service. A nil sender disables
// delivery without disabling event handling.
func NewNotificationService(sender mail.Sender, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{sender: sender, logger: logger, cfg: cfg}
}

// RegisterHandlers subscribes the service to the dispatcher.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketReplied, n.handleTicketReplied)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for ticket_created event", zap.String("event_id", event.ID))
		return nil
	}

	if n.cfg.Enabled && n.cfg.RecipientEmail != "" {
		if subject, body, err := mail.StaffNotification(payload); err == nil {
			n.send(ctx, n.cfg.RecipientEmail, subject, body, payload.TicketNumber)
		}
	}

	if payload.AccountEmail != "" {
		if subject, body, err := mail.CustomerConfirmation(payload); err == nil {
			n.send(ctx, payload.AccountEmail, subject, body, payload.TicketNumber)
		}
	}
	return nil
}

func (n *NotificationService) handleTicketReplied(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRepliedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for ticket_replied event", zap.String("event_id", event.ID))
		return nil
	}

	// Customer replies notify nobody by mail; staff watch the console.
	if payload.SenderRole != domain.SenderRoleStaff {
		n.logger.Info("customer reply recorded",
			zap.String("ticket_number", payload.TicketNumber),
			zap.String("new_status", string(payload.NewStatus)))
		return nil
	}

	if payload.CorrespondenceEmail == "" {
		n.logger.Warn("staff reply has no correspondence address",
			zap.String("ticket_number", payload.TicketNumber))
		return nil
	}

	if subject, body, err := mail.ReplyNotification(payload); err == nil {
		n.send(ctx, payload.CorrespondenceEmail, subject, body, payload.TicketNumber)
	}
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	if payload, ok := event.Payload.(events.TicketStatusChangedPayload); ok {
		n.logger.Info("ticket status changed",
			zap.String("ticket_number", payload.TicketNumber),
			zap.String("old_status", string(payload.OldStatus)),
			zap.String("new_status", string(payload.NewStatus)))
	}
	return nil
}

func (n *NotificationService) send(ctx context.Context, to, subject, body, ticketNumber string) {
	if n.sender == nil {
		n.logger.Debug("mailer not configured, skipping email",
			zap.String("to", to), zap.String("subject", subject))
		return
	}
	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		n.logger.Error("email delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.String("ticket_number", ticketNumber),
			zap.Error(apperrors.NewMailFailed(err)))
	}
}
