package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Realwahba/support-tickets/internal/api/dto"
	"github.com/Realwahba/support-tickets/internal/auth"
	"github.com/Realwahba/support-tickets/internal/domain"
	"github.com/Realwahba/support-tickets/internal/service"
	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

// TicketsHandler manages customer portal endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// SubmitTicket POST /portal/tickets.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("customer account required")
	}
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.SubmitTicket(c.UserContext(), service.SubmitTicketInput{
		Name:           req.Name,
		Email:          req.Email,
		OrderReference: req.OrderReference,
		Subject:        req.Subject,
		Category:       req.Category,
		Priority:       req.Priority,
		Message:        req.Message,
		ClientIP:       c.IP(),
		UserAgent:      c.Get("User-Agent"),
	}, *account)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket, 0)})
}

// ListTickets GET /portal/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("customer account required")
	}

	email := account.Email
	tickets, err := h.service.ListTickets(c.UserContext(), service.TicketListFilter{
		AccountEmail: &email,
		Limit:        c.QueryInt("limit"),
		Offset:       c.QueryInt("offset"),
	})
	if err != nil {
		return err
	}

	counts, err := replyCounts(c, h.service, tickets)
	if err != nil {
		return err
	}
	stats, err := h.service.StatusBreakdown(c.UserContext(), &email)
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i], counts[tickets[i].ID]))
	}
	return c.JSON(dto.TicketListResponse{Tickets: items, Stats: ticketStats(stats)})
}

// GetTicket GET /portal/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("customer account required")
	}

	ticket, err := h.service.GetTicketForAccount(c.UserContext(), c.Params("id"), *account)
	if err != nil {
		return err
	}
	replies, err := h.service.ListReplies(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicketDetail(ticket, replies)})
}

// AddReply POST /portal/tickets/:id/replies.
func (h *TicketsHandler) AddReply(c *fiber.Ctx) error {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("customer account required")
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.service.PostCustomerReply(c.UserContext(), c.Params("id"), req.Body, *account)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromReply(reply)})
}

func replyCounts(c *fiber.Ctx, svc *service.TicketService, tickets []domain.Ticket) (map[string]int, error) {
	ids := make([]string, 0, len(tickets))
	for i := range tickets {
		ids = append(ids, tickets[i].ID)
	}
	return svc.ReplyCounts(c.UserContext(), ids)
}

func ticketStats(stats service.TicketStats) dto.TicketStats {
	return dto.TicketStats{
		Total:      stats.Total,
		New:        stats.New,
		InProgress: stats.InProgress,
		Resolved:   stats.Resolved,
	}
}
