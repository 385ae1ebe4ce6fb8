package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Realwahba/support-tickets/internal/api/dto"
	"github.com/Realwahba/support-tickets/internal/auth"
	"github.com/Realwahba/support-tickets/internal/domain"
	"github.com/Realwahba/support-tickets/internal/service"
	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

// AdminTicketsHandler manages the staff console endpoints.
type AdminTicketsHandler struct {
	service *service.TicketService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(ticketService *service.TicketService) *AdminTicketsHandler {
	return &AdminTicketsHandler{service: ticketService}
}

// ListTickets GET /admin/tickets.
func (h *AdminTicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := service.TicketListFilter{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := domain.TicketStatus(strings.TrimSpace(s))
			if !domain.ValidStatus(status) {
				return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	counts, err := replyCounts(c, h.service, tickets)
	if err != nil {
		return err
	}
	stats, err := h.service.StatusBreakdown(c.UserContext(), nil)
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i], counts[tickets[i].ID]))
	}
	return c.JSON(dto.TicketListResponse{Tickets: items, Stats: ticketStats(stats)})
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminTicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	replies, err := h.service.ListReplies(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicketDetail(ticket, replies)})
}

// AddReply POST /admin/tickets/:id/replies.
func (h *AdminTicketsHandler) AddReply(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	displayName := staff.DisplayName
	if displayName == "" {
		displayName = "Support Team"
	}
	reply, err := h.service.PostStaffReply(c.UserContext(), c.Params("id"), req.Body, displayName)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromReply(reply)})
}

// EditTicket PATCH /admin/tickets/:id.
func (h *AdminTicketsHandler) EditTicket(c *fiber.Ctx) error {
	var req dto.EditTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.EditTicket(c.UserContext(), c.Params("id"), service.EditTicketInput{
		Name:           req.Name,
		Email:          req.Email,
		OrderReference: req.OrderReference,
		Subject:        req.Subject,
		Category:       req.Category,
		Priority:       req.Priority,
		Status:         req.Status,
		Message:        req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, 0)})
}

// SetStatus PUT /admin/tickets/:id/status.
func (h *AdminTicketsHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.SetStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, 0)})
}

// DeleteTicket DELETE /admin/tickets/:id.
func (h *AdminTicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ExportCSV GET /admin/tickets/export.
func (h *AdminTicketsHandler) ExportCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.UserContext(), &buf); err != nil {
		return err
	}

	filename := fmt.Sprintf("support-tickets-%s.csv", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
