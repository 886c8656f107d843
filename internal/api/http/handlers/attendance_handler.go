package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/asistencia-app/attendance-service/internal/api/dto"
	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/service"
)

// AttendanceHandler exposes the ledger to administrators.
type AttendanceHandler struct {
	ledger  *service.LedgerService
	reports *service.ReportService
	clock   Clock
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(ledger *service.LedgerService, reports *service.ReportService, clock Clock) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, reports: reports, clock: clock}
}

// ByDay handles GET /admin/asistencias/por-fecha?fecha=&busqueda=.
func (h *AttendanceHandler) ByDay(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	day, err := h.ledger.ResolveDay(c.Query("fecha"), h.clock.now())
	if err != nil {
		return err
	}

	entries, err := h.reports.DayEntries(c.UserContext(), s, day, c.Query("busqueda"))
	if err != nil {
		return err
	}
	out := make([]dto.AttendanceResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.NewAttendanceResponse(entry.Record, entry.User))
	}
	return c.JSON(out)
}

// Summary handles GET /admin/asistencias/resumen?fecha=.
func (h *AttendanceHandler) Summary(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	day, err := h.ledger.ResolveDay(c.Query("fecha"), h.clock.now())
	if err != nil {
		return err
	}

	result, err := h.reports.DaySummary(c.UserContext(), s, day)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSummaryResponse(result))
}

// Delete handles DELETE /admin/eliminar-asistencia/:id.
func (h *AttendanceHandler) Delete(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	if err := h.ledger.Delete(c.UserContext(), s, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export handles GET /admin/exportar-excel?fecha=. Without fecha the whole
// ledger is exported.
func (h *AttendanceHandler) Export(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}

	var day *domain.Day
	name := "asistencias.csv"
	if value := c.Query("fecha"); value != "" {
		parsed, err := h.ledger.ResolveDay(value, h.clock.now())
		if err != nil {
			return err
		}
		day = &parsed
		name = fmt.Sprintf("asistencias-%s.csv", parsed)
	}

	var buf bytes.Buffer
	if err := h.reports.Export(c.UserContext(), s, day, &buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Attachment(name)
	return c.Send(buf.Bytes())
}
