package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asistencia-app/attendance-service/internal/api/dto"
	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/service"
)

// DirectoryHandler exposes user administration.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// List handles GET /admin/usuarios?busqueda=&rol=.
func (h *DirectoryHandler) List(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	query := service.UserQuery{Name: c.Query("busqueda")}
	if rol := c.Query("rol"); rol != "" {
		role := domain.Role(rol)
		query.Role = &role
	}
	users, err := h.directory.List(c.UserContext(), s, query)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponses(users))
}

// Create handles POST /admin/crear-usuario.
func (h *DirectoryHandler) Create(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	var req dto.UserCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload(err)
	}

	user, err := h.directory.Create(c.UserContext(), s, service.CreateUserInput{
		NationalID: req.Cedula,
		FullName:   req.Nombre,
		Pin:        req.Pin,
		Role:       domain.Role(req.Rol),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(*user))
}

// Update handles PUT /admin/actualizar-usuario/:id.
func (h *DirectoryHandler) Update(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload(err)
	}

	input := service.UpdateUserInput{
		NationalID: req.Cedula,
		FullName:   req.Nombre,
		Pin:        req.Pin,
	}
	if input.Pin != nil && *input.Pin == "" {
		input.Pin = nil
	}
	if req.Rol != nil {
		role := domain.Role(*req.Rol)
		input.Role = &role
	}

	user, err := h.directory.Update(c.UserContext(), s, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(*user))
}

// ChangeRole handles PUT /admin/cambiar-rol/:id.
func (h *DirectoryHandler) ChangeRole(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	var req dto.RoleChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload(err)
	}

	user, err := h.directory.ChangeRole(c.UserContext(), s, c.Params("id"), domain.Role(req.Rol))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(*user))
}

// Delete handles DELETE /admin/eliminar-usuario/:id.
func (h *DirectoryHandler) Delete(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	if err := h.directory.Delete(c.UserContext(), s, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
