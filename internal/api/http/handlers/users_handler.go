package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/homemanager/auth-service/internal/api/dto"
	"github.com/homemanager/auth-service/internal/domain"
	"github.com/homemanager/auth-service/internal/repository"
	"github.com/homemanager/auth-service/internal/service"
	apperrors "github.com/homemanager/auth-service/pkg/util/errorutil"
)

// UsersHandler exposes administrative account management.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if !role.Valid() {
			return apperrors.NewBadRequest("Unknown role", "Nezināma loma")
		}
		filter.Role = &role
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewBadRequest("Invalid active filter", "Nederīgs aktivitātes filtrs")
		}
		filter.Active = &active
	}

	users, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return mapServiceError(err)
	}

	out := make([]dto.UserDetailResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserDetailResponse(&users[i]))
	}
	return c.JSON(fiber.Map{
		"message":    "Users retrieved",
		"message_lv": "Lietotāji iegūti",
		"users":      out,
	})
}

// SetStatus handles PATCH /api/users/:id/status.
func (h *UsersHandler) SetStatus(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.StatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.SetActive(c.UserContext(), principal.User, c.Params("id"), *req.IsActive)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"message":    "User status updated",
		"message_lv": "Lietotāja statuss atjaunināts",
		"user":       dto.NewUserDetailResponse(user),
	})
}

// SetRole handles PATCH /api/users/:id/role.
func (h *UsersHandler) SetRole(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.RoleUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.SetRole(c.UserContext(), principal.User, c.Params("id"), domain.Role(req.Role))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"message":    "User role updated",
		"message_lv": "Lietotāja loma atjaunināta",
		"user":       dto.NewUserDetailResponse(user),
	})
}

// ResetLoginAttempts handles DELETE /api/users/:email/login-attempts.
func (h *UsersHandler) ResetLoginAttempts(c *fiber.Ctx) error {
	if err := h.users.ResetLoginAttempts(c.UserContext(), c.Params("email")); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"message":    "Login attempts reset",
		"message_lv": "Pieteikšanās mēģinājumi atiestatīti",
	})
}

// GetApartment handles GET /api/apartments/:apartment.
func (h *UsersHandler) GetApartment(c *fiber.Ctx) error {
	user, err := h.users.GetByApartment(c.UserContext(), c.Params("apartment"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"message":    "Apartment data retrieved",
		"message_lv": "Dzīvokļa dati iegūti",
		"resident":   dto.NewUserResponse(user),
	})
}
