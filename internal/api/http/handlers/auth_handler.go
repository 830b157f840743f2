package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/homemanager/auth-service/internal/api/dto"
	"github.com/homemanager/auth-service/internal/domain"
	"github.com/homemanager/auth-service/internal/service"
	apperrors "github.com/homemanager/auth-service/pkg/util/errorutil"
)

// AuthHandler exposes login and self-service account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("Invalid request payload", "Nederīgs pieprasījuma saturs")
	}
	if errs := dto.Validate(&req); len(errs) > 0 {
		if strings.TrimSpace(req.Email) != "" {
			if err := h.auth.RecordAttempt(c.UserContext(), req.Email); err != nil {
				return mapServiceError(err)
			}
		}
		return apperrors.NewValidationError(map[string]any{"errors": errs})
	}

	user, session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(dto.AuthResponse{
		Message:   "Login successful",
		MessageLV: "Pieteikšanās veiksmīga",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserResponse(user),
	})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, session, err := h.auth.Register(c.UserContext(), principal.User, service.RegisterInput{
		Apartment: req.Apartment,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Role:      domain.Role(req.Role),
		Language:  domain.Language(req.Language),
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		Message:   "User registered successfully",
		MessageLV: "Lietotājs veiksmīgi reģistrēts",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserResponse(user),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.auth.Me(c.UserContext(), principal.UserID())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"message":    "User data retrieved",
		"message_lv": "Lietotāja dati iegūti",
		"user":       dto.NewUserDetailResponse(user),
	})
}

// UpdateMe handles PUT /api/auth/me.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ProfileUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	upd := service.ProfileUpdate{FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone}
	if req.Language != nil {
		lang := domain.Language(*req.Language)
		upd.Language = &lang
	}

	user, err := h.auth.UpdateProfile(c.UserContext(), principal.UserID(), upd)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"message":    "Profile updated successfully",
		"message_lv": "Profils veiksmīgi atjaunināts",
		"user":       dto.NewUserDetailResponse(user),
	})
}

// ChangePassword handles POST /api/auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.PasswordChangeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), principal.UserID(), req.CurrentPassword, req.NewPassword); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"message":    "Password changed successfully",
		"message_lv": "Parole veiksmīgi nomainīta",
	})
}

// Logout handles POST /api/auth/logout. Tokens are discarded client-side.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), principal.UserID()); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{
		"message":    "Logout successful",
		"message_lv": "Izrakstīšanās veiksmīga",
	})
}
