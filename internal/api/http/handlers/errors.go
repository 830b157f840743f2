package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/homemanager/auth-service/internal/api/dto"
	"github.com/homemanager/auth-service/internal/auth"
	"github.com/homemanager/auth-service/internal/repository"
	"github.com/homemanager/auth-service/internal/service"
	apperrors "github.com/homemanager/auth-service/pkg/util/errorutil"
)

// bindAndValidate parses the JSON body into dst and runs struct validation.
func bindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewBadRequest("Invalid request payload", "Nederīgs pieprasījuma saturs")
	}
	if errs := dto.Validate(dst); len(errs) > 0 {
		return apperrors.NewValidationError(map[string]any{"errors": errs})
	}
	return nil
}

// mapServiceError converts service and store failures to bilingual errors.
// Anything unrecognized becomes an internal error.
func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("INVALID_CREDENTIALS", "Invalid credentials", "Nederīgi dati")
	case errors.Is(err, service.ErrIncorrectPassword):
		return apperrors.NewBadRequest("Current password is incorrect", "Pašreizējā parole nav pareiza")
	case errors.Is(err, service.ErrRoleNotAssignable), errors.Is(err, service.ErrInvalidRole):
		return apperrors.NewBadRequest("Role cannot be assigned", "Lomu nevar piešķirt")
	case errors.Is(err, service.ErrSelfModification):
		return apperrors.NewBadRequest("You cannot change your own account this way", "Savu kontu šādi mainīt nevar")
	case errors.Is(err, service.ErrOutranked):
		return apperrors.NewForbidden("Insufficient permissions", "Nepietiek tiesību")
	case errors.Is(err, repository.ErrDuplicateApartment):
		return apperrors.NewConflict("Apartment already registered", "Dzīvoklis jau ir reģistrēts")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.NewConflict("Email already registered", "E-pasts jau ir reģistrēts")
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("User not found", "Lietotājs nav atrasts")
	case errors.Is(err, auth.ErrRateLimited):
		return auth.ToHTTPError(err)
	}
	return apperrors.NewInternalError(err)
}

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, auth.ToHTTPError(auth.ErrAuthenticationRequired)
	}
	return principal, nil
}
