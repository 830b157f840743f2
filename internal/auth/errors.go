package auth

import (
	"errors"
	"fmt"

	apperrors "github.com/homemanager/auth-service/pkg/util/errorutil"
)

// Gate errors. ErrUnknownPrincipal wraps ErrInvalidToken so callers that only
// care about token validity can match either.
var (
	ErrMissingToken           = errors.New("missing token")
	ErrUnknownPrincipal       = fmt.Errorf("%w: user not found or inactive", ErrInvalidToken)
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden")
)

// DeniedError is returned by a guard whose predicate did not hold.
type DeniedError struct {
	Message   string
	MessageLV string
}

func (e *DeniedError) Error() string { return "forbidden: " + e.Message }

// Is makes errors.Is(err, ErrForbidden) match any denial.
func (e *DeniedError) Is(target error) bool { return target == ErrForbidden }

var (
	errInsufficientRole   = &DeniedError{Message: "Insufficient permissions", MessageLV: "Nepietiek tiesību"}
	errApartmentDenied    = &DeniedError{Message: "Access denied to this apartment", MessageLV: "Piekļuve šai dzīvoklim liegta"}
	errModificationDenied = &DeniedError{Message: "Modification not allowed", MessageLV: "Modifikācija nav atļauta"}
)

// ToHTTPError maps gate and throttle failures to bilingual domain errors.
// Errors it does not recognize are passed through unchanged.
func ToHTTPError(err error) error {
	var denied *DeniedError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &denied):
		return apperrors.NewForbidden(denied.Message, denied.MessageLV)
	case errors.Is(err, ErrMissingToken):
		return apperrors.NewUnauthorized("MISSING_TOKEN", "Access token required", "Nepieciešams piekļuves tokens")
	case errors.Is(err, ErrExpiredToken):
		return apperrors.NewUnauthorized("EXPIRED_TOKEN", "Token expired", "Tokens beidzies")
	case errors.Is(err, ErrUnknownPrincipal):
		return apperrors.NewUnauthorized("INVALID_TOKEN", "Invalid or expired token", "Nederīgs vai beidzies termiņa tokens")
	case errors.Is(err, ErrInvalidToken):
		return apperrors.NewUnauthorized("INVALID_TOKEN", "Invalid token", "Nederīgs tokens")
	case errors.Is(err, ErrAuthenticationRequired):
		return apperrors.NewUnauthorized("UNAUTHORIZED", "Authentication required", "Nepieciešama autentifikācija")
	case errors.Is(err, ErrRateLimited):
		return apperrors.NewTooManyRequests(
			"Too many login attempts. Please try again later.",
			"Pārāk daudz pieteikšanās mēģinājumu. Lūdzu, mēģiniet vēlāk.")
	}
	return err
}
