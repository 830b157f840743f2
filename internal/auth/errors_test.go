package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/homemanager/auth-service/pkg/util/errorutil"
)

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "missing", err: ErrMissingToken, status: http.StatusUnauthorized, code: "MISSING_TOKEN"},
		{name: "expired", err: ErrExpiredToken, status: http.StatusUnauthorized, code: "EXPIRED_TOKEN"},
		{name: "invalid wrapped", err: fmt.Errorf("%w: bad signature", ErrInvalidToken), status: http.StatusUnauthorized, code: "INVALID_TOKEN"},
		{name: "unknown principal", err: ErrUnknownPrincipal, status: http.StatusUnauthorized, code: "INVALID_TOKEN"},
		{name: "unauthenticated", err: ErrAuthenticationRequired, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "role", err: errInsufficientRole, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "apartment", err: errApartmentDenied, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "modification", err: errModificationDenied, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "rate limited", err: ErrRateLimited, status: http.StatusTooManyRequests, code: "RATE_LIMITED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var de *apperrors.DomainError
			require.ErrorAs(t, ToHTTPError(tt.err), &de)
			assert.Equal(t, tt.status, de.HTTPStatus)
			assert.Equal(t, tt.code, de.Code)
			assert.NotEmpty(t, de.Message)
			assert.NotEmpty(t, de.MessageLV)
		})
	}
}

func TestToHTTPError_PassesThroughUnknown(t *testing.T) {
	other := errors.New("boom")
	assert.Same(t, other, ToHTTPError(other))
	assert.NoError(t, ToHTTPError(nil))
}

func TestUnknownPrincipalIsInvalidToken(t *testing.T) {
	assert.ErrorIs(t, ErrUnknownPrincipal, ErrInvalidToken)
	assert.NotErrorIs(t, ErrUnknownPrincipal, ErrExpiredToken)
}
