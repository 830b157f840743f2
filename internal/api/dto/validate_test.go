package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homemanager/auth-service/internal/domain"
)

func TestValidate_Login(t *testing.T) {
	assert.Empty(t, Validate(&LoginRequest{Email: "janis@example.com", Password: "resident123"}))

	errs := Validate(&LoginRequest{Email: "janis", Password: "123"})
	require.Len(t, errs, 2)
	assert.Equal(t, FieldError{Field: "email", Tag: "email"}, errs[0])
	assert.Equal(t, FieldError{Field: "password", Tag: "min", Value: "6"}, errs[1])
}

func TestValidate_RegisterRejectsSuperAdmin(t *testing.T) {
	req := RegisterRequest{
		Apartment: "2B",
		FirstName: "Anna",
		LastName:  "Kalniņa",
		Email:     "anna@example.com",
		Phone:     "+37120000002",
		Password:  "anna123",
		Role:      "superadmin",
		Language:  "de",
	}
	errs := Validate(&req)
	require.Len(t, errs, 2)
	assert.Equal(t, "role", errs[0].Field)
	assert.Equal(t, "language", errs[1].Field)
}

func TestValidate_StatusUpdateRequiresField(t *testing.T) {
	errs := Validate(&StatusUpdateRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "isActive", errs[0].Field)

	inactive := false
	assert.Empty(t, Validate(&StatusUpdateRequest{IsActive: &inactive}))
}

func TestNewUserResponse_NeverNilSlices(t *testing.T) {
	resp := NewUserResponse(&domain.User{ID: "1", Role: domain.RoleResident, PasswordHash: "secret"})
	assert.NotNil(t, resp.ParkingSpaces)
	assert.NotNil(t, resp.Contacts)
}
