package dto

import (
	"time"

	"github.com/homemanager/auth-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest payload for admin registration of a new account.
type RegisterRequest struct {
	Apartment string `json:"apartment" validate:"required,max=32"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required,oneof=resident admin"`
	Language  string `json:"language" validate:"required,oneof=lv en"`
}

// ProfileUpdateRequest payload for PUT /me.
type ProfileUpdateRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Language  *string `json:"language" validate:"omitempty,oneof=lv en"`
}

// PasswordChangeRequest payload for change-password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// StatusUpdateRequest payload for activating or deactivating an account.
type StatusUpdateRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// RoleUpdateRequest payload for changing a role.
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=resident admin superadmin"`
}

// UserResponse is the public projection of a user. It never carries the
// password.
type UserResponse struct {
	ID            string           `json:"id"`
	Apartment     string           `json:"apartment"`
	FirstName     string           `json:"firstName"`
	LastName      string           `json:"lastName"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	Role          domain.Role      `json:"role"`
	Language      domain.Language  `json:"language"`
	ParkingSpaces []string         `json:"parkingSpaces"`
	Contacts      []domain.Contact `json:"contacts"`
}

// UserDetailResponse adds account metadata for /me and admin listings.
type UserDetailResponse struct {
	UserResponse
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Message   string       `json:"message"`
	MessageLV string       `json:"message_lv"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// NewUserResponse builds the public projection.
func NewUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		Apartment:     u.Apartment,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		Language:      u.Language,
		ParkingSpaces: u.ParkingSpaces,
		Contacts:      u.Contacts,
	}
	if resp.ParkingSpaces == nil {
		resp.ParkingSpaces = []string{}
	}
	if resp.Contacts == nil {
		resp.Contacts = []domain.Contact{}
	}
	return resp
}

// NewUserDetailResponse builds the detailed projection.
func NewUserDetailResponse(u *domain.User) UserDetailResponse {
	return UserDetailResponse{
		UserResponse: NewUserResponse(u),
		IsActive:     u.IsActive,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
