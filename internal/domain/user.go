package domain

import (
	"strings"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleResident   Role = "resident"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleResident, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdministrative reports whether r may manage users and content.
func (r Role) IsAdministrative() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return true
	case RoleResident:
		return false
	}
	return false
}

// Language is the user's preferred UI language.
type Language string

const (
	LanguageLatvian Language = "lv"
	LanguageEnglish Language = "en"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageLatvian || l == LanguageEnglish
}

// Contact is an additional contact person attached to an apartment.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Type  string `json:"type"`
}

// User is a resident or administrator account.
type User struct {
	ID            string
	Apartment     string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	PasswordHash  string
	Role          Role
	Language      Language
	IsActive      bool
	LastLogin     *time.Time
	ParkingSpaces []string
	Contacts      []Contact
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// PlainPassword is a pending password change. The credential store hashes
	// it into PasswordHash on save and clears it.
	PlainPassword string
}

// SetPassword schedules a password change for the next save.
func (u *User) SetPassword(plain string) {
	u.PlainPassword = plain
}

// WithoutPassword returns a copy with all credential material removed.
func (u User) WithoutPassword() User {
	u.PasswordHash = ""
	u.PlainPassword = ""
	return u
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
