package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/homemanager/auth-service/internal/domain"
)

// Guard is an authorization predicate over a resolved principal.
type Guard func(p *Principal) error

// AnyAuthenticated admits any resolved principal.
func AnyAuthenticated() Guard {
	return func(p *Principal) error {
		if p == nil || p.User == nil {
			return ErrAuthenticationRequired
		}
		return nil
	}
}

// HasRole admits principals whose role is in roles.
func HasRole(roles ...domain.Role) Guard {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(p *Principal) error {
		if err := AnyAuthenticated()(p); err != nil {
			return err
		}
		if _, ok := allowed[p.User.Role]; !ok {
			return errInsufficientRole
		}
		return nil
	}
}

// Administrative admits admins and superadmins.
func Administrative() Guard {
	return HasRole(domain.RoleAdmin, domain.RoleSuperAdmin)
}

// SuperAdminOnly admits superadmins.
func SuperAdminOnly() Guard {
	return HasRole(domain.RoleSuperAdmin)
}

// OwnsApartment admits residents of apartment and any administrative role.
func OwnsApartment(apartment string) Guard {
	return func(p *Principal) error {
		if err := AnyAuthenticated()(p); err != nil {
			return err
		}
		if p.User.Role.IsAdministrative() {
			return nil
		}
		if apartment != "" && p.User.Apartment == apartment {
			return nil
		}
		return errApartmentDenied
	}
}

// CanModify admits principals allowed to change shared building data.
func CanModify() Guard {
	return func(p *Principal) error {
		if err := AnyAuthenticated()(p); err != nil {
			return err
		}
		if !p.User.Role.IsAdministrative() {
			return errModificationDenied
		}
		return nil
	}
}

// AllOf admits a principal only if every guard does.
func AllOf(guards ...Guard) Guard {
	return func(p *Principal) error {
		for _, guard := range guards {
			if err := guard(p); err != nil {
				return err
			}
		}
		return nil
	}
}

// Require turns a guard into route middleware. It must run after Gate.Handle.
func Require(guard Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := guard(principal); err != nil {
			return ToHTTPError(err)
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return Require(AnyAuthenticated())
}

// RequireRole ensures the caller has one of the allowed roles.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return Require(HasRole(roles...))
}

// RequireAdmin ensures the caller is an admin or superadmin.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)
}

// RequireModifyAccess ensures the caller may modify data.
func RequireModifyAccess() fiber.Handler {
	return Require(CanModify())
}

// RequireSuperAdmin ensures the caller is a superadmin.
func RequireSuperAdmin() fiber.Handler {
	return Require(SuperAdminOnly())
}

// RequireApartmentOwnership checks the apartment named by the route param.
func RequireApartmentOwnership(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := OwnsApartment(c.Params(param))(principal); err != nil {
			return ToHTTPError(err)
		}
		return c.Next()
	}
}
