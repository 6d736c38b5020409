package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// The fixed role set. Roles are reference data; screens are composed from a
// static role → module table, not a policy engine.
const (
	RoleAdmin        = "Administrador"
	RoleCardiologist = "Cardiólogo"
	RoleSecretary    = "Secretaria"
)

// RequireRole returns middleware that checks if the user has one of the
// specified roles. Administrador passes every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole := RoleFromContext(c.Request().Context())
			if userRole == RoleAdmin {
				return next(c)
			}
			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
