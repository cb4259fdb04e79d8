package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/psmarket/product_api/internal/service/token"
)

// ClaimsKey is the echo context key the decoded claims are stored under.
const ClaimsKey = "user"

type Middleware struct {
	Tokens *token.Service
}

func NewMiddleware(tokens *token.Service) *Middleware {
	return &Middleware{Tokens: tokens}
}

// RequireAuth takes the second field of the Authorization header as the
// bearer token (the scheme word is not checked, same contract as before).
// Missing token short-circuits with 401, failed verification with 403,
// otherwise the claims land in the request context and the chain continues.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		parts := strings.Split(c.Request().Header.Get("Authorization"), " ")
		if len(parts) < 2 || parts[1] == "" {
			return c.NoContent(http.StatusUnauthorized)
		}

		claims, err := m.Tokens.Verify(parts[1])
		if err != nil {
			return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		}

		c.Set(ClaimsKey, claims)
		return next(c)
	}
}
