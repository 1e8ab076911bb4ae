package middleware

import (
	"strings"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/oauth"
	"github.com/dimitrije/sitecms/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

const EditorKey = "editor"

// Auth validates the bearer token and stores the caller as a models.Editor.
// Authorized is recomputed against allowedLogin on every request, so removing
// a login from the allow list takes effect before its tokens expire.
func Auth(jwtService *services.JWTService, allowedLogin string) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(EditorKey, models.Editor{
			Login:      claims.Login,
			Authorized: oauth.IsAllowed(claims.Login, allowedLogin),
		})

		c.Next()
	}
}

// GetEditor returns the authenticated editor, or the zero Editor (not
// authorized) when the request did not pass through Auth.
func GetEditor(c *drift.Context) models.Editor {
	if v, ok := c.Get(EditorKey); ok {
		if e, ok := v.(models.Editor); ok {
			return e
		}
	}
	return models.Editor{}
}
