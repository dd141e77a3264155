// auth.go holds the bearer-token gate and the sliding-refresh response
// hook. Together they implement the session model: a request proves its
// identity with an Authorization header, and every authenticated response
// carries a re-stamped token so an active client never expires mid-use.
package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/token"
)

// identityKey is the echo context key holding the verified token claims.
const identityKey = "auth_identity"

// RequireAuth returns middleware that authenticates requests with a
// bearer token. The verified claims are stored on the context for
// handlers. Every failure is the same 401 so callers cannot probe whether
// a token was missing, malformed, forged or expired.
func RequireAuth(tokens *token.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return apperror.NewUnauthorized("Invalid token")
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				return apperror.NewUnauthorized("Invalid token")
			}

			c.Set(identityKey, claims)
			return next(c)
		}
	}
}

// Identity returns the verified claims stored by RequireAuth.
func Identity(c echo.Context) (*token.Claims, error) {
	claims, ok := c.Get(identityKey).(*token.Claims)
	if !ok || claims == nil {
		return nil, apperror.NewMissingContext()
	}
	return claims, nil
}

// UserID returns the authenticated user's id from the request context.
func UserID(c echo.Context) (int64, error) {
	claims, err := Identity(c)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// RefreshToken returns middleware that slides the session window: any
// request outside skipPrefixes that carried a bearer token gets a
// re-stamped token in the Authorization header of its response. Refresh
// failures never break the response; the original payload is forwarded
// and the failure logged.
func RefreshToken(tokens *token.Manager, skipPrefixes []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			raw, ok := bearerToken(c)
			if !ok {
				return next(c)
			}

			// Response headers must be staged before the body starts
			// streaming, so the refresh runs in a pre-write hook rather
			// than after next(c) returns.
			c.Response().Before(func() {
				refreshed, err := tokens.Refresh(raw)
				if err != nil {
					slog.Warn("token refresh failed",
						slog.String("path", path),
						slog.Any("error", err),
					)
					return
				}
				c.Response().Header().Set(echo.HeaderAuthorization, "Bearer "+refreshed)
			})

			return next(c)
		}
	}
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header || raw == "" {
		return "", false
	}
	return raw, true
}
