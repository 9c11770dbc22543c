// Package middleware contains the Echo middleware shared by the routes:
// bearer-token authentication and structured request logging.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-service/internal/logging"
	"github.com/iliyamo/notes-service/internal/utils"
)

// Guard failures.  A request without usable credentials gets
// ErrAuthRequired; one whose token fails verification gets ErrInvalidToken
// wrapping the verifier's reason.
var (
	ErrAuthRequired = errors.New("authentication required")
	ErrInvalidToken = errors.New("invalid token")
)

// unauthorizedBody is shared by both failure kinds so clients cannot probe
// which check failed.
const unauthorizedBody = "missing or invalid token"

// TokenVerifier is satisfied by *utils.TokenService.
type TokenVerifier interface {
	Verify(raw string) (*utils.Claims, error)
}

// Authenticator turns an Authorization header into an Identity.
type Authenticator interface {
	Authenticate(header string) (Identity, error)
}

// Guard authenticates Bearer tokens.  It is stateless and safe for
// concurrent use.
type Guard struct {
	tokens TokenVerifier
}

func NewGuard(tokens TokenVerifier) *Guard { return &Guard{tokens: tokens} }

// Authenticate expects "Bearer <token>"; the scheme is matched case
// insensitively.
func (g *Guard) Authenticate(header string) (Identity, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Identity{}, ErrAuthRequired
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrAuthRequired
	}
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return Identity{UserID: claims.UserID, Email: claims.Email()}, nil
}

// JWTAuth rejects requests that fail authentication with 401 and stores
// the caller's Identity for the handlers behind it.
func JWTAuth(auth Authenticator, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := auth.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				log.DebugContext(c.Request().Context(), "request rejected",
					slog.String("path", c.Path()),
					slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
					logging.Err(err))
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": unauthorizedBody})
			}
			setIdentity(c, id)
			return next(c)
		}
	}
}
