package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-service/internal/middleware"
	"github.com/iliyamo/notes-service/internal/queue"
	"github.com/iliyamo/notes-service/internal/repository"
	"github.com/iliyamo/notes-service/internal/utils"
)

// PasswordHasher is satisfied by *utils.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
	CompareDummy(plain string)
}

// TokenIssuer is satisfied by *utils.TokenService.
type TokenIssuer interface {
	Issue(userID string, extra map[string]any) (utils.AccessToken, error)
}

// EventEmitter is satisfied by *service.Events.
type EventEmitter interface {
	Emit(ctx context.Context, ev queue.Event)
}

// AuthHandler serves registration, login and the caller's identity.
type AuthHandler struct {
	Users   repository.UserStore
	Hasher  PasswordHasher
	Tokens  TokenIssuer
	Events  EventEmitter
	Timeout time.Duration
	Log     *slog.Logger
}

func NewAuthHandler(users repository.UserStore, hasher PasswordHasher, tokens TokenIssuer, events EventEmitter, timeout time.Duration, log *slog.Logger) *AuthHandler {
	if users == nil || hasher == nil || tokens == nil || events == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Users: users, Hasher: hasher, Tokens: tokens, Events: events, Timeout: timeout, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,notblank,max=320"`
	Password string `json:"password" validate:"required,notblank,min=6"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,notblank"`
	Password string `json:"password" validate:"required,notblank"`
}

type loginResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type meResp struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

const (
	msgInvalidBody        = "invalid request body"
	msgInvalidCredentials = "invalid credentials"
)

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register handles POST /register.
func (h *AuthHandler) Register(c echo.Context) error {
	const op = "handler.AuthHandler.Register"
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	req.Email = normalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	hash, err := h.Hasher.Hash(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return badRequest(c, "password must be at most 72 bytes")
	}
	if err != nil {
		return internalError(c, h.Log, op, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, hash)
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}
	if err != nil {
		return internalError(c, h.Log, op, err)
	}

	ev := queue.NewEvent(queue.UserRegistered, u.ID)
	ev.Email = u.Email
	h.Events.Emit(c.Request().Context(), ev)
	h.Log.InfoContext(c.Request().Context(), "user registered", slog.String("user_id", u.ID))

	return c.JSON(http.StatusCreated, echo.Map{"message": "user created"})
}

// Login handles POST /login.  Unknown email and wrong password produce the
// same response and cost the same bcrypt work.
func (h *AuthHandler) Login(c echo.Context) error {
	const op = "handler.AuthHandler.Login"
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	req.Email = normalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		h.Hasher.CompareDummy(req.Password)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": msgInvalidCredentials})
	}
	if err != nil {
		return internalError(c, h.Log, op, err)
	}
	if !h.Hasher.Verify(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": msgInvalidCredentials})
	}

	tok, err := h.Tokens.Issue(u.ID, map[string]any{"email": u.Email})
	if err != nil {
		return internalError(c, h.Log, op, err)
	}
	return c.JSON(http.StatusOK, loginResp{Token: tok.Token, ExpiresAt: tok.Exp})
}

// Me handles GET /me and echoes the identity carried by the token.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(http.StatusOK, meResp{ID: id.UserID, Email: id.Email})
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid token"})
}
