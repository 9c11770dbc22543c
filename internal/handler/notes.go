package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-service/internal/middleware"
	"github.com/iliyamo/notes-service/internal/queue"
	"github.com/iliyamo/notes-service/internal/repository"
)

// NoteHandler serves the owner-scoped note endpoints.  Every store call
// carries the caller's id; a note owned by someone else is indistinguishable
// from a missing one.
type NoteHandler struct {
	Notes   repository.NoteStore
	Events  EventEmitter
	Timeout time.Duration
	Log     *slog.Logger
}

func NewNoteHandler(notes repository.NoteStore, events EventEmitter, timeout time.Duration, log *slog.Logger) *NoteHandler {
	if notes == nil || events == nil {
		panic("nil dependency passed to NewNoteHandler")
	}
	return &NoteHandler{Notes: notes, Events: events, Timeout: timeout, Log: log}
}

type noteReq struct {
	Text string `json:"text" validate:"required,notblank,max=10000"`
}

const msgNoteNotFound = "note not found"

// bindText binds the body and validates the trimmed text, which is what
// gets stored.  When ok is false the 400 response has already been written
// and err is the result of writing it.
func bindText(c echo.Context) (text string, ok bool, err error) {
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return "", false, badRequest(c, msgInvalidBody)
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := c.Validate(&req); err != nil {
		return "", false, badRequest(c, validationMessage(err))
	}
	return req.Text, true, nil
}

// validID reports whether id can name a note.  Anything else cannot match
// a row, so the store is not consulted.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (h *NoteHandler) emit(c echo.Context, typ, userID, noteID string) {
	ev := queue.NewEvent(typ, userID)
	ev.NoteID = noteID
	h.Events.Emit(c.Request().Context(), ev)
}

// List handles GET /notes.
func (h *NoteHandler) List(c echo.Context) error {
	const op = "handler.NoteHandler.List"
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	notes, err := h.Notes.ListByOwner(ctx, id.UserID)
	if err != nil {
		return internalError(c, h.Log, op, err)
	}
	return c.JSON(http.StatusOK, notes)
}

// Create handles POST /notes.
func (h *NoteHandler) Create(c echo.Context) error {
	const op = "handler.NoteHandler.Create"
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	text, ok, err := bindText(c)
	if !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	n, err := h.Notes.Create(ctx, id.UserID, text)
	if err != nil {
		return internalError(c, h.Log, op, err)
	}
	h.emit(c, queue.NoteCreated, id.UserID, n.ID)
	return c.JSON(http.StatusCreated, n)
}

// Update handles PUT /notes/:id.
func (h *NoteHandler) Update(c echo.Context) error {
	const op = "handler.NoteHandler.Update"
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	text, ok, err := bindText(c)
	if !ok {
		return err
	}
	noteID := c.Param("id")
	if !validID(noteID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgNoteNotFound})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	n, err := h.Notes.UpdateByIDAndOwner(ctx, noteID, id.UserID, text)
	if errors.Is(err, repository.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msgNoteNotFound})
	}
	if err != nil {
		return internalError(c, h.Log, op, err)
	}
	h.emit(c, queue.NoteUpdated, id.UserID, n.ID)
	return c.JSON(http.StatusOK, n)
}

// Delete handles DELETE /notes/:id.  It answers 204 whether or not a note
// was removed.
func (h *NoteHandler) Delete(c echo.Context) error {
	const op = "handler.NoteHandler.Delete"
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return unauthorized(c)
	}
	noteID := c.Param("id")
	if !validID(noteID) {
		return c.NoContent(http.StatusNoContent)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	deleted, err := h.Notes.DeleteByIDAndOwner(ctx, noteID, id.UserID)
	if err != nil {
		return internalError(c, h.Log, op, err)
	}
	if deleted {
		h.emit(c, queue.NoteDeleted, id.UserID, noteID)
	}
	return c.NoContent(http.StatusNoContent)
}
