package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-service/internal/logging"
	"github.com/iliyamo/notes-service/internal/middleware"
	"github.com/iliyamo/notes-service/internal/model"
	"github.com/iliyamo/notes-service/internal/queue"
	"github.com/iliyamo/notes-service/internal/utils"
)

var errStore = errors.New("store unavailable")

type fakeHasher struct {
	err        error
	dummyCalls int
}

func (f *fakeHasher) Hash(plain string) (string, error) {
	if len(plain) > 72 {
		return "", utils.ErrPasswordTooLong
	}
	if f.err != nil {
		return "", f.err
	}
	return "hashed:" + plain, nil
}

func (f *fakeHasher) Verify(hash, plain string) bool { return hash == "hashed:"+plain }

func (f *fakeHasher) CompareDummy(string) { f.dummyCalls++ }

type fakeTokens struct{ err error }

func (f fakeTokens) Issue(userID string, extra map[string]any) (utils.AccessToken, error) {
	if f.err != nil {
		return utils.AccessToken{}, f.err
	}
	return utils.AccessToken{Token: "tok-" + userID + "-" + extra["email"].(string), Exp: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recordedEvents) Emit(_ context.Context, ev queue.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// fixedAuth authenticates every request as id.
type fixedAuth struct{ id middleware.Identity }

func (f fixedAuth) Authenticate(string) (middleware.Identity, error) { return f.id, nil }

type failingUsers struct{}

func (failingUsers) GetByEmail(context.Context, string) (model.User, error) {
	return model.User{}, errStore
}

func (failingUsers) Create(context.Context, string, string) (model.User, error) {
	return model.User{}, errStore
}

type failingNotes struct{}

func (failingNotes) ListByOwner(context.Context, string) ([]model.Note, error) { return nil, errStore }

func (failingNotes) Create(context.Context, string, string) (model.Note, error) {
	return model.Note{}, errStore
}

func (failingNotes) UpdateByIDAndOwner(context.Context, string, string, string) (model.Note, error) {
	return model.Note{}, errStore
}

func (failingNotes) DeleteByIDAndOwner(context.Context, string, string) (bool, error) {
	return false, errStore
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(logging.Discard())
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
