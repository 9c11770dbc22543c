package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/notes-service/internal/config"
	"github.com/iliyamo/notes-service/internal/logging"
)

func testConfig() config.Config {
	return config.Config{
		Env:            "local",
		Port:           "0",
		APIPrefix:      "/api",
		StorageDriver:  config.StorageMemory,
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		TokenTTL:       time.Hour,
		BcryptCost:     10,
		RequestTimeout: time.Second,
		CORSOrigins:    []string{"http://localhost:5173"},
		Cache:          config.CacheConfig{TTL: time.Minute, Prefix: "notes"},
	}
}

func serve(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_MemoryStack(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	h := a.Handler()

	rec := serve(t, h, http.MethodPost, "/api/register", `{"email":"a@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = serve(t, h, http.MethodGet, "/api/notes", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, h, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{}}`, rec.Body.String())
}

func TestNew_LogsTokenTTL(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.TokenTTL = 90 * time.Minute

	a, err := New(context.Background(), cfg, logging.New("prod", &buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Contains(t, buf.String(), `"msg":"token service ready"`)
	assert.Contains(t, buf.String(), `"token_ttl":5400000000000`)
}

func TestNew_CORS(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_RedisCacheAndReadiness(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Enabled: true, Addr: mr.Addr()}

	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	h := a.Handler()

	require.Equal(t, http.StatusCreated, serve(t, h, http.MethodPost, "/api/register", `{"email":"c@x.com","password":"secret1"}`, "").Code)
	rec := serve(t, h, http.MethodPost, "/api/login", `{"email":"c@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := strings.Split(strings.Split(rec.Body.String(), `"token":"`)[1], `"`)[0]

	require.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/api/notes", "", token).Code)
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "notes:list:"), keys[0])

	rec = serve(t, h, http.MethodGet, "/readyz", "", "")
	assert.JSONEq(t, `{"status":"ok","checks":{"redis":"ok"}}`, rec.Body.String())

	mr.Close()
	rec = serve(t, h, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"redis":"down"}}`, rec.Body.String())
}

func TestNew_StaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>notes</h1>"), 0o644))
	cfg := testConfig()
	cfg.StaticDir = dir

	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	h := a.Handler()

	rec := serve(t, h, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notes")

	rec = serve(t, h, http.MethodGet, "/some/client/route", "", "")
	assert.Contains(t, rec.Body.String(), "<h1>notes</h1>")

	rec = serve(t, h, http.MethodGet, "/api/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_InvalidSettings(t *testing.T) {
	cfg := testConfig()
	cfg.BcryptCost = 4
	_, err := New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.StorageDriver = "mongo"
	_, err = New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}

func TestRun_GracefulShutdown(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
