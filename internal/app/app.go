// Package app composes configuration, storage, cache, events and HTTP
// routing into a runnable service.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/notes-service/internal/cache"
	"github.com/iliyamo/notes-service/internal/config"
	"github.com/iliyamo/notes-service/internal/database"
	"github.com/iliyamo/notes-service/internal/handler"
	"github.com/iliyamo/notes-service/internal/logging"
	"github.com/iliyamo/notes-service/internal/middleware"
	"github.com/iliyamo/notes-service/internal/queue"
	"github.com/iliyamo/notes-service/internal/repository"
	"github.com/iliyamo/notes-service/internal/router"
	"github.com/iliyamo/notes-service/internal/service"
	"github.com/iliyamo/notes-service/internal/utils"
)

const (
	shutdownTimeout = 10 * time.Second
	publishTimeout  = 5 * time.Second
)

// App owns every long-lived resource of the service.
type App struct {
	cfg       config.Config
	log       *slog.Logger
	echo      *echo.Echo
	db        *sql.DB
	rdb       *redis.Client
	publisher *service.AMQPPublisher
	events    *service.Events
}

// New builds the service from cfg.  Resources opened before a failure are
// released before returning.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	hasher, err := utils.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := utils.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	log.Info("token service ready", slog.Duration("token_ttl", tokens.TTL()), slog.Int("bcrypt_cost", cfg.BcryptCost))

	var (
		users repository.UserStore
		notes repository.NoteStore
	)
	switch cfg.StorageDriver {
	case config.StorageMySQL:
		a.db, err = database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		if cfg.DBMigrate {
			if err := database.Migrate(ctx, a.db); err != nil {
				return nil, err
			}
		}
		users, notes = repository.NewUserRepo(a.db), repository.NewNoteRepo(a.db)
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		users, notes = repository.NewMemoryUserStore(), repository.NewMemoryNoteStore()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	a.rdb = config.NewRedisClient(cfg.Redis)
	if cfg.Redis.Enabled && a.rdb == nil {
		log.Warn("redis unreachable; notes cache disabled", slog.String("addr", cfg.Redis.Addr))
	}
	notes = cache.NewNoteStore(notes, a.rdb, cfg.Cache, log)

	var pub service.EventPublisher = service.NopPublisher{}
	if cfg.AMQP.Enabled {
		a.publisher = service.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		pub = a.publisher
	}
	a.events = service.NewEvents(pub, log, publishTimeout)

	a.echo = a.newEcho(
		handler.NewAuthHandler(users, hasher, tokens, a.events, cfg.RequestTimeout, log),
		handler.NewNoteHandler(notes, a.events, cfg.RequestTimeout, log),
		middleware.JWTAuth(middleware.NewGuard(tokens), log),
	)
	return a, nil
}

func (a *App) newEcho(auth *handler.AuthHandler, notes *handler.NoteHandler, guard echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(a.log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(a.log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  a.cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))
	if a.cfg.StaticDir != "" {
		e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
			Root:    a.cfg.StaticDir,
			HTML5:   true,
			Skipper: a.skipStatic,
		}))
	}

	router.RegisterRoutes(e, &handler.ReadyHandler{Checks: a.readyChecks(), Timeout: 2 * time.Second, Log: a.log})
	router.RegisterAuth(e, a.cfg.APIPrefix, auth, guard)
	router.RegisterNotes(e, a.cfg.APIPrefix, notes, guard)
	return e
}

// skipStatic keeps the SPA fallback away from the API and the probes.
func (a *App) skipStatic(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, a.cfg.APIPrefix+"/") || p == a.cfg.APIPrefix ||
		p == "/healthz" || p == "/readyz"
}

func (a *App) readyChecks() []handler.Check {
	var checks []handler.Check
	if a.db != nil {
		checks = append(checks, handler.Check{Name: "mysql", Probe: a.db.PingContext, Critical: true})
	}
	if a.rdb != nil {
		checks = append(checks, handler.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		}})
	}
	return checks
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases every resource.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumerDone := make(chan struct{})
	if a.cfg.AMQP.Enabled {
		go func() {
			defer close(consumerDone)
			err := queue.StartAuditConsumer(ctx, a.cfg.AMQP.URL, a.cfg.AMQP.Queue, a.cfg.AMQP.AuditLogPath, a.log)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("audit consumer stopped", logging.Err(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", slog.String("addr", a.cfg.Addr()), slog.String("env", a.cfg.Env))
		errCh <- a.echo.Start(a.cfg.Addr())
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.echo.Shutdown(sctx); err != nil {
			runErr = fmt.Errorf("http shutdown: %w", err)
		}
	}

	cancel()
	<-consumerDone
	a.events.Wait()
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Close releases the database, Redis and broker handles.  It is safe to
// call more than once.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
		a.publisher = nil
	}
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
		a.rdb = nil
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}
