// Package pubsite is a static blog generator built with Go, templ, and Echo.
// It compiles Markdown posts into pages (posts, tag indexes, a timeline, RSS
// and a sitemap) and ships a preview server with a small admin for posts
// kept in SQLite.
package pubsite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pubsite/content"
	"github.com/eringen/pubsite/planner"
	"github.com/eringen/pubsite/views"
)

// App is the central pubsite application. It wires together the content
// source, the build pipeline, and the preview server.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Source planner.Querier
	Logger *zap.Logger

	loginLimiter *LoginLimiter
	buildMu      sync.Mutex
	lastReport   Report
	ownsStore    bool
}

// New creates a new pubsite App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// open validates the configuration and prepares the content source.
func (a *App) open() error {
	if err := a.Config.validate(); err != nil {
		return err
	}
	if a.Store == nil && a.Config.Source == SourceSQLite {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("pubsite: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}
	if a.Source != nil {
		return nil
	}
	switch a.Config.Source {
	case SourceSQLite:
		a.Store.ExcerptLength = a.Config.ExcerptLength
		a.Store.IncludeFuture = a.Config.IncludeDrafts
		a.Source = a.Store
	default:
		dir := content.NewDir(a.Config.ContentDir)
		dir.IncludeDrafts = a.Config.IncludeDrafts
		dir.ExcerptLength = a.Config.ExcerptLength
		a.Source = dir
	}
	return nil
}

func (a *App) viewConfig() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
		Lang:        a.Config.Lang,
	}
}

// Serve builds the site once, then serves the output until ctx is done.
// With watch set, changes under the content and static directories trigger
// a rebuild.
func (a *App) Serve(ctx context.Context, watch bool) error {
	if err := a.open(); err != nil {
		return err
	}
	if _, err := a.Build(ctx); err != nil {
		return err
	}

	a.setupServer()
	defer a.loginLimiter.Stop()

	if watch {
		stop, err := a.watch(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Echo.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	a.Logger.Info("serving", zap.String("addr", a.Config.Addr), zap.String("output", a.Config.OutputDir))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// setupServer creates the echo instance with middleware and routes. The
// caller owns the login limiter and must stop it.
func (a *App) setupServer() {
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.Echo = echo.New()
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.setupMiddleware()
	a.setupRoutes()
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil && a.ownsStore {
		return a.Store.Close()
	}
	return nil
}
