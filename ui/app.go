package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"autodash/app"
	"autodash/domain/core"
	"autodash/internal"
	"autodash/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App serves live dashboards over HTTP
type App struct {
	router     *chi.Mux
	dashboards *app.DashboardService
	exports    *app.ExportService
	assembler  *app.DocumentAssembler
	charts     ports.ChartVectorRenderer
	templates  *template.Template
	logger     *internal.Logger
	config     Config

	mu       sync.RWMutex
	surfaces map[core.DashboardID]*Surface
}

// Config holds UI application configuration
type Config struct {
	Port        string
	ChartWidth  int
	ChartHeight int
	Author      string
}

// NewApp creates the live server. exports may be nil to disable the
// export endpoint.
func NewApp(config Config, dashboards *app.DashboardService, exports *app.ExportService, charts ports.ChartVectorRenderer, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.ChartWidth <= 0 || config.ChartHeight <= 0 {
		config.ChartWidth, config.ChartHeight = 900, 500
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:     chi.NewRouter(),
		dashboards: dashboards,
		exports:    exports,
		assembler:  app.NewDocumentAssembler(logger),
		charts:     charts,
		templates:  templates,
		logger:     logger.With("ui"),
		config:     config,
		surfaces:   make(map[core.DashboardID]*Surface),
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// Attach registers the surface a dashboard's engine renders into
func (a *App) Attach(id core.DashboardID, s *Surface) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.surfaces[id] = s
}

func (a *App) surface(id core.DashboardID) *Surface {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.surfaces[id]
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(requestLogger(a.logger))
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/healthz", a.handleHealth)

	a.router.Route("/dashboards/{id}", func(r chi.Router) {
		r.Get("/", a.handleDashboard)
		r.Post("/controls", a.handleSetControl)
		r.Post("/refresh", a.handleRefresh)
	})

	a.router.Post("/export", a.handleExport)
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until ctx is cancelled
func (a *App) Start(ctx context.Context) error {
	port := a.config.Port
	if port == "" {
		port = "5006"
	}
	srv := &http.Server{
		Addr:              ":" + strings.TrimPrefix(port, ":"),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving %d dashboards on http://localhost%s", len(a.dashboards.List()), srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
