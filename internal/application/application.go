package application

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/brickapp/brick/internal/api"
	"github.com/brickapp/brick/internal/config"
)

// App encapsulates the external API dependencies and HTTP server.
type App struct {
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New wires the resolved configuration into the external API server.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if cfg.Settings == nil {
		return nil, errors.New("configuration has no settings")
	}

	handler := api.NewHandler(cfg.Settings)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithAllowedOrigin(cfg.AllowedOrigin),
	)

	return &App{
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Enabled reports whether the settings ask for the external API.
func Enabled(cfg config.Config) bool {
	return cfg.Settings != nil && cfg.Settings.ExternalAPI
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("external API listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("external API stopped", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}
