package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cwstack/keyerd/internal/console"
	"github.com/cwstack/keyerd/internal/infrastructure/config"
	"github.com/cwstack/keyerd/internal/infrastructure/logging"
	"github.com/cwstack/keyerd/internal/meta"
	"github.com/cwstack/keyerd/internal/persist"
	"github.com/cwstack/keyerd/internal/preset"
	"github.com/cwstack/keyerd/internal/store"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *console.Registry
	Store    *store.Store
	Persist  *persist.Manager // optional: save/load endpoints return 503 without it
	Meta     *meta.Table      // optional: meta endpoint returns 404 without it
	Bank     *preset.Bank     // optional: preset endpoints return 404 without it
	Version  string
}

// Server is the HTTP API server for keyerd.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	registry *console.Registry
	st       *store.Store
	persist  *persist.Manager
	metaTab  *meta.Table
	bank     *preset.Bank
	version  string
	server   *http.Server
	hub      *Hub
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("console registry is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		registry: deps.Registry,
		st:       deps.Store,
		persist:  deps.Persist,
		metaTab:  deps.Meta,
		bank:     deps.Bank,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub and the generation
// change feed, and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	// Broadcast parameter changes to WebSocket clients.
	go s.changeFeed(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, change feed)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// changeFeed polls the store generation counter and broadcasts changed
// parameters to subscribed WebSocket clients. Idle cost is one atomic
// load per tick.
func (s *Server) changeFeed(ctx context.Context) {
	interval := time.Duration(s.wsCfg.PollInterval) * time.Millisecond
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastGen := s.st.Generation()
	lastValues := make(map[string]string)
	params := s.registry.Params()
	for i := range params {
		d := &params[i]
		lastValues[d.FullPath] = d.Format(d.Get())
	}

	lastActive := -1
	if s.bank != nil {
		lastActive = s.bank.Active()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if gen := s.st.Generation(); gen != lastGen {
			lastGen = gen
			params := s.registry.Params()
			for i := range params {
				d := &params[i]
				value := d.Format(d.Get())
				if lastValues[d.FullPath] == value {
					continue
				}
				lastValues[d.FullPath] = value
				s.hub.Broadcast(ChannelParamChanged, map[string]any{
					"path":       d.FullPath,
					"value":      value,
					"generation": gen,
				})
			}
		}

		if s.bank != nil {
			if active := s.bank.Active(); active != lastActive {
				lastActive = active
				s.hub.Broadcast(ChannelPresetChanged, map[string]any{
					"active": active,
				})
			}
		}
	}
}
