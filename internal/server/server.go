package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/almalabs/wabridge/internal/agent"
	"github.com/almalabs/wabridge/internal/config"
	"github.com/almalabs/wabridge/internal/metrics"
	"github.com/almalabs/wabridge/internal/whatsapp"
)

// Server is the HTTP surface of the bridge: webhook verification and
// delivery on the inbound side, task notifications on the outbound side.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	normalizer *whatsapp.Normalizer

	// agent and platform are nil when the corresponding endpoint is not
	// configured. The inbound flow treats both as optional hops.
	agent    *agent.Client
	platform *whatsapp.Client

	server *http.Server
}

// NewServer creates the HTTP server and constructs the gateway clients the
// configuration enables.
func NewServer(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics registry is required")
	}

	log := logger.With().Str("component", "server").Logger()

	s := &Server{
		cfg:        cfg,
		logger:     log,
		metrics:    m,
		normalizer: whatsapp.NewNormalizer(logger),
	}

	if cfg.Agent.AgentEnabled() {
		agentClient, err := agent.NewClient(cfg.Agent, logger)
		if err != nil {
			return nil, fmt.Errorf("create agent client: %w", err)
		}
		s.agent = agentClient
	} else {
		log.Warn().Msg("Agent endpoint not configured, inbound messages will only be acknowledged")
	}

	if cfg.WhatsApp.RelayEnabled() {
		platformClient, err := whatsapp.NewClient(cfg.WhatsApp, logger)
		if err != nil {
			return nil, fmt.Errorf("create whatsapp client: %w", err)
		}
		s.platform = platformClient
	} else {
		log.Warn().Msg("WhatsApp send API not configured, outbound relay disabled")
	}

	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /whatsapp/webhook", s.handleVerify)
	mux.HandleFunc("POST /whatsapp/webhook", s.handleReceive)
	mux.HandleFunc("POST /notifications/task", s.handleTaskNotification)

	return mux
}

// Start begins listening on the configured host and port.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.App.Host, s.cfg.App.Port)

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("addr", addr).
		Str("env", s.cfg.App.Env).
		Bool("agent", s.agent != nil).
		Bool("relay", s.platform != nil).
		Msg("Starting HTTP server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	s.logger.Info().Msg("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.cfg.App.Name,
		"env":     s.cfg.App.Env,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
