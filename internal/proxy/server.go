// Package proxy serves POST /api/agent, the single route the wizard talks
// to, and forwards each envelope to the agent platform.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/policydesk/policydesk/internal/agent"
)

const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// Caller answers each envelope; usually an Upstream, or an
	// agent.MockClient for offline use.
	Caller   agent.Caller
	Logger   zerolog.Logger
	Registry *prometheus.Registry
}

// Server is the /api/agent HTTP server.
type Server struct {
	caller  agent.Caller
	metrics *Metrics
	logger  zerolog.Logger
	router  chi.Router
	server  *http.Server
}

// NewServer builds the router. A nil Registry gets a private one.
func NewServer(opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		caller:  opts.Caller,
		metrics: NewMetrics(reg),
		logger:  opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("request_id", chiMiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(CORS(opts.AllowedOrigins))

	r.Post("/api/agent", s.handleAgent)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.router = r
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("proxy listening")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("proxy shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("proxy: binding listener: %w", err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req agent.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.observe("", outcomeInvalid, start)
		writeEnvelope(w, http.StatusBadRequest, agent.Response{Error: fmt.Sprintf("invalid JSON: %v", err)})
		return
	}
	if strings.TrimSpace(req.AgentID) == "" || strings.TrimSpace(req.Message) == "" {
		s.metrics.observe(req.AgentID, outcomeInvalid, start)
		writeEnvelope(w, http.StatusBadRequest, agent.Response{Error: "agent_id and message are required"})
		return
	}

	s.metrics.InFlight.Inc()
	raw, err := s.caller.Call(r.Context(), req)
	s.metrics.InFlight.Dec()

	if err != nil {
		s.metrics.observe(req.AgentID, outcomeError, start)
		if agent.IsCanceled(err) {
			// The client went away; nobody is left to answer.
			return
		}
		hlog.FromRequest(r).Warn().Err(err).Str("agent_id", req.AgentID).Msg("agent call failed")
		writeEnvelope(w, http.StatusBadGateway, agent.Response{Error: agent.Message(err)})
		return
	}

	s.metrics.observe(req.AgentID, outcomeSuccess, start)
	writeEnvelope(w, http.StatusOK, agent.Response{Success: true, Response: raw})
}

func writeEnvelope(w http.ResponseWriter, status int, v agent.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encoding response: %v", err), http.StatusInternalServerError)
	}
}
