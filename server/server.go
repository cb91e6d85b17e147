package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/poiesic/superior/core"
)

const (
	// DefaultHost is the interface the server listens on.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the TCP port the server listens on.
	DefaultPort = 8000

	// OnlineMessage is returned by the liveness route.
	OnlineMessage = "Superior AI online"

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Asker answers a single question.
type Asker interface {
	Ask(ctx context.Context, req *core.AskRequest) (*core.AskResponse, error)
}

// Server is the HTTP front end.
type Server struct {
	asker   Asker
	addr    string
	origins []string
	logger  *slog.Logger
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server) error

// WithAddress sets the listen address.
// Default is DefaultHost:DefaultPort.
func WithAddress(host string, port int) Option {
	return func(s *Server) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
		s.addr = net.JoinHostPort(host, strconv.Itoa(port))
		return nil
	}
}

// WithAllowedOrigins sets the origins allowed by CORS.
// An empty list allows every origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.origins = origins
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a server that answers questions with asker.
func New(asker Asker, opts ...Option) (*Server, error) {
	if asker == nil {
		return nil, errors.New("asker required")
	}

	s := &Server{
		asker:  asker,
		addr:   net.JoinHostPort(DefaultHost, strconv.Itoa(DefaultPort)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /ai/ask", s.handleAsk)
	s.handler = s.logRequests(s.cors(mux))

	return s, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": OnlineMessage})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAskRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp, err := s.asker.Ask(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// askPayload mirrors core.AskRequest with pointers so that absent and
// null fields can be told apart from zero values.
type askPayload struct {
	Query   *string `json:"query"`
	Address *string `json:"address"`
	K       *int    `json:"k"`
}

func decodeAskRequest(body io.Reader) (*core.AskRequest, error) {
	var payload askPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if payload.Query == nil {
		return nil, errors.New("query: field required")
	}

	req := &core.AskRequest{Query: *payload.Query, K: payload.K}
	if payload.Address != nil {
		req.Address = *payload.Address
	}
	if err := core.ValidateAskRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var missing *core.MissingConfigError
	switch {
	case errors.As(err, &missing):
		s.logger.Error("configuration error", "err", err)
		writeDetail(w, http.StatusInternalServerError, missing.Error())
	case errors.Is(err, core.ErrInvalidAskRequest):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("ask failed", "err", err)
		writeDetail(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
