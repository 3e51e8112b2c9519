package inspect

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/derivable/internal/errors"
	"github.com/vango-dev/derivable/pkg/reactive"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errAbortRequested rolls back a transaction the client asked to abort.
var errAbortRequested = stderrors.New("abort requested")

// TxnRequest is the body of POST /txn.
type TxnRequest struct {
	// Name labels the transaction in logs and traces.
	Name string `json:"name,omitempty"`

	// Writes are applied in order.
	Writes []AtomWrite `json:"writes"`

	// Abort rolls the transaction back after applying the writes. Useful
	// to check that a batch of writes would be accepted.
	Abort bool `json:"abort,omitempty"`
}

// AtomWrite is one write of a transaction.
type AtomWrite struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// TxnResult reports the outcome of POST /txn.
type TxnResult struct {
	ID      string        `json:"id"`
	Name    string        `json:"name,omitempty"`
	Outcome string        `json:"outcome"`
	Writes  int           `json:"writes"`
	Error   *errors.Error `json:"error,omitempty"`
}

// Server is the inspector HTTP server.
type Server struct {
	loop     *reactive.Loop
	reg      *Registry
	hub      *Hub
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger. Default: the runtime's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates an inspector for the nodes in reg, driven by loop.
//
// NewServer starts the watch reactors of reg, so it must be called before
// the loop runs or from the loop goroutine.
func NewServer(loop *reactive.Loop, reg *Registry, opts ...Option) *Server {
	s := &Server{
		loop:   loop,
		reg:    reg,
		logger: loop.Runtime().Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger)
	reg.Watch(s.hub.PublishDelivery)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close disconnects watch clients. Call Registry.Close from the loop to
// stop the watch reactors.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/graph", s.handleGraph)
	r.Get("/atoms", s.handleAtoms)
	r.Get("/nodes/{name}", s.handleNode)
	r.Put("/atoms/{name}", s.handleSet)
	r.Post("/txn", s.handleTxn)
	r.Get("/watch", s.hub.HandleWebSocket)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// logRequests logs each request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("inspect: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var nodes []NodeView
	if err := s.submit(r.Context(), func() { nodes = s.reg.Graph() }); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (s *Server) handleAtoms(w http.ResponseWriter, r *http.Request) {
	var atoms []NodeView
	if err := s.submit(r.Context(), func() { atoms = s.reg.Atoms() }); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"atoms": atoms})
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var (
		view    NodeView
		viewErr error
	)
	if err := s.submit(r.Context(), func() { view, viewErr = s.reg.View(name) }); err != nil {
		s.writeError(w, err)
		return
	}
	if viewErr != nil {
		s.writeError(w, viewErr)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	raw, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var (
		view   NodeView
		setErr error
	)
	err = s.submit(r.Context(), func() {
		if setErr = s.reg.Set(name, raw); setErr != nil {
			return
		}
		view, setErr = s.reg.View(name)
	})
	if err == nil {
		err = setErr
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleTxn(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req TxnRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, errors.New("R212").WithDetail("The request body is not a transaction.").Wrap(err))
		return
	}

	res := TxnResult{ID: uuid.NewString(), Name: req.Name}
	var txnErr error
	err = s.submit(r.Context(), func() {
		rt := s.loop.Runtime()
		txnErr = rt.TransactNamed(req.Name, func() error {
			for _, wr := range req.Writes {
				if err := s.reg.Set(wr.Name, wr.Value); err != nil {
					return err
				}
			}
			if req.Abort {
				return errAbortRequested
			}
			return nil
		})
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	switch {
	case txnErr == nil:
		res.Outcome = reactive.TxnCommitted.String()
		res.Writes = len(req.Writes)
	case stderrors.Is(txnErr, errAbortRequested):
		res.Outcome = reactive.TxnAborted.String()
	default:
		res.Outcome = reactive.TxnAborted.String()
		res.Error = errors.New("R213").Wrap(txnErr)
		status = http.StatusUnprocessableEntity
	}
	s.logger.Debug("inspect: transaction", "id", res.ID, "name", res.Name, "outcome", res.Outcome)
	s.hub.PublishTxn(res)
	writeJSON(w, status, res)
}

// submit runs fn on the loop and bounds the wait by the request context.
func (s *Server) submit(ctx context.Context, fn func()) error {
	return s.loop.Submit(ctx, fn)
}

func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.New("R212").WithDetail("Cannot read the request body.").Wrap(err)
	}
	if !json.Valid(data) {
		return nil, errors.New("R212").WithDetail("The request body is not valid JSON.")
	}
	return data, nil
}

// writeError writes err as a JSON error with a status derived from its
// code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := errors.FromError(err, "R201")
	status := http.StatusInternalServerError
	switch e.Code {
	case "R210":
		status = http.StatusNotFound
	case "R211":
		status = http.StatusMethodNotAllowed
	case "R212":
		status = http.StatusBadRequest
	case "R213":
		status = http.StatusUnprocessableEntity
	case "R004":
		status = http.StatusServiceUnavailable
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		s.logger.Warn("inspect: request failed", "error", err)
	}
	writeJSON(w, status, map[string]any{"error": e})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
