package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smukkama/city-analytics/internal/analytics"
	"github.com/smukkama/city-analytics/internal/filters"
	"github.com/smukkama/city-analytics/internal/observability"
	"github.com/smukkama/city-analytics/internal/protocol"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// Analyzer computes analytics responses
type Analyzer interface {
	Reference() time.Time
	Run(ctx context.Context, f filters.Filters, reference time.Time) (*analytics.Response, error)
}

// ResponseCache stores responses by filters and reference. Get returns
// nil without error on a miss.
type ResponseCache interface {
	Get(ctx context.Context, f filters.Filters, reference time.Time) (*analytics.Response, error)
	Set(ctx context.Context, f filters.Filters, reference time.Time, resp *analytics.Response) error
}

// AlertPublisher forwards raised alerts downstream
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []*protocol.AlertMessage) error
}

// ReadinessChecker reports whether the store is reachable
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Config holds the server's settings and collaborators. Cache, Publisher
// and Ready are optional.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	Environment  string
	Database     string

	Engine    Analyzer
	Cache     ResponseCache
	Publisher AlertPublisher
	Ready     ReadinessChecker
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	Clock     clockwork.Clock
}

// Server exposes the analytics, health and metrics endpoints
type Server struct {
	cfg        Config
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the HTTP server and its routes
func NewServer(cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewMetricsForTesting()
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}

	r := mux.NewRouter()
	r.HandleFunc("/api/data/analytics", s.handleAnalytics).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/ready", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	var h http.Handler = r
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.logger}), handlers.PrintRecoveryStack(false))(h)
	h = handlers.CORS(
		handlers.AllowedOrigins(originsOrAny(cfg.CORSOrigins)),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)(h)
	h = requestID(h)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Info("http request",
		"request_id", p.Request.Header.Get(RequestIDHeader),
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"bytes", p.Size,
		"duration", time.Since(p.TimeStamp),
	)
}

type requestIDKey struct{}

// requestID assigns every request an id, reusing a caller supplied one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFrom returns the id assigned to the request carrying ctx
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("panic while serving request", "panic", v)
}

func originsOrAny(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
