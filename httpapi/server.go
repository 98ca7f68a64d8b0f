// Package httpapi serves the record adapter over HTTP with a chi router.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nisimpson/dynarec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// TableDescriber reports table status for the health check.
type TableDescriber interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Options configures a Server.
type Options struct {
	Logger         *zap.Logger           // Request logger. Default is a no-op logger.
	RequestTimeout time.Duration         // Per-request deadline. Zero disables it.
	AllowedOrigins []string              // CORS origins. Default is all origins.
	Registerer     prometheus.Registerer // Metrics registry. Default is a fresh registry.
	Gatherer       prometheus.Gatherer   // Served on /metrics. Must match Registerer.
}

// Server routes HTTP requests to the adapter.
type Server struct {
	adapter *dynarec.Adapter
	health  TableDescriber
	logger  *zap.Logger
	metrics *metrics
	router  *chi.Mux
	now     func() time.Time
}

// New creates a Server. health may be nil, in which case /health reports the
// service without checking the table.
func New(adapter *dynarec.Adapter, health TableDescriber, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registerer == nil {
		reg := prometheus.NewRegistry()
		opts.Registerer, opts.Gatherer = reg, reg
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		adapter: adapter,
		health:  health,
		logger:  opts.Logger,
		metrics: newMetrics(opts.Registerer),
		now:     time.Now,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.metrics.middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.healthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/records", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(opts.RequestTimeout))
		}
		r.Post("/", s.createRecord)
		r.Get("/{title}", s.getRecord)
		r.Patch("/{title}", s.updateRecord)
		r.Delete("/{title}", s.deleteRecord)
	})

	s.router = r
	return s
}

// Router returns the configured router, e.g. for the Lambda proxy adapter.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var req dynarec.CreateRequest
	if !decodeBody(w, r, dynarec.OpCreate, &req) {
		return
	}

	rec, err := s.adapter.Create(r.Context(), req)
	writeEnvelope(w, dynarec.NewResponse(rec, err))
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.adapter.Read(r.Context(), dynarec.ReadRequest{Key: pathKey(r)})
	writeEnvelope(w, dynarec.NewResponse(rec, err))
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	var req dynarec.UpdateRequest
	if !decodeBody(w, r, dynarec.OpUpdate, &req) {
		return
	}
	req.Key = pathKey(r)

	rec, err := s.adapter.Update(r.Context(), req)
	writeEnvelope(w, dynarec.NewResponse(rec, err))
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	req := dynarec.DeleteRequest{
		Key:       pathKey(r),
		Partition: r.URL.Query().Get("year"),
	}

	rec, err := s.adapter.Delete(r.Context(), req)
	writeEnvelope(w, dynarec.NewResponse(rec, err))
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Table     string `json:"table"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	table := s.adapter.Table().TableName
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "unchecked",
		Table:     table,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if s.health != nil {
		out, err := s.health.DescribeTable(r.Context(), &dynamodb.DescribeTableInput{TableName: aws.String(table)})
		switch {
		case err != nil:
			s.logger.Warn("health check failed", zap.String("table", table), zap.Error(err))
			resp.Status, resp.Database, resp.Error = "unhealthy", "disconnected", err.Error()
			status = http.StatusServiceUnavailable
		case out.Table == nil:
			resp.Status, resp.Database = "unhealthy", "unknown"
			status = http.StatusServiceUnavailable
		default:
			resp.Database = string(out.Table.TableStatus)
		}
	}

	writeJSON(w, status, resp)
}

// pathKey returns the decoded {title} segment. chi matches on RawPath when
// it is set, leaving the segment escaped; otherwise the segment is already
// decoded and must not be unescaped again.
func pathKey(r *http.Request) string {
	key := chi.URLParam(r, "title")
	if r.URL.RawPath == "" {
		return key
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}

// decodeBody decodes the JSON request body into v. On failure it writes a 400
// envelope and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeEnvelope(w, dynarec.NewResponse(nil, &dynarec.Error{
			Op:   op,
			Kind: dynarec.KindValidation,
			Err:  fmt.Errorf("invalid request body: %w", err),
		}))
		return false
	}
	return true
}

func writeEnvelope(w http.ResponseWriter, resp dynarec.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	writeJSON(w, resp.StatusCode, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", dynarec.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
