package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/DocFlow/internal/config"
	"github.com/dharsanguruparan/DocFlow/internal/document"
	"github.com/dharsanguruparan/DocFlow/internal/model"
	"github.com/dharsanguruparan/DocFlow/internal/query"
	"github.com/dharsanguruparan/DocFlow/internal/roles"
)

// Server exposes the lifecycle engine, the query service and the role catalog
// over HTTP.
type Server struct {
	address   string
	prefix    string
	maxUpload int64
	engine    *document.Engine
	query     *query.Service
	roles     *roles.Service
	log       *zap.Logger
	router    *mux.Router
}

// New constructs a Server and registers its routes.
func New(cfg *config.Config, engine *document.Engine, q *query.Service, r *roles.Service, log *zap.Logger) *Server {
	s := &Server{
		address:   cfg.Address,
		prefix:    cfg.DownloadPrefix,
		maxUpload: cfg.MaxUploadBytes,
		engine:    engine,
		query:     q,
		roles:     r,
		log:       log.With(zap.String("component", "http")),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc(s.prefix+"{id}", s.handleDownload).Methods(http.MethodGet, http.MethodHead)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/documents", s.handleListOwn).Methods(http.MethodGet)
	api.HandleFunc("/documents", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id:[0-9]+}", s.handleGetOwn).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id:[0-9]+}/save", s.handleEditDraft(false)).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id:[0-9]+}/submit", s.handleEditDraft(true)).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id:[0-9]+}/approve", s.handleApprove).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id:[0-9]+}/reject", s.handleReject).Methods(http.MethodPut)
	api.HandleFunc("/review", s.handleReview).Methods(http.MethodGet)
	api.HandleFunc("/statistics", s.handleStatistics).Methods(http.MethodGet)
	api.HandleFunc("/statistics/top-authors", s.handleTopAuthors).Methods(http.MethodGet)
	api.HandleFunc("/roles", s.handleListRoles).Methods(http.MethodGet)
	api.HandleFunc("/roles/{name}", s.handleGetRole).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.Use(s.loggingMiddleware)
	s.router = router
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", zap.String("address", s.address))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidAttachmentName), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err using the error envelope. Server-side failures are logged
// and their text is not echoed to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	text := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		text = "internal error"
	}
	respondError(w, status, text)
}

type errorBody struct {
	Error struct {
		Code int    `json:"code"`
		Text string `json:"text"`
	} `json:"error"`
}

func respondError(w http.ResponseWriter, status int, text string) {
	var body errorBody
	body.Error.Code = status
	body.Error.Text = text
	respondJSON(w, status, body)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
