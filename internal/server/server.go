// Package server exposes the import pipeline, the stored tables and
// the analysis features over a JSON HTTP API. Handlers decode and
// validate their input, call into the storage and pipeline packages,
// and map domain errors onto HTTP status codes.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	sheetsql "github.com/lakshminarasimha6802/sheetsql"
	"github.com/lakshminarasimha6802/sheetsql/domain/model"
	"github.com/lakshminarasimha6802/sheetsql/internal/anomaly"
	"github.com/lakshminarasimha6802/sheetsql/internal/artifact"
	"github.com/lakshminarasimha6802/sheetsql/internal/config"
	"github.com/lakshminarasimha6802/sheetsql/internal/export"
	"github.com/lakshminarasimha6802/sheetsql/internal/logging"
	"github.com/lakshminarasimha6802/sheetsql/internal/manifest"
	"github.com/lakshminarasimha6802/sheetsql/internal/metrics"
	"github.com/lakshminarasimha6802/sheetsql/internal/storage"
)

// Server wires the HTTP API together. Populate the exported fields and
// call Handler once; Detector and Metrics fall back to the isolation
// forest and the nop backend when left nil.
type Server struct {
	Config    config.Config
	Store     *storage.Store
	Artifacts *artifact.Store
	Uploads   *manifest.Manager
	Detector  anomaly.Detector
	Metrics   metrics.Backend

	sessions *sessions.CookieStore
}

// Handler builds the router. Everything under /api except the auth
// endpoints requires a signed-in user.
func (s *Server) Handler() http.Handler {
	if s.Detector == nil {
		s.Detector = anomaly.NewIsolationForest()
	}
	if s.Metrics == nil {
		s.Metrics = metrics.Nop{}
	}
	if s.Config.MaxUploadBytes <= 0 {
		s.Config.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if s.Config.PreviewRows <= 0 {
		s.Config.PreviewRows = config.DefaultPreviewRows
	}
	if s.Config.ArtifactTTL <= 0 {
		s.Config.ArtifactTTL = config.DefaultArtifactTTL
	}
	s.sessions = newSessionStore(s.Config.SessionSecret)

	r := chi.NewRouter()
	r.Use(logging.CombinedMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", s.handleRegister)
			ar.Post("/login", s.handleLogin)
			ar.Post("/logout", s.handleLogout)
			ar.With(s.requireUser).Get("/me", s.handleMe)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(s.requireUser)

			pr.Post("/uploads", s.handleUpload)
			pr.Get("/uploads", s.handleListUploads)
			pr.Get("/uploads/{id}/sheets", s.handleUploadSheets)
			pr.Post("/uploads/{id}/ingest", s.handleIngest)
			pr.Delete("/uploads/{id}", s.handleDeleteUpload)

			pr.Post("/import", s.handleImport)

			pr.Get("/tables", s.handleTables)
			pr.Get("/tables/{table}/rows", s.handleRows)
			pr.Delete("/tables/{table}", s.handleDropTable)
			pr.Get("/tables/{table}/export", s.handleExport)
			pr.Get("/tables/{table}/insights", s.handleInsights)
			pr.Get("/tables/{table}/anomalies", s.handleAnomalies)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// newSessionStore builds the cookie store. Without a configured secret
// the key is random, so sessions do not survive a restart.
func newSessionStore(secret string) *sessions.CookieStore {
	key := []byte(secret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			logging.Error("session key generation failed, using process-local fallback")
			key = fmt.Appendf(nil, "sheetsql-%d-%d", os.Getpid(), time.Now().UnixNano())
		} else {
			logging.Warn("no session secret configured, sessions will not survive restarts")
		}
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// metricsMiddleware counts requests and samples handler latency.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := metrics.Labels{
			"method": r.Method,
			"status": strconv.Itoa(status),
		}
		s.Metrics.IncCounter(metrics.MetricHTTPRequestsTotal, 1, labels)
		s.Metrics.ObserveHistogram(metrics.MetricHTTPRequestDuration, time.Since(start).Seconds(), labels)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps a domain error onto a status code. Server faults
// are logged and reported without detail.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	msg := err.Error()
	if errors.Is(err, artifact.ErrArtifactNotFound) {
		msg = "staged import is gone, upload the file again"
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondErrorMsg rejects a request with a handler-chosen message.
func (s *Server) respondErrorMsg(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// statusFor picks the status code for a domain error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrTableNotFound),
		errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, manifest.ErrUploadNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrReservedTable),
		errors.Is(err, storage.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, artifact.ErrArtifactNotFound):
		return http.StatusGone
	case errors.Is(err, storage.ErrInvalidTableName),
		errors.Is(err, storage.ErrColumnMismatch),
		errors.Is(err, manifest.ErrUnsupportedFile),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, export.ErrUnsupportedCompression),
		errors.Is(err, sheetsql.ErrUnsupportedFormat),
		errors.Is(err, sheetsql.ErrEmptyData),
		errors.Is(err, sheetsql.ErrSheetNotFound),
		errors.Is(err, sheetsql.ErrNotWorkbook),
		errors.Is(err, model.ErrEmptyTable),
		errors.Is(err, model.ErrColumnCountMismatch),
		errors.Is(err, http.ErrMissingFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a request body into dst. An empty body leaves dst
// untouched, for endpoints whose fields are all optional.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// intQuery parses an integer query parameter, falling back to def when
// the parameter is absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}
