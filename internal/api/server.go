package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kathyli05/kathboard/internal/metrics"
	"github.com/kathyli05/kathboard/internal/models"
	"github.com/kathyli05/kathboard/internal/storage"
)

const maxBodyBytes = 1 << 20

// Store is the subset of storage.Store the API needs.
type Store interface {
	ListFriends(ctx context.Context, filter models.FriendFilter) ([]models.Friend, error)
	CreateFriend(ctx context.Context, name string, fields map[string]any) (string, error)
	GetFriend(ctx context.Context, id string) (*models.Friend, error)
	UpdateFriend(ctx context.Context, id string, fields map[string]any) error
	DeleteFriend(ctx context.Context, id string) error

	GetAttributes(ctx context.Context, friendID string) ([]models.Attribute, error)
	SetAttribute(ctx context.Context, friendID, key string, value *string) (*models.Attribute, error)
	DeleteAttribute(ctx context.Context, friendID, key string) error
	ListAttributeKeys(ctx context.Context) ([]string, error)

	ListNotes(ctx context.Context, friendID string) ([]models.Note, error)
	CreateNote(ctx context.Context, friendID string, in models.NoteInput) (string, error)
	UpdateNote(ctx context.Context, id string, u models.NoteUpdate) error
	DeleteNote(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// Server is the REST front end of the store.
type Server struct {
	store   Store
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	origins []string
	mux     *http.ServeMux
}

// New builds the API. m may be nil to disable metrics.
func New(store Store, log logrus.FieldLogger, m *metrics.Metrics, corsOrigins []string) *Server {
	s := &Server{
		store:   store,
		log:     log,
		metrics: m,
		origins: corsOrigins,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("GET /api/friends", s.handleListFriends)
	s.mux.HandleFunc("POST /api/friends", s.handleCreateFriend)
	s.mux.HandleFunc("GET /api/friends/{id}", s.handleGetFriend)
	s.mux.HandleFunc("PUT /api/friends/{id}", s.handleUpdateFriend)
	s.mux.HandleFunc("DELETE /api/friends/{id}", s.handleDeleteFriend)

	s.mux.HandleFunc("GET /api/friends/{id}/attributes", s.handleListAttributes)
	s.mux.HandleFunc("POST /api/friends/{id}/attributes", s.handleSetAttribute)
	s.mux.HandleFunc("DELETE /api/friends/{id}/attributes/{key...}", s.handleDeleteAttribute)
	s.mux.HandleFunc("GET /api/attribute-keys", s.handleAttributeKeys)

	s.mux.HandleFunc("GET /api/friends/{id}/notes", s.handleListNotes)
	s.mux.HandleFunc("POST /api/friends/{id}/notes", s.handleCreateNote)
	s.mux.HandleFunc("PUT /api/notes/{id}", s.handleUpdateNote)
	s.mux.HandleFunc("DELETE /api/notes/{id}", s.handleDeleteNote)
}

// Handler returns the routed handler wrapped in CORS, logging and metrics.
func (s *Server) Handler() http.Handler {
	return s.observe(s.cors(s.mux))
}

// --- Middleware ---

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if s.metrics != nil {
			s.metrics.RequestsInFlight.Inc()
			defer s.metrics.RequestsInFlight.Dec()
		}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.Observe(route, rec.status, elapsed)
		}
		s.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       route,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("http request")
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowOrigin(origin) {
			h := w.Header()
			if slices.Contains(s.origins, "*") {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) bool {
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store errors onto HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *storage.ValidationError
	var nf *storage.NotFoundError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	default:
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
