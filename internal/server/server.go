// Package server implements the collection service: token issuance and
// validation for the identity collaborator, report collection, and the
// last-report read endpoint used for inspection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/decktrace/decktrace/internal/util/logger"
)

// Config configures the collection service.
type Config struct {
	Port         int           `yaml:"port"`
	DatabasePath string        `yaml:"database_path"`
	AllowOrigin  string        `yaml:"allow_origin"`
	Redis        RedisConfig   `yaml:"redis"`
	Kafka        KafkaConfig   `yaml:"kafka"`
	Logger       logger.Config `yaml:"logger"`
}

// RedisConfig configures the optional token-validation cache.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Server holds the collection service's collaborators.
type Server struct {
	store     *Store
	cache     *TokenCache
	publisher *ReportPublisher
	origin    string
}

// New assembles a server around its store and optional collaborators.
func New(store *Store, cache *TokenCache, publisher *ReportPublisher, allowOrigin string) *Server {
	return &Server{store: store, cache: cache, publisher: publisher, origin: allowOrigin}
}

// Router builds the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer, chimw.Timeout(10*time.Second))
	r.Use(s.cors)

	r.Post("/api/tracking", s.handleTracking)
	r.Post("/api/authentication/validate-token", s.handleValidateToken)
	r.Post("/api/authentication/generate-token", s.handleGenerateToken)
	r.Options("/api/tracking", s.handlePreflight)
	r.Options("/api/authentication/validate-token", s.handlePreflight)
	r.Options("/api/authentication/generate-token", s.handlePreflight)

	r.Get("/last-tracked", s.handleLastTracked)
	r.Get("/last-tracked/{user_token}", s.handleLastTracked)

	return r
}

// cors sets the cross-origin headers on every response; preflight
// requests are answered separately with 204 and no content.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.origin
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "content-type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	var envelope struct {
		UserToken string `json:"userToken"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed report")
		return
	}

	if err := s.store.SaveSession(r.Context(), envelope.UserToken, body); err != nil {
		logger.Errorf("collector: saving session failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	s.publisher.Publish(envelope.UserToken, body)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserToken string `json:"user_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request")
		return
	}

	valid := s.cache.Known(r.Context(), req.UserToken)
	if !valid {
		var err error
		valid, err = s.store.IdentityExists(r.Context(), req.UserToken)
		if err != nil {
			logger.Errorf("collector: identity lookup failed: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "storage failure")
			return
		}
		if valid {
			s.cache.Remember(r.Context(), req.UserToken)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (s *Server) handleGenerateToken(w http.ResponseWriter, r *http.Request) {
	token := uuid.NewString()
	if err := s.store.CreateIdentity(r.Context(), token); err != nil {
		logger.Errorf("collector: issuing token failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.cache.Remember(r.Context(), token)
	writeJSON(w, http.StatusOK, map[string]string{"user_token": token})
}

func (s *Server) handleLastTracked(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "user_token")

	body, err := s.store.LastSession(r.Context(), token)
	if errors.Is(err, ErrNoSessions) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Errorf("collector: last session lookup failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}
