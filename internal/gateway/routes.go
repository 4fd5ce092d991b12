package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/impertio/talkbridge/internal/metrics"
	"github.com/impertio/talkbridge/internal/talk"
	"github.com/impertio/talkbridge/internal/version"
)

// maxWebhookBytes bounds inbound webhook bodies. Talk messages are small;
// anything larger is not a chat message.
const maxWebhookBytes = 1 << 20

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook/{username}", s.handleWebhook)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("/", handleNotFound)
}

// handleRoot is an unauthenticated liveness probe with a constant body.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"service": "talkbridge"})
}

// handleWebhook reads one Talk delivery, dispatches it and writes the
// outcome. Responses for authenticated deliveries are signed so the
// caller can verify them.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unreadable body"})
		return
	}

	res := s.dispatcher.Handle(r.Context(), username, r.Header, body)

	payload, err := json.Marshal(res.Body)
	if err != nil {
		s.log.Error().Err(err).Msg("encoding webhook response failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if res.Secret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		w.Header().Set(talk.HeaderTimestamp, ts)
		w.Header().Set(talk.HeaderSignature, talk.Sign(res.Secret, ts, payload))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	w.Write(payload)
}

// handleHealth reports liveness. Only status and version are exposed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
