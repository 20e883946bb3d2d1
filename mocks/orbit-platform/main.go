// Mock Orbit platform API for local development and e2e tests. It implements
// the LOB endpoints the backend proxies to: connection lookup, schema
// registration, and credential definition registration.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPort      = "8091"
	defaultAPIKey    = "orbit-dev-key"
	defaultLatencyMs = "50"
)

var (
	apiKey    = getEnv("ORBIT_MOCK_API_KEY", defaultAPIKey)
	latencyMs = getEnvInt("ORBIT_MOCK_LATENCY_MS", defaultLatencyMs)

	schemaSeq  atomic.Int64
	credDefSeq atomic.Int64
)

type errorResponse struct {
	Message string `json:"message"`
}

func main() {
	port := getEnv("ORBIT_MOCK_PORT", defaultPort)

	mux := chi.NewRouter()
	mux.Get("/health", handleHealth)
	mux.Get("/api/lob/{lobId}", handleLobLookup)
	mux.Post("/api/lob/{lobId}/schemas", handleRegisterSchema)
	mux.Post("/api/lob/{lobId}/credential-definitions", handleRegisterCredDef)

	log.Printf("mock orbit platform listening on port %s", port)
	log.Printf("api key: %s", apiKey)
	log.Printf("simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "orbit-platform",
	})
}

// handleLobLookup answers the connection check. The magic lobId "suspended"
// returns 403 so tests can exercise the rejected-connection path without
// touching the key.
func handleLobLookup(w http.ResponseWriter, r *http.Request) {
	simulateLatency()
	if !authorized(w, r) {
		return
	}

	lobID := chi.URLParam(r, "lobId")
	if lobID == "suspended" {
		writeJSON(w, http.StatusForbidden, errorResponse{Message: "lob is suspended"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lobId":  lobID,
		"name":   "Mock LOB " + lobID,
		"status": "active",
	})
}

func handleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	simulateLatency()
	if !authorized(w, r) {
		return
	}

	payload, ok := readDocument(w, r)
	if !ok {
		return
	}
	if name, _ := payload["name"].(string); name == "reject-me" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: "schema rejected by policy"})
		return
	}

	id := fmt.Sprintf("sch-%d", schemaSeq.Add(1))
	log.Printf("registered schema %s for lob %s", id, r.PathValue("lobId"))
	writeJSON(w, http.StatusCreated, map[string]any{
		"schemaId":     id,
		"registeredAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func handleRegisterCredDef(w http.ResponseWriter, r *http.Request) {
	simulateLatency()
	if !authorized(w, r) {
		return
	}

	if _, ok := readDocument(w, r); !ok {
		return
	}

	id := fmt.Sprintf("cd-%d", credDefSeq.Add(1))
	log.Printf("registered credential definition %s for lob %s", id, r.PathValue("lobId"))
	writeJSON(w, http.StatusCreated, map[string]any{
		"credDefId":    id,
		"registeredAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-API-Key") != apiKey {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "invalid api key"})
		return false
	}
	return true
}

func readDocument(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "unreadable body"})
		return nil, false
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "body must be a JSON object"})
		return nil, false
	}
	return payload, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func simulateLatency() {
	if latencyMs > 0 {
		time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key, fallback string) int {
	v := getEnv(key, fallback)
	n, err := strconv.Atoi(v)
	if err != nil {
		n, _ = strconv.Atoi(fallback)
	}
	return n
}
