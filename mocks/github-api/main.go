// Mock GitHub REST API for local development. It implements just enough of
// the endpoints the publish flow uses (repo metadata, git refs, contents,
// pull requests) to run the editor end to end without a token or network.
// State is in-memory and resets on restart.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPort   = "8092"
	defaultRepo   = "acme/governance"
	defaultBranch = "main"
)

type fileEntry struct {
	Content []byte
	SHA     string
}

type pull struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	HTMLURL   string    `json:"html_url"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	Head      ref       `json:"head"`
	Base      ref       `json:"base"`
}

type ref struct {
	Ref string `json:"ref"`
}

type repoState struct {
	mu       sync.Mutex
	branches map[string]string
	files    map[string]fileEntry
	pulls    []pull
	commits  int
}

var (
	repoFull = getEnv("GITHUB_MOCK_REPO", defaultRepo)
	state    = &repoState{
		branches: map[string]string{defaultBranch: "base-0001"},
		files:    map[string]fileEntry{},
	}
)

func main() {
	port := getEnv("GITHUB_MOCK_PORT", defaultPort)

	mux := chi.NewRouter()
	mux.Get("/repos/{owner}/{repo}", handleRepo)
	mux.Get("/repos/{owner}/{repo}/git/ref/*", handleGetRef)
	mux.Post("/repos/{owner}/{repo}/git/refs", handleCreateRef)
	mux.Get("/repos/{owner}/{repo}/contents/*", handleGetContents)
	mux.Put("/repos/{owner}/{repo}/contents/*", handlePutContents)
	mux.Get("/repos/{owner}/{repo}/pulls", handleListPulls)
	mux.Post("/repos/{owner}/{repo}/pulls", handleCreatePull)

	log.Printf("mock github api listening on port %s", port)
	log.Printf("serving repository %s with default branch %s", repoFull, defaultBranch)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}

// knownRepo rejects every owner/name pair except the configured one, matching
// how the real API 404s on repositories the token cannot see.
func knownRepo(w http.ResponseWriter, r *http.Request) bool {
	full := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")
	if full != repoFull {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return false
	}
	return true
}

func handleRepo(w http.ResponseWriter, r *http.Request) {
	if !knownRepo(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":           chi.URLParam(r, "repo"),
		"full_name":      repoFull,
		"default_branch": defaultBranch,
	})
}

func handleGetRef(w http.ResponseWriter, r *http.Request) {
	if !knownRepo(w, r) {
		return
	}
	branch := strings.TrimPrefix(chi.URLParam(r, "*"), "heads/")

	state.mu.Lock()
	sha, ok := state.branches[branch]
	state.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ref":    "refs/heads/" + branch,
		"object": map[string]string{"sha": sha, "type": "commit"},
	})
}

func handleCreateRef(w http.ResponseWriter, r *http.Request) {
	if !knownRepo(w, r) {
		return
	}
	var req struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	branch := strings.TrimPrefix(req.Ref, "refs/heads/")

	state.mu.Lock()
	state.branches[branch] = req.SHA
	state.mu.Unlock()

	log.Printf("created branch %s at %s", branch, req.SHA)
	writeJSON(w, http.StatusCreated, map[string]any{
		"ref":    req.Ref,
		"object": map[string]string{"sha": req.SHA, "type": "commit"},
	})
}

func handleGetContents(w http.ResponseWriter, r *http.Request) {
	if !knownRepo(w, r) {
		return
	}
	path := chi.URLParam(r, "*")

	state.mu.Lock()
	entry, ok := state.files[path]
	state.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":     "file",
		"path":     path,
		"sha":      entry.SHA,
		"encoding": "base64",
		"content":  entry.Content,
	})
}

func handlePutContents(w http.ResponseWriter, r *http.Request) {
	if !knownRepo(w, r) {
		return
	}
	path := chi.URLParam(r, "*")
	var req struct {
		Message string `json:"message"`
		Content []byte `json:"content"`
		Branch  string `json:"branch"`
		SHA     string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	state.mu.Lock()
	state.commits++
	commitSHA := fmt.Sprintf("commit-%04d", state.commits)
	fileSHA := fmt.Sprintf("blob-%04d", state.commits)
	state.files[path] = fileEntry{Content: req.Content, SHA: fileSHA}
	if req.Branch != "" {
		state.branches[req.Branch] = commitSHA
	}
	state.mu.Unlock()

	log.Printf("committed %s to %s (%s)", path, req.Branch, commitSHA)
	writeJSON(w, http.StatusCreated, map[string]any{
		"content": map[string]string{"path": path, "sha": fileSHA},
		"commit":  map[string]string{"sha": commitSHA, "message": req.Message},
	})
}

func handleListPulls(w http.ResponseWriter, r *http.Request) {
	if !knownRepo(w, r) {
		return
	}
	state.mu.Lock()
	pulls := make([]pull, len(state.pulls))
	copy(pulls, state.pulls)
	state.mu.Unlock()

	writeJSON(w, http.StatusOK, pulls)
}

func handleCreatePull(w http.ResponseWriter, r *http.Request) {
	if !knownRepo(w, r) {
		return
	}
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	state.mu.Lock()
	number := len(state.pulls) + 1
	p := pull{
		Number:    number,
		Title:     req.Title,
		Body:      req.Body,
		HTMLURL:   fmt.Sprintf("http://localhost/%s/pull/%d", repoFull, number),
		State:     "open",
		CreatedAt: time.Now().UTC(),
		Head:      ref{Ref: req.Head},
		Base:      ref{Ref: req.Base},
	}
	state.pulls = append(state.pulls, p)
	state.mu.Unlock()

	log.Printf("opened pull request #%d: %s", number, req.Title)
	writeJSON(w, http.StatusCreated, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
