package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// FakeGitHub is an in-memory stand-in for the slice of the GitHub REST API
// the publish flow touches. State accumulates across calls so tests can
// assert on the branch, the committed file, and the opened pull request.
type FakeGitHub struct {
	Server *httptest.Server

	mu       sync.Mutex
	branches map[string]string
	files    map[string]ghFile
	pulls    []ghPull
	commits  int
}

type ghFile struct {
	Content []byte
	SHA     string
}

type ghPull struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      ghUser    `json:"user"`
	Head      ghRef     `json:"head"`
	Base      ghRef     `json:"base"`
}

type ghUser struct {
	Login string `json:"login"`
}

type ghRef struct {
	Ref string `json:"ref"`
}

// NewFakeGitHub starts the fake with one repository whose default branch
// "main" points at a fixed base commit.
func NewFakeGitHub(t *testing.T) *FakeGitHub {
	t.Helper()

	f := &FakeGitHub{
		branches: map[string]string{"main": "base-0001"},
		files:    make(map[string]ghFile),
	}

	mux := chi.NewRouter()
	mux.Get("/repos/{owner}/{repo}", f.handleRepo)
	mux.Get("/repos/{owner}/{repo}/git/ref/*", f.handleGetRef)
	mux.Post("/repos/{owner}/{repo}/git/refs", f.handleCreateRef)
	mux.Get("/repos/{owner}/{repo}/contents/*", f.handleGetContents)
	mux.Put("/repos/{owner}/{repo}/contents/*", f.handlePutContents)
	mux.Get("/repos/{owner}/{repo}/pulls", f.handleListPulls)
	mux.Post("/repos/{owner}/{repo}/pulls", f.handleCreatePull)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Branch returns the commit SHA the branch points at.
func (f *FakeGitHub) Branch(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.branches[name]
	return sha, ok
}

// File returns the committed content at path.
func (f *FakeGitHub) File(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[path]
	return file.Content, ok
}

// PullCount reports how many pull requests have been opened.
func (f *FakeGitHub) PullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pulls)
}

// knownRepo guards every route: only the suite's repository exists.
func (f *FakeGitHub) knownRepo(w http.ResponseWriter, r *http.Request) bool {
	if chi.URLParam(r, "owner")+"/"+chi.URLParam(r, "repo") != githubRepo {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return false
	}
	return true
}

func (f *FakeGitHub) handleRepo(w http.ResponseWriter, r *http.Request) {
	if !f.knownRepo(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":           chi.URLParam(r, "repo"),
		"full_name":      githubRepo,
		"default_branch": "main",
		"private":        true,
	})
}

func (f *FakeGitHub) handleGetRef(w http.ResponseWriter, r *http.Request) {
	if !f.knownRepo(w, r) {
		return
	}
	name := strings.TrimPrefix(chi.URLParam(r, "*"), "heads/")

	f.mu.Lock()
	sha, ok := f.branches[name]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, refResponse(name, sha))
}

func (f *FakeGitHub) handleCreateRef(w http.ResponseWriter, r *http.Request) {
	if !f.knownRepo(w, r) {
		return
	}
	var req struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	name := strings.TrimPrefix(req.Ref, "refs/heads/")

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.branches[name]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Reference already exists"})
		return
	}
	f.branches[name] = req.SHA
	writeJSON(w, http.StatusCreated, refResponse(name, req.SHA))
}

func (f *FakeGitHub) handleGetContents(w http.ResponseWriter, r *http.Request) {
	if !f.knownRepo(w, r) {
		return
	}
	path := chi.URLParam(r, "*")

	f.mu.Lock()
	file, ok := f.files[path]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"type": "file",
		"path": path,
		"sha":  file.SHA,
	})
}

func (f *FakeGitHub) handlePutContents(w http.ResponseWriter, r *http.Request) {
	if !f.knownRepo(w, r) {
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
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	commitSHA := fmt.Sprintf("commit-%04d", f.commits)
	f.files[path] = ghFile{Content: req.Content, SHA: fmt.Sprintf("blob-%04d", f.commits)}
	if req.Branch != "" {
		f.branches[req.Branch] = commitSHA
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"content": map[string]string{"path": path},
		"commit":  map[string]string{"sha": commitSHA},
	})
}

func (f *FakeGitHub) handleCreatePull(w http.ResponseWriter, r *http.Request) {
	if !f.knownRepo(w, r) {
		return
	}
	var req struct {
		Title string `json:"title"`
		Head  string `json:"head"`
		Base  string `json:"base"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	pull := ghPull{
		Number:    len(f.pulls) + 1,
		Title:     req.Title,
		Body:      req.Body,
		State:     "open",
		HTMLURL:   fmt.Sprintf("https://github.com/%s/pull/%d", githubRepo, len(f.pulls)+1),
		CreatedAt: now,
		UpdatedAt: now,
		User:      ghUser{Login: adminUser},
		Head:      ghRef{Ref: req.Head},
		Base:      ghRef{Ref: req.Base},
	}
	f.pulls = append(f.pulls, pull)
	writeJSON(w, http.StatusCreated, pull)
}

func (f *FakeGitHub) handleListPulls(w http.ResponseWriter, r *http.Request) {
	if !f.knownRepo(w, r) {
		return
	}
	state := r.URL.Query().Get("state")

	f.mu.Lock()
	defer f.mu.Unlock()
	listed := make([]ghPull, 0, len(f.pulls))
	for _, p := range f.pulls {
		if state == "" || state == "all" || p.State == state {
			listed = append(listed, p)
		}
	}
	writeJSON(w, http.StatusOK, listed)
}

func refResponse(name, sha string) map[string]any {
	return map[string]any{
		"ref":    "refs/heads/" + name,
		"object": map[string]string{"sha": sha, "type": "commit"},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// FakeOrbit fakes the Orbit LOB API surface the proxy calls: connection
// verification and the two registration endpoints. Every route checks the
// X-API-Key header the way the platform does.
type FakeOrbit struct {
	Server *httptest.Server

	mu      sync.Mutex
	schemas int
	defs    int
}

// NewFakeOrbit starts the fake. It accepts any lob id as long as the API key
// matches orbitAPIKey.
func NewFakeOrbit(t *testing.T) *FakeOrbit {
	t.Helper()

	f := &FakeOrbit{}
	mux := chi.NewRouter()
	mux.Get("/api/lob/{lobID}", f.handleLob)
	mux.Post("/api/lob/{lobID}/schemas", f.handleRegisterSchema)
	mux.Post("/api/lob/{lobID}/credential-definitions", f.handleRegisterCredDef)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// SchemaCount reports how many schema registrations the fake accepted.
func (f *FakeOrbit) SchemaCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schemas
}

func (f *FakeOrbit) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-API-Key") != orbitAPIKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid api key"})
		return false
	}
	return true
}

func (f *FakeOrbit) handleLob(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"lobId":  chi.URLParam(r, "lobID"),
		"name":   "E2E Line of Business",
		"status": "active",
	})
}

func (f *FakeOrbit) handleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	if !decodeOrbitDocument(w, r) {
		return
	}

	f.mu.Lock()
	f.schemas++
	n := f.schemas
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{
		"schemaId":     fmt.Sprintf("sch-%d", n),
		"registeredAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (f *FakeOrbit) handleRegisterCredDef(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	if !decodeOrbitDocument(w, r) {
		return
	}

	f.mu.Lock()
	f.defs++
	n := f.defs
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{
		"credDefId": fmt.Sprintf("cd-%d", n),
	})
}

func decodeOrbitDocument(w http.ResponseWriter, r *http.Request) bool {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "body must be a JSON object"})
		return false
	}
	return true
}
