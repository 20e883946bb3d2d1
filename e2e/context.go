// Package e2e exercises the assembled server over real HTTP: file stores in
// a temp directory, the full middleware stack, and httptest stand-ins for
// the GitHub and Orbit APIs. The tests walk the flows the editor drives.
package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	assethandler "badgeforge/internal/asset/handler"
	assetservice "badgeforge/internal/asset/service"
	assetstore "badgeforge/internal/asset/store"
	"badgeforge/internal/audit"
	audithandler "badgeforge/internal/audit/handler"
	authhandler "badgeforge/internal/auth/handler"
	authservice "badgeforge/internal/auth/service"
	"badgeforge/internal/auth/store/lockout"
	"badgeforge/internal/auth/store/session"
	badgehandler "badgeforge/internal/badge/handler"
	badgeservice "badgeforge/internal/badge/service"
	badgestore "badgeforge/internal/badge/store"
	jwttoken "badgeforge/internal/jwt_token"
	layouthandler "badgeforge/internal/layout/handler"
	layoutservice "badgeforge/internal/layout/service"
	layoutstore "badgeforge/internal/layout/store"
	orbitclient "badgeforge/internal/orbit/client"
	orbithandler "badgeforge/internal/orbit/handler"
	orbitmodels "badgeforge/internal/orbit/models"
	orbitservice "badgeforge/internal/orbit/service"
	orbitstore "badgeforge/internal/orbit/store"
	"badgeforge/internal/platform/health"
	"badgeforge/internal/publish/github"
	publishhandler "badgeforge/internal/publish/handler"
	publishmodels "badgeforge/internal/publish/models"
	publishservice "badgeforge/internal/publish/service"
	"badgeforge/internal/schema"
	httptransport "badgeforge/internal/transport/http"
	vcthandler "badgeforge/internal/vct/handler"
	vctservice "badgeforge/internal/vct/service"
	vctstore "badgeforge/internal/vct/store"
	id "badgeforge/pkg/domain"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/secrets"
)

// Fixed credentials for the suite. The password is hashed at bcrypt.MinCost
// because these tests measure wiring, not hash strength.
const (
	adminUser     = "admin"
	adminPassword = "e2e-password"
	sessionSecret = "e2e-session-secret"
	orbitLobID    = "lob-e2e"
	orbitAPIKey   = "orbit-e2e-key"
	githubRepo    = "acme/governance"
)

// TestContext owns one fully wired server and the cookie-carrying client of
// one editor session.
type TestContext struct {
	t         *testing.T
	BaseURL   string
	Client    *http.Client
	AssetsDir string
	GitHub    *FakeGitHub
	Orbit     *FakeOrbit
}

// NewTestContext builds the server the same way cmd/server does, with three
// differences: stores live in a temp directory, the GitHub and Orbit clients
// point at local fakes, and no Prometheus metrics are wired because promauto
// collectors register in the process-global registry and every test builds
// its own server.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	dir := t.TempDir()
	quiet := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	badgeStore, err := badgestore.NewFileStore(filepath.Join(dir, "badges.json"))
	require.NoError(t, err)
	vctStore, err := vctstore.NewFileStore(filepath.Join(dir, "vcts.json"))
	require.NoError(t, err)
	layoutStore, err := layoutstore.NewFileStore(filepath.Join(dir, "zone-templates.json"))
	require.NoError(t, err)
	assetStore, err := assetstore.NewFileStore(filepath.Join(dir, "assets.json"))
	require.NoError(t, err)
	schemaStore, err := schema.NewFileStore(filepath.Join(dir, "schemas.json"))
	require.NoError(t, err)
	settingsStore, err := orbitstore.NewFileStore(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	schemaService, err := schema.NewService(schemaStore, quiet)
	require.NoError(t, err)
	badgeService, err := badgeservice.New(badgeStore, badgeservice.WithLogger(quiet))
	require.NoError(t, err)
	vctService, err := vctservice.New(vctStore, schemaService, vctservice.WithLogger(quiet))
	require.NoError(t, err)
	layoutService, err := layoutservice.New(layoutStore, layoutservice.WithLogger(quiet))
	require.NoError(t, err)
	assetService, err := assetservice.New(assetStore, assetservice.WithLogger(quiet))
	require.NoError(t, err)
	t.Cleanup(assetService.Close)

	fakeGitHub := NewFakeGitHub(t)
	ghClient, err := github.NewClientWithBaseURL(fakeGitHub.Server.Client(), fakeGitHub.Server.URL+"/", github.WithLogger(quiet))
	require.NoError(t, err)
	publishService, err := publishservice.New(ghClient,
		artifactSource{badges: badgeService, vcts: vctService, layouts: layoutService},
		true,
		publishservice.WithLogger(quiet),
	)
	require.NoError(t, err)

	fakeOrbit := NewFakeOrbit(t)
	cipher, err := secrets.NewCipherFromBase64(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32)))
	require.NoError(t, err)
	orbitService, err := orbitservice.New(settingsStore,
		orbitclient.New(2*time.Second, orbitclient.WithLogger(quiet)),
		cipher,
		orbitmodels.Credentials{},
		orbitservice.WithLogger(quiet),
	)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	authService, err := authservice.New(authservice.Config{
		AdminUsername: adminUser,
		PasswordHash:  string(hash),
		SessionTTL:    time.Hour,
	}, session.New(), lockout.New(), jwttoken.NewService(sessionSecret, time.Hour),
		authservice.WithLogger(quiet),
	)
	require.NoError(t, err)

	// Synchronous recorder: entries must be visible the moment a response
	// comes back, so assertions never race a background writer.
	ring := audit.NewRingStore(256)
	fileSink, err := audit.NewFileSink(filepath.Join(dir, "access.log"))
	require.NoError(t, err)
	recorder := audit.NewRecorder([]audit.Sink{ring, fileSink}, audit.WithRecorderLogger(quiet))
	t.Cleanup(func() {
		recorder.Close()
		fileSink.Close()
	})

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   quiet,
		Sessions: authService,
		Recorder: recorder,

		Auth:       authhandler.New(authService, quiet, false),
		Badges:     badgehandler.New(badgeService, quiet),
		VCTs:       vcthandler.New(vctService, quiet),
		Layouts:    layouthandler.New(layoutService, quiet),
		Assets:     assethandler.New(assetService, quiet),
		Schemas:    schema.NewHandler(schemaService, quiet),
		Publish:    publishhandler.New(publishService, quiet),
		Orbit:      orbithandler.New(orbitService, quiet),
		AccessLogs: audithandler.New(ring, quiet),
		Health:     health.New("test"),

		RequestTimeout: 10 * time.Second,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &TestContext{
		t:         t,
		BaseURL:   server.URL,
		Client:    &http.Client{Jar: jar, Timeout: 10 * time.Second},
		AssetsDir: dir,
		GitHub:    fakeGitHub,
		Orbit:     fakeOrbit,
	}
}

// Do sends one request through the session-carrying client. A non-nil body
// is marshaled as JSON. The caller owns the response body.
func (tc *TestContext) Do(method, path string, body any) *http.Response {
	tc.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(tc.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	require.NoError(tc.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.Client.Do(req)
	require.NoError(tc.t, err)
	return resp
}

// DoJSON sends the request, asserts the status, and decodes the response
// body into out (when out is non-nil).
func (tc *TestContext) DoJSON(method, path string, body any, wantStatus int, out any) {
	tc.t.Helper()

	resp := tc.Do(method, path, body)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(tc.t, err)
	require.Equal(tc.t, wantStatus, resp.StatusCode, "unexpected status for %s %s: %s", method, path, raw)

	if out != nil {
		require.NoError(tc.t, json.Unmarshal(raw, out), "decode %s %s response", method, path)
	}
}

// Login authenticates the client session as the admin principal. The session
// cookie lands in the jar and rides along on every later request.
func (tc *TestContext) Login() {
	tc.t.Helper()
	tc.DoJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"username": adminUser,
		"password": adminPassword,
	}, http.StatusOK, nil)
}

// artifactSource adapts the artifact services to the publish flow's lookup,
// the same adapter cmd/server wires.
type artifactSource struct {
	badges  *badgeservice.Service
	vcts    *vctservice.Service
	layouts *layoutservice.Service
}

func (a artifactSource) Artifact(ctx context.Context, kind publishmodels.Kind, artifactID string) (*publishmodels.Artifact, error) {
	switch kind {
	case publishmodels.KindBadge:
		badgeID, err := id.ParseBadgeID(artifactID)
		if err != nil {
			return nil, err
		}
		badge, err := a.badges.Get(ctx, badgeID)
		if err != nil {
			return nil, err
		}
		return &publishmodels.Artifact{Kind: kind, ID: artifactID, Document: badge}, nil

	case publishmodels.KindVCT:
		vctID, err := id.ParseVCTID(artifactID)
		if err != nil {
			return nil, err
		}
		vct, err := a.vcts.Get(ctx, vctID)
		if err != nil {
			return nil, err
		}
		return &publishmodels.Artifact{Kind: kind, ID: artifactID, Document: vct}, nil

	case publishmodels.KindZoneTemplate:
		templateID, err := id.ParseTemplateID(artifactID)
		if err != nil {
			return nil, err
		}
		template, err := a.layouts.Get(ctx, templateID)
		if err != nil {
			return nil, err
		}
		return &publishmodels.Artifact{Kind: kind, ID: artifactID, Document: template}, nil
	}
	return nil, dErrors.New(dErrors.CodeValidation, "unknown artifact kind")
}
