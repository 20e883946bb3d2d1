package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badgeforge/internal/orbit/models"
	"badgeforge/internal/orbit/service"
	"badgeforge/internal/orbit/store"
	"badgeforge/internal/sentinel"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/requestcontext"
	"badgeforge/pkg/secrets"
)

// fakeClient scripts Orbit responses and records what the service called with.
type fakeClient struct {
	mu sync.Mutex

	verifyInfo *models.ConnectionInfo
	verifyErr  error
	schemaRes  json.RawMessage
	schemaErr  error
	credRes    json.RawMessage
	credErr    error
	reachable  map[string]bool

	verifyCreds    []models.Credentials
	schemaPayloads []json.RawMessage
	credPayloads   []json.RawMessage
	probed         []string
}

func (f *fakeClient) VerifyConnection(_ context.Context, creds models.Credentials) (*models.ConnectionInfo, error) {
	f.mu.Lock()
	f.verifyCreds = append(f.verifyCreds, creds)
	f.mu.Unlock()

	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verifyInfo != nil {
		return f.verifyInfo, nil
	}
	return &models.ConnectionInfo{Connected: true, LobID: creds.LobID, Status: 200}, nil
}

func (f *fakeClient) RegisterSchema(_ context.Context, _ models.Credentials, payload json.RawMessage) (json.RawMessage, error) {
	f.mu.Lock()
	f.schemaPayloads = append(f.schemaPayloads, payload)
	f.mu.Unlock()

	if f.schemaErr != nil {
		return nil, f.schemaErr
	}
	if f.schemaRes != nil {
		return f.schemaRes, nil
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeClient) RegisterCredentialDefinition(_ context.Context, _ models.Credentials, payload json.RawMessage) (json.RawMessage, error) {
	f.mu.Lock()
	f.credPayloads = append(f.credPayloads, payload)
	f.mu.Unlock()

	if f.credErr != nil {
		return nil, f.credErr
	}
	if f.credRes != nil {
		return f.credRes, nil
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeClient) Probe(_ context.Context, name, baseURL string) models.APIHealth {
	f.mu.Lock()
	f.probed = append(f.probed, name)
	f.mu.Unlock()

	health := models.APIHealth{Name: name, URL: baseURL, Reachable: true, Status: 200, LatencyMs: 3}
	if f.reachable != nil && !f.reachable[name] {
		health = models.APIHealth{Name: name, URL: baseURL, Error: "connection refused"}
	}
	return health
}

var saveTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func testCtx() context.Context {
	ctx := requestcontext.WithNow(context.Background(), saveTime)
	return requestcontext.WithSubject(ctx, "ops")
}

func envCreds() models.Credentials {
	return models.Credentials{
		LobID:  "env-lob",
		APIKey: "env-key",
		Endpoints: models.Endpoints{
			LobURL:    "https://orbit.env/lob",
			IssuerURL: "https://orbit.env/issuer",
		},
	}
}

func newTestService(t *testing.T, fc *fakeClient, env models.Credentials) (*service.Service, *store.FileStore, *secrets.Cipher) {
	t.Helper()

	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	cipher, err := secrets.NewCipher(bytes.Repeat([]byte{0x2a}, secrets.KeySize))
	require.NoError(t, err)

	svc, err := service.New(st, fc, cipher, env)
	require.NoError(t, err)
	return svc, st, cipher
}

func saveRequest() models.SaveRequest {
	return models.SaveRequest{
		LobID:  "lob-42",
		APIKey: "super-secret",
		Endpoints: models.Endpoints{
			LobURL: "https://orbit.example/lob",
		},
	}
}

func TestSave_EncryptsKeyAndReportsFileSource(t *testing.T) {
	svc, st, cipher := newTestService(t, &fakeClient{}, envCreds())

	status, err := svc.Save(testCtx(), saveRequest())
	require.NoError(t, err)

	assert.Equal(t, models.SourceFile, status.Source)
	assert.Equal(t, "lob-42", status.LobID)
	assert.True(t, status.APIKeyConfigured)
	require.NotNil(t, status.UpdatedAt)
	assert.Equal(t, saveTime, *status.UpdatedAt)

	saved, err := st.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops", saved.UpdatedBy)
	assert.NotEmpty(t, saved.EncryptedAPIKey)
	assert.NotEqual(t, "super-secret", saved.EncryptedAPIKey)

	plaintext, err := cipher.DecryptString(saved.EncryptedAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "super-secret", plaintext)
}

func TestSave_EmptyKeyKeepsStoredKey(t *testing.T) {
	svc, st, _ := newTestService(t, &fakeClient{}, envCreds())

	_, err := svc.Save(testCtx(), saveRequest())
	require.NoError(t, err)
	first, err := st.Get(context.Background())
	require.NoError(t, err)

	update := saveRequest()
	update.APIKey = ""
	update.Endpoints.IssuerURL = "https://orbit.example/issuer"

	status, err := svc.Save(testCtx(), update)
	require.NoError(t, err)
	assert.True(t, status.APIKeyConfigured)

	second, err := st.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.EncryptedAPIKey, second.EncryptedAPIKey)
	assert.Equal(t, "https://orbit.example/issuer", second.Endpoints.IssuerURL)
}

func TestSave_FirstSaveRequiresKey(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeClient{}, envCreds())

	req := saveRequest()
	req.APIKey = ""

	_, err := svc.Save(testCtx(), req)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "apiKey is required")
}

func TestSave_WithoutCipherRefuses(t *testing.T) {
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	svc, err := service.New(st, &fakeClient{}, nil, envCreds())
	require.NoError(t, err)

	_, err = svc.Save(testCtx(), saveRequest())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestStatus_EnvFallback(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeClient{}, envCreds())

	status, err := svc.Status(testCtx())
	require.NoError(t, err)

	assert.Equal(t, models.SourceEnv, status.Source)
	assert.Equal(t, "env-lob", status.LobID)
	assert.True(t, status.APIKeyConfigured)
	assert.Nil(t, status.UpdatedAt)
}

func TestStatus_FileWinsOverEnv(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeClient{}, envCreds())

	_, err := svc.Save(testCtx(), saveRequest())
	require.NoError(t, err)

	status, err := svc.Status(testCtx())
	require.NoError(t, err)

	assert.Equal(t, models.SourceFile, status.Source)
	assert.Equal(t, "lob-42", status.LobID)
}

func TestClear_FallsBackToEnv(t *testing.T) {
	svc, st, _ := newTestService(t, &fakeClient{}, envCreds())

	_, err := svc.Save(testCtx(), saveRequest())
	require.NoError(t, err)

	status, err := svc.Clear(testCtx())
	require.NoError(t, err)
	assert.Equal(t, models.SourceEnv, status.Source)
	assert.Equal(t, "env-lob", status.LobID)

	_, err = st.Get(context.Background())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = svc.Clear(testCtx())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestConnection_UsesDecryptedKey(t *testing.T) {
	fc := &fakeClient{}
	svc, _, _ := newTestService(t, fc, envCreds())

	_, err := svc.Save(testCtx(), saveRequest())
	require.NoError(t, err)

	info, err := svc.Connection(testCtx())
	require.NoError(t, err)
	assert.True(t, info.Connected)

	require.Len(t, fc.verifyCreds, 1)
	assert.Equal(t, "lob-42", fc.verifyCreds[0].LobID)
	assert.Equal(t, "super-secret", fc.verifyCreds[0].APIKey)
}

func TestConnection_Unconfigured(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeClient{}, models.Credentials{})

	_, err := svc.Connection(testCtx())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestConnection_RequiresLobURL(t *testing.T) {
	env := envCreds()
	env.Endpoints = models.Endpoints{IssuerURL: "https://orbit.env/issuer"}
	svc, _, _ := newTestService(t, &fakeClient{}, env)

	_, err := svc.Connection(testCtx())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Contains(t, err.Error(), "lob url")
}

func TestRegisterSchema_PassesPayloadThrough(t *testing.T) {
	fc := &fakeClient{schemaRes: json.RawMessage(`{"schemaId":"sch-1"}`)}
	svc, _, _ := newTestService(t, fc, envCreds())

	res, err := svc.RegisterSchema(testCtx(), json.RawMessage(`{"name":"employee"}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"schemaId":"sch-1"}`, string(res))
	require.Len(t, fc.schemaPayloads, 1)
	assert.JSONEq(t, `{"name":"employee"}`, string(fc.schemaPayloads[0]))
}

func TestRegisterSchema_TranslatesUpstreamError(t *testing.T) {
	fc := &fakeClient{schemaErr: &models.UpstreamError{Status: 422, Message: "schema already exists"}}
	svc, _, _ := newTestService(t, fc, envCreds())

	_, err := svc.RegisterSchema(testCtx(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
	assert.Contains(t, err.Error(), "schema already exists")
}

func TestRegisterSchema_TranslatesTimeout(t *testing.T) {
	fc := &fakeClient{schemaErr: fmt.Errorf("orbit register schema: %w", context.DeadlineExceeded)}
	svc, _, _ := newTestService(t, fc, envCreds())

	_, err := svc.RegisterSchema(testCtx(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestRegisterSchema_TranslatesOpenCircuit(t *testing.T) {
	fc := &fakeClient{schemaErr: fmt.Errorf("orbit register schema: %w", sentinel.ErrUnavailable)}
	svc, _, _ := newTestService(t, fc, envCreds())

	_, err := svc.RegisterSchema(testCtx(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestRegisterCredentialDefinition_PassesPayloadThrough(t *testing.T) {
	fc := &fakeClient{credRes: json.RawMessage(`{"credDefId":"cd-1"}`)}
	svc, _, _ := newTestService(t, fc, envCreds())

	res, err := svc.RegisterCredentialDefinition(testCtx(), json.RawMessage(`{"schemaId":"sch-1"}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"credDefId":"cd-1"}`, string(res))
	require.Len(t, fc.credPayloads, 1)
}

func TestHealth_ProbesConfiguredEndpointsOnly(t *testing.T) {
	fc := &fakeClient{reachable: map[string]bool{"lob": true, "registry": false}}
	env := models.Credentials{
		LobID:  "env-lob",
		APIKey: "env-key",
		Endpoints: models.Endpoints{
			LobURL:      "https://orbit.env/lob",
			RegistryURL: "https://orbit.env/registry",
		},
	}
	svc, _, _ := newTestService(t, fc, env)

	report, err := svc.Health(testCtx())
	require.NoError(t, err)

	assert.Equal(t, saveTime, report.CheckedAt)
	require.Len(t, report.APIs, 2)
	assert.Equal(t, "lob", report.APIs[0].Name)
	assert.True(t, report.APIs[0].Reachable)
	assert.Equal(t, "registry", report.APIs[1].Name)
	assert.False(t, report.APIs[1].Reachable)
	assert.Equal(t, "connection refused", report.APIs[1].Error)

	assert.ElementsMatch(t, []string{"lob", "registry"}, fc.probed)
}

func TestHealth_NoEndpoints(t *testing.T) {
	env := models.Credentials{LobID: "env-lob", APIKey: "env-key"}
	svc, _, _ := newTestService(t, &fakeClient{}, env)

	_, err := svc.Health(testCtx())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
