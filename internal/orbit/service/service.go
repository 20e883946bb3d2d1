// Package service owns the Orbit configuration lifecycle (saved settings
// file with environment fallback) and fronts the proxy calls the editor
// makes against the Orbit platform.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"badgeforge/internal/orbit/metrics"
	"badgeforge/internal/orbit/models"
	"badgeforge/internal/sentinel"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/requestcontext"
	"badgeforge/pkg/secrets"
)

// Client calls the Orbit platform APIs.
type Client interface {
	VerifyConnection(ctx context.Context, creds models.Credentials) (*models.ConnectionInfo, error)
	RegisterSchema(ctx context.Context, creds models.Credentials, payload json.RawMessage) (json.RawMessage, error)
	RegisterCredentialDefinition(ctx context.Context, creds models.Credentials, payload json.RawMessage) (json.RawMessage, error)
	Probe(ctx context.Context, name, baseURL string) models.APIHealth
}

// Store persists the saved settings document.
type Store interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
	Delete(ctx context.Context) error
}

// Service resolves the active Orbit configuration and runs calls against it.
// A saved settings file wins over the environment; deleting the file falls
// back to the ORBIT_* variables the process started with.
type Service struct {
	store   Store
	client  Client
	cipher  *secrets.Cipher
	env     models.Credentials
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates the Orbit service. cipher may be nil when no encryption key is
// configured; the service then runs env-only and refuses to save settings.
func New(store Store, client Client, cipher *secrets.Cipher, env models.Credentials, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("orbit client is required")
	}
	s := &Service{
		store:  store,
		client: client,
		cipher: cipher,
		env:    env,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Status returns the settings view for the panel: where the active
// configuration comes from and whether an API key is present. The key itself
// never appears in the view.
func (s *Service) Status(ctx context.Context) (*models.ConfigStatus, error) {
	creds, source, updatedAt, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ConfigStatus{
		LobID:            creds.LobID,
		APIKeyConfigured: creds.APIKey != "",
		Endpoints:        creds.Endpoints,
		Source:           source,
		UpdatedAt:        updatedAt,
	}, nil
}

// Save encrypts the API key and writes the settings file. An empty APIKey on
// update keeps the stored ciphertext, so editing a base URL does not force
// the operator to re-enter the secret.
func (s *Service) Save(ctx context.Context, req models.SaveRequest) (*models.ConfigStatus, error) {
	if s.cipher == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable,
			"settings encryption key is not configured; set BADGEFORGE_ENCRYPTION_KEY to save orbit settings")
	}

	var encrypted string
	if req.APIKey != "" {
		var err error
		encrypted, err = s.cipher.EncryptString(req.APIKey)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encrypt orbit api key")
		}
	} else {
		saved, err := s.store.Get(ctx)
		switch {
		case err == nil:
			encrypted = saved.EncryptedAPIKey
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeValidation, "apiKey is required")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load orbit settings")
		}
	}

	settings := &models.Settings{
		LobID:           req.LobID,
		EncryptedAPIKey: encrypted,
		Endpoints:       req.Endpoints,
		UpdatedAt:       requestcontext.Now(ctx),
		UpdatedBy:       requestcontext.Subject(ctx),
	}
	if err := s.store.Save(ctx, settings); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save orbit settings")
	}

	s.logger.InfoContext(ctx, "orbit settings saved",
		"lob_id", settings.LobID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.countSave()

	return &models.ConfigStatus{
		LobID:            settings.LobID,
		APIKeyConfigured: settings.EncryptedAPIKey != "",
		Endpoints:        settings.Endpoints,
		Source:           models.SourceFile,
		UpdatedAt:        &settings.UpdatedAt,
	}, nil
}

// Clear deletes the settings file and returns the environment-backed status
// the configuration fell back to.
func (s *Service) Clear(ctx context.Context) (*models.ConfigStatus, error) {
	if err := s.store.Delete(ctx); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no saved orbit settings")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "delete orbit settings")
	}

	s.logger.InfoContext(ctx, "orbit settings cleared, falling back to environment",
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.Status(ctx)
}

// Health probes every configured base URL in parallel. Unreachable APIs are
// findings inside the report, never an error; the call fails only when no
// endpoint is configured at all.
func (s *Service) Health(ctx context.Context) (*models.HealthReport, error) {
	creds, _, _, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !creds.Endpoints.Any() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "no orbit endpoints are configured")
	}

	type target struct{ name, url string }
	targets := make([]target, 0, 4)
	for _, t := range []target{
		{"lob", creds.Endpoints.LobURL},
		{"issuer", creds.Endpoints.IssuerURL},
		{"verifier", creds.Endpoints.VerifierURL},
		{"registry", creds.Endpoints.RegistryURL},
	} {
		if t.url != "" {
			targets = append(targets, t)
		}
	}

	report := &models.HealthReport{
		CheckedAt: requestcontext.Now(ctx),
		APIs:      make([]models.APIHealth, len(targets)),
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			report.APIs[i] = s.client.Probe(ctx, t.name, t.url)
			return nil
		})
	}
	_ = g.Wait() // probes fold their failures into the report

	s.countCall("health")
	return report, nil
}

// Connection verifies the lob credentials against the LOB API. A rejected
// key comes back as connected=false, not as an error.
func (s *Service) Connection(ctx context.Context) (*models.ConnectionInfo, error) {
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	info, err := s.client.VerifyConnection(ctx, creds)
	if err != nil {
		s.countUpstreamFailure()
		return nil, translate(err, "verify connection")
	}

	if !info.Connected {
		s.logger.WarnContext(ctx, "orbit connection check failed",
			"lob_id", creds.LobID,
			"status", info.Status,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.countCall("connection")
	return info, nil
}

// RegisterSchema forwards a credential-schema registration to the LOB API
// and returns the upstream response.
func (s *Service) RegisterSchema(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.client.RegisterSchema(ctx, creds, payload)
	if err != nil {
		s.countUpstreamFailure()
		return nil, translate(err, "register schema")
	}

	s.logger.InfoContext(ctx, "credential schema registered with orbit",
		"lob_id", creds.LobID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.countCall("schema")
	return res, nil
}

// RegisterCredentialDefinition forwards a credential-definition registration
// to the LOB API and returns the upstream response.
func (s *Service) RegisterCredentialDefinition(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.client.RegisterCredentialDefinition(ctx, creds, payload)
	if err != nil {
		s.countUpstreamFailure()
		return nil, translate(err, "register credential definition")
	}

	s.logger.InfoContext(ctx, "credential definition registered with orbit",
		"lob_id", creds.LobID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.countCall("credential_definition")
	return res, nil
}

// resolve returns the active credentials and where they came from. The file
// wins when it exists and a cipher is available to read it; otherwise the
// environment fallback applies.
func (s *Service) resolve(ctx context.Context) (models.Credentials, models.Source, *time.Time, error) {
	if s.cipher != nil {
		saved, err := s.store.Get(ctx)
		switch {
		case err == nil:
			var apiKey string
			if saved.EncryptedAPIKey != "" {
				apiKey, err = s.cipher.DecryptString(saved.EncryptedAPIKey)
				if err != nil {
					return models.Credentials{}, "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "decrypt orbit api key")
				}
			}
			updatedAt := saved.UpdatedAt
			return models.Credentials{
				LobID:     saved.LobID,
				APIKey:    apiKey,
				Endpoints: saved.Endpoints,
			}, models.SourceFile, &updatedAt, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return models.Credentials{}, "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "load orbit settings")
		}
	}
	return s.env, models.SourceEnv, nil, nil
}

// credentials resolves and guards the values proxy calls need.
func (s *Service) credentials(ctx context.Context) (models.Credentials, error) {
	creds, _, _, err := s.resolve(ctx)
	if err != nil {
		return models.Credentials{}, err
	}
	if !creds.Configured() {
		return models.Credentials{}, dErrors.New(dErrors.CodeUnavailable, "orbit credentials are not configured")
	}
	if creds.Endpoints.LobURL == "" {
		return models.Credentials{}, dErrors.New(dErrors.CodeUnavailable, "orbit lob url is not configured")
	}
	return creds, nil
}

// translate maps client failures to domain errors. Upstream rejections keep
// their status and message; timeouts and an open circuit are called out
// separately.
func translate(err error, op string) error {
	var upstream *models.UpstreamError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "orbit: "+op+" timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "orbit is unavailable while the circuit breaker recovers")
	case errors.As(err, &upstream):
		return dErrors.Wrap(err, dErrors.CodeUpstream, err.Error())
	default:
		return dErrors.Wrap(err, dErrors.CodeUpstream, "orbit: "+op+": "+err.Error())
	}
}

func (s *Service) countCall(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementCalls(operation)
	}
}

func (s *Service) countUpstreamFailure() {
	if s.metrics != nil {
		s.metrics.IncrementUpstreamFailures()
	}
}

func (s *Service) countSave() {
	if s.metrics != nil {
		s.metrics.IncrementSettingsSaves()
	}
}
