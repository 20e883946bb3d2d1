// Command server runs the badgeforge backend: the REST API behind the visual
// editor for badges, credential types, and zone templates.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	assethandler "badgeforge/internal/asset/handler"
	assetmetrics "badgeforge/internal/asset/metrics"
	assetservice "badgeforge/internal/asset/service"
	assetstore "badgeforge/internal/asset/store"
	"badgeforge/internal/audit"
	audithandler "badgeforge/internal/audit/handler"
	auditmetrics "badgeforge/internal/audit/metrics"
	authhandler "badgeforge/internal/auth/handler"
	authmetrics "badgeforge/internal/auth/metrics"
	authservice "badgeforge/internal/auth/service"
	"badgeforge/internal/auth/store/lockout"
	"badgeforge/internal/auth/store/session"
	"badgeforge/internal/auth/workers/cleanup"
	badgehandler "badgeforge/internal/badge/handler"
	badgemetrics "badgeforge/internal/badge/metrics"
	badgeservice "badgeforge/internal/badge/service"
	badgestore "badgeforge/internal/badge/store"
	jwttoken "badgeforge/internal/jwt_token"
	layouthandler "badgeforge/internal/layout/handler"
	layoutservice "badgeforge/internal/layout/service"
	layoutstore "badgeforge/internal/layout/store"
	orbitclient "badgeforge/internal/orbit/client"
	orbithandler "badgeforge/internal/orbit/handler"
	orbitmetrics "badgeforge/internal/orbit/metrics"
	orbitmodels "badgeforge/internal/orbit/models"
	orbitservice "badgeforge/internal/orbit/service"
	orbitstore "badgeforge/internal/orbit/store"
	"badgeforge/internal/platform/config"
	"badgeforge/internal/platform/health"
	"badgeforge/internal/platform/httpserver"
	"badgeforge/internal/platform/logger"
	"badgeforge/internal/platform/watcher"
	"badgeforge/internal/publish/github"
	publishhandler "badgeforge/internal/publish/handler"
	publishmetrics "badgeforge/internal/publish/metrics"
	publishservice "badgeforge/internal/publish/service"
	"badgeforge/internal/schema"
	"badgeforge/internal/seeder"
	httptransport "badgeforge/internal/transport/http"
	vcthandler "badgeforge/internal/vct/handler"
	vctservice "badgeforge/internal/vct/service"
	vctstore "badgeforge/internal/vct/store"
	request "badgeforge/pkg/platform/middleware/request"
	"badgeforge/pkg/secrets"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

// run wires stores, services, and handlers, then serves until SIGINT/SIGTERM.
// Business logic lives in the internal service packages; this file only
// connects them.
func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("initializing badgeforge",
		"addr", cfg.Addr,
		"assets_dir", cfg.AssetsDir,
		"environment", cfg.Environment,
	)

	if err := os.MkdirAll(cfg.AssetsDir, 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	// Artifact stores. Each owns a single JSON file under the assets dir.
	badgeStore, err := badgestore.NewFileStore(filepath.Join(cfg.AssetsDir, "badges.json"))
	if err != nil {
		return fmt.Errorf("open badge store: %w", err)
	}
	vctStore, err := vctstore.NewFileStore(filepath.Join(cfg.AssetsDir, "vcts.json"))
	if err != nil {
		return fmt.Errorf("open vct store: %w", err)
	}
	layoutStore, err := layoutstore.NewFileStore(filepath.Join(cfg.AssetsDir, "zone-templates.json"))
	if err != nil {
		return fmt.Errorf("open zone template store: %w", err)
	}
	assetStore, err := assetstore.NewFileStore(filepath.Join(cfg.AssetsDir, "assets.json"))
	if err != nil {
		return fmt.Errorf("open asset store: %w", err)
	}
	schemaStore, err := schema.NewFileStore(filepath.Join(cfg.AssetsDir, "schemas.json"))
	if err != nil {
		return fmt.Errorf("open schema store: %w", err)
	}
	orbitStore, err := orbitstore.NewFileStore(filepath.Join(cfg.AssetsDir, "settings.json"))
	if err != nil {
		return fmt.Errorf("open orbit settings store: %w", err)
	}

	// Domain services.
	schemaService, err := schema.NewService(schemaStore, log)
	if err != nil {
		return fmt.Errorf("schema service: %w", err)
	}
	badgeService, err := badgeservice.New(badgeStore,
		badgeservice.WithLogger(log),
		badgeservice.WithMetrics(badgemetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("badge service: %w", err)
	}
	vctService, err := vctservice.New(vctStore, schemaService, vctservice.WithLogger(log))
	if err != nil {
		return fmt.Errorf("vct service: %w", err)
	}
	layoutService, err := layoutservice.New(layoutStore, layoutservice.WithLogger(log))
	if err != nil {
		return fmt.Errorf("zone template service: %w", err)
	}
	assetService, err := assetservice.New(assetStore,
		assetservice.WithLogger(log),
		assetservice.WithMetrics(assetmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("asset service: %w", err)
	}
	defer assetService.Close()

	// GitHub publish proxy.
	var ghClient *github.Client
	if cfg.GitHubAPIURL != "" {
		opts := []github.Option{github.WithLogger(log)}
		if cfg.GitHubToken != "" {
			opts = append(opts, github.WithAuthToken(cfg.GitHubToken))
		}
		ghClient, err = github.NewClientWithBaseURL(http.DefaultClient, cfg.GitHubAPIURL, opts...)
		if err != nil {
			return fmt.Errorf("github client: %w", err)
		}
	} else {
		ghClient = github.NewClient(cfg.GitHubToken, github.WithLogger(log))
	}
	publishService, err := publishservice.New(ghClient,
		newArtifactSource(badgeService, vctService, layoutService),
		cfg.HasGitHubToken(),
		publishservice.WithLogger(log),
		publishservice.WithMetrics(publishmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("publish service: %w", err)
	}
	if !cfg.HasGitHubToken() {
		log.Warn("BADGEFORGE_GITHUB_TOKEN not set; publishing to GitHub is disabled")
	}

	// Orbit settings and proxy.
	var cipher *secrets.Cipher
	if cfg.EncryptionKey != "" {
		cipher, err = secrets.NewCipherFromBase64(cfg.EncryptionKey)
		if err != nil {
			return fmt.Errorf("parse BADGEFORGE_ENCRYPTION_KEY: %w", err)
		}
	} else {
		log.Warn("BADGEFORGE_ENCRYPTION_KEY not set; orbit settings cannot be saved through the editor")
	}
	orbitService, err := orbitservice.New(orbitStore,
		orbitclient.New(cfg.OrbitTimeout, orbitclient.WithLogger(log)),
		cipher,
		orbitmodels.Credentials{
			LobID:  cfg.Orbit.LobID,
			APIKey: cfg.Orbit.APIKey,
			Endpoints: orbitmodels.Endpoints{
				LobURL:      cfg.Orbit.LobURL,
				IssuerURL:   cfg.Orbit.IssuerURL,
				VerifierURL: cfg.Orbit.VerifierURL,
				RegistryURL: cfg.Orbit.RegistryURL,
			},
		},
		orbitservice.WithLogger(log),
		orbitservice.WithMetrics(orbitmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("orbit service: %w", err)
	}

	// Admin principal and sessions.
	passwordHash := cfg.AdminPasswordHash
	if passwordHash == "" && cfg.AdminPassword != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		passwordHash = string(hashed)
		log.Warn("hashed plaintext admin password from environment; prefer BADGEFORGE_ADMIN_PASSWORD_HASH (see cmd/hashpw)")
	}
	if passwordHash == "" {
		return fmt.Errorf("set BADGEFORGE_ADMIN_PASSWORD or BADGEFORGE_ADMIN_PASSWORD_HASH")
	}

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		sessionSecret, err = randomSecret()
		if err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		log.Warn("BADGEFORGE_SESSION_SECRET not set; sessions will not survive a restart")
	}

	sessionStore := session.New()
	lockoutStore := lockout.New()
	authService, err := authservice.New(authservice.Config{
		AdminUsername: cfg.AdminUsername,
		PasswordHash:  passwordHash,
		SessionTTL:    cfg.SessionTTL,
	}, sessionStore, lockoutStore, jwttoken.NewService(sessionSecret, cfg.SessionTTL),
		authservice.WithLogger(log),
		authservice.WithMetrics(authmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	// Access log: in-memory ring serves the settings panel, the JSONL file
	// keeps a durable best-effort trail.
	ring := audit.NewRingStore(cfg.AccessLogSize)
	fileSink, err := audit.NewFileSink(filepath.Join(cfg.AssetsDir, "access.log"))
	if err != nil {
		return fmt.Errorf("open access log: %w", err)
	}
	defer fileSink.Close()
	recorder := audit.NewRecorder([]audit.Sink{ring, fileSink},
		audit.WithAsyncBuffer(256),
		audit.WithRecorderLogger(log),
		audit.WithMetrics(auditmetrics.New()),
	)
	defer recorder.Close()

	if err := seeder.New(badgeStore, vctStore, layoutStore, schemaStore, assetStore, log).SeedAll(context.Background()); err != nil {
		return fmt.Errorf("seed starter content: %w", err)
	}

	// Background workers stop when the server begins graceful shutdown.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if cfg.WatchFiles {
		w := watcher.New(cfg.AssetsDir, log)
		w.Register("badges.json", badgeStore.Reload)
		w.Register("vcts.json", vctStore.Reload)
		w.Register("zone-templates.json", layoutStore.Reload)
		w.Register("assets.json", assetStore.Reload)
		w.Register("schemas.json", schemaStore.Reload)
		w.Register("settings.json", orbitStore.Reload)
		if err := w.Start(workerCtx); err != nil {
			return fmt.Errorf("start assets watcher: %w", err)
		}
	}

	cleanupWorker, err := cleanup.New(sessionStore, lockoutStore, cleanup.WithLogger(log))
	if err != nil {
		return fmt.Errorf("auth cleanup worker: %w", err)
	}
	go func() {
		if err := cleanupWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("auth cleanup worker stopped", "error", err)
		}
	}()

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("assets_dir", func() error {
		_, err := os.Stat(cfg.AssetsDir)
		return err
	})

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Sessions: authService,
		Recorder: recorder,

		Auth:       authhandler.New(authService, log, cfg.Environment != "development"),
		Badges:     badgehandler.New(badgeService, log),
		VCTs:       vcthandler.New(vctService, log),
		Layouts:    layouthandler.New(layoutService, log),
		Assets:     assethandler.New(assetService, log),
		Schemas:    schema.NewHandler(schemaService, log),
		Publish:    publishhandler.New(publishService, log),
		Orbit:      orbithandler.New(orbitService, log),
		AccessLogs: audithandler.New(ring, log),
		Health:     healthHandler,

		RequestTimeout: cfg.RequestTimeout,
		TrustedProxies: cfg.TrustedProxies,
		Metrics:        request.NewMetrics(),
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	log.Info("shutting down server gracefully")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// randomSecret returns a fresh session-signing secret for deployments that do
// not pin one. Tokens minted with it die with the process.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}
