// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Addr        string
	AssetsDir   string
	Environment string
	LogFormat   string
	LogLevel    string

	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration

	// EncryptionKey is the base64-encoded 32-byte key protecting the Orbit
	// API key at rest. Empty disables persisting Orbit settings to disk.
	EncryptionKey string

	GitHubToken  string
	GitHubAPIURL string

	Orbit OrbitEnv

	RequestTimeout time.Duration
	OrbitTimeout   time.Duration
	TrustedProxies []netip.Prefix
	AccessLogSize  int
	WatchFiles     bool
}

// OrbitEnv is the environment fallback for Orbit platform settings, used when
// no settings file has been saved through the editor.
type OrbitEnv struct {
	LobID       string
	APIKey      string
	LobURL      string
	IssuerURL   string
	VerifierURL string
	RegistryURL string
}

// Configured reports whether the environment carries enough Orbit settings to
// make API calls.
func (o OrbitEnv) Configured() bool {
	return o.LobID != "" && o.APIKey != ""
}

// HasGitHubToken reports whether publishing can authenticate against GitHub.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// FromEnv reads configuration from environment variables and returns a
// validated Config. Only malformed values error; absent values fall back to
// defaults so a bare `go run ./cmd/server` works against a scratch directory.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:              envOr("BADGEFORGE_ADDR", ":8080"),
		AssetsDir:         envOr("BADGEFORGE_ASSETS_DIR", "./assets"),
		Environment:       envOr("BADGEFORGE_ENV", "development"),
		LogFormat:         envOr("BADGEFORGE_LOG_FORMAT", "json"),
		LogLevel:          envOr("BADGEFORGE_LOG_LEVEL", "info"),
		AdminUsername:     envOr("BADGEFORGE_ADMIN_USER", "admin"),
		AdminPassword:     os.Getenv("BADGEFORGE_ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("BADGEFORGE_ADMIN_PASSWORD_HASH"),
		SessionSecret:     os.Getenv("BADGEFORGE_SESSION_SECRET"),
		EncryptionKey:     os.Getenv("BADGEFORGE_ENCRYPTION_KEY"),
		GitHubToken:       os.Getenv("BADGEFORGE_GITHUB_TOKEN"),
		GitHubAPIURL:      os.Getenv("BADGEFORGE_GITHUB_API_URL"),
		Orbit: OrbitEnv{
			LobID:       os.Getenv("ORBIT_LOB_ID"),
			APIKey:      os.Getenv("ORBIT_API_KEY"),
			LobURL:      os.Getenv("ORBIT_LOB_URL"),
			IssuerURL:   os.Getenv("ORBIT_ISSUER_URL"),
			VerifierURL: os.Getenv("ORBIT_VERIFIER_URL"),
			RegistryURL: os.Getenv("ORBIT_REGISTRY_URL"),
		},
	}

	var err error
	cfg.SessionTTL, err = durationOr("BADGEFORGE_SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout, err = durationOr("BADGEFORGE_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.OrbitTimeout, err = durationOr("BADGEFORGE_ORBIT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.AccessLogSize, err = intOr("BADGEFORGE_ACCESS_LOG_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg.WatchFiles, err = boolOr("BADGEFORGE_WATCH_FILES", true)
	if err != nil {
		return nil, err
	}

	cfg.TrustedProxies, err = prefixesFromEnv("BADGEFORGE_TRUSTED_PROXIES")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}

func intOr(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("%s has invalid integer %q", key, v)
	}
	return parsed, nil
}

func boolOr(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s has invalid boolean %q", key, v)
	}
}

func prefixesFromEnv(key string) ([]netip.Prefix, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil, nil
	}

	var prefixes []netip.Prefix
	for _, cidr := range strings.Split(v, ",") {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("%s has invalid CIDR %q: %w", key, cidr, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}
