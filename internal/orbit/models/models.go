// Package models defines the Orbit platform configuration and the views the
// settings panel works with. Orbit fields marshal camelCase because
// settings.json lives in the assets directory next to the artifact documents
// and round-trips through the same editor.
package models

import (
	"fmt"
	"time"
)

// Source says where the active Orbit configuration comes from: the saved
// settings file, or the ORBIT_* environment fallback.
type Source string

const (
	SourceFile Source = "file"
	SourceEnv  Source = "env"
)

// Endpoints are the per-API base URLs of the Orbit platform. Empty entries
// mean the API is not in use.
type Endpoints struct {
	LobURL      string `json:"lobUrl,omitempty"`
	IssuerURL   string `json:"issuerUrl,omitempty"`
	VerifierURL string `json:"verifierUrl,omitempty"`
	RegistryURL string `json:"registryUrl,omitempty"`
}

// Any reports whether at least one base URL is set.
func (e Endpoints) Any() bool {
	return e.LobURL != "" || e.IssuerURL != "" || e.VerifierURL != "" || e.RegistryURL != ""
}

// Settings is the persisted form of the Orbit configuration. The API key is
// stored AES-GCM-encrypted; the plaintext exists only in memory between
// decryption and the outbound request.
type Settings struct {
	LobID           string    `json:"lobId"`
	EncryptedAPIKey string    `json:"encryptedApiKey"`
	Endpoints       Endpoints `json:"endpoints"`
	UpdatedAt       time.Time `json:"updatedAt"`
	UpdatedBy       string    `json:"updatedBy,omitempty"`
}

// Clone returns a copy safe to hand out of the store.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// SaveRequest carries the settings form from the editor. APIKey may be empty
// on update to keep the stored key, so editing a base URL does not force the
// operator to re-enter the secret.
type SaveRequest struct {
	LobID     string    `json:"lobId"`
	APIKey    string    `json:"apiKey,omitempty"`
	Endpoints Endpoints `json:"endpoints"`
}

// ConfigStatus is the settings view returned to the editor. It reports
// whether an API key is present without ever including it.
type ConfigStatus struct {
	LobID            string     `json:"lobId"`
	APIKeyConfigured bool       `json:"apiKeyConfigured"`
	Endpoints        Endpoints  `json:"endpoints"`
	Source           Source     `json:"source"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// Credentials are the resolved, decrypted values Orbit calls authenticate
// with. The environment fallback is a Credentials value too.
type Credentials struct {
	LobID     string
	APIKey    string
	Endpoints Endpoints
}

// Configured reports whether the credentials are complete enough to call
// Orbit APIs.
func (c Credentials) Configured() bool {
	return c.LobID != "" && c.APIKey != ""
}

// ConnectionInfo reports the outcome of verifying the lob credentials
// against the LOB API. A failed check is a finding, not an error: the
// settings panel renders connected=false with the detail.
type ConnectionInfo struct {
	Connected bool   `json:"connected"`
	LobID     string `json:"lobId,omitempty"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// APIHealth is one probe result in the health report. Reachable means the
// base URL answered with any HTTP response; the status is recorded so the
// panel can distinguish "up" from "up but unhappy".
type APIHealth struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// HealthReport aggregates the per-API probes.
type HealthReport struct {
	CheckedAt time.Time   `json:"checkedAt"`
	APIs      []APIHealth `json:"apis"`
}

// UpstreamError is a non-2xx response from an Orbit API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("orbit responded %d: %s", e.Status, e.Message)
}
