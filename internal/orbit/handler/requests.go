package handler

import (
	"fmt"
	"net/url"
	"strings"

	"badgeforge/internal/orbit/models"
	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/validation"
)

// SaveOrbitSettingsRequest is the body for PUT /settings/orbit.
type SaveOrbitSettingsRequest struct {
	models.SaveRequest
}

func (r *SaveOrbitSettingsRequest) Normalize() {
	r.LobID = strings.TrimSpace(r.LobID)
	r.APIKey = strings.TrimSpace(r.APIKey)
	r.Endpoints.LobURL = strings.TrimSpace(r.Endpoints.LobURL)
	r.Endpoints.IssuerURL = strings.TrimSpace(r.Endpoints.IssuerURL)
	r.Endpoints.VerifierURL = strings.TrimSpace(r.Endpoints.VerifierURL)
	r.Endpoints.RegistryURL = strings.TrimSpace(r.Endpoints.RegistryURL)
}

func (r *SaveOrbitSettingsRequest) Validate() error {
	if err := validation.CheckRequired("lobId", r.LobID); err != nil {
		return err
	}
	if err := validation.CheckStringLength("lobId", r.LobID, validation.MaxNameLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("apiKey", r.APIKey, validation.MaxAPIKeyLength); err != nil {
		return err
	}

	endpoints := []struct{ name, value string }{
		{"lobUrl", r.Endpoints.LobURL},
		{"issuerUrl", r.Endpoints.IssuerURL},
		{"verifierUrl", r.Endpoints.VerifierURL},
		{"registryUrl", r.Endpoints.RegistryURL},
	}
	for _, e := range endpoints {
		if err := checkBaseURL(e.name, e.value); err != nil {
			return err
		}
	}
	return nil
}

// checkBaseURL accepts empty values; configured endpoints must be absolute
// http(s) URLs so a typo fails the save instead of every later probe.
func checkBaseURL(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if err := validation.CheckStringLength(fieldName, value, validation.MaxURILength); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be an absolute http(s) url", fieldName))
	}
	return nil
}
