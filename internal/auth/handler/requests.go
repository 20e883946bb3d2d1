package handler

import (
	"strings"

	dErrors "badgeforge/pkg/domain-errors"
	"badgeforge/pkg/platform/validation"
)

// LoginRequest carries the credentials for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	// Password is left untouched; trimming would reject legitimate values.
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "username and password are required")
	}
	if err := validation.CheckStringLength("username", r.Username, validation.MaxUsernameLength); err != nil {
		return err
	}
	return validation.CheckStringLength("password", r.Password, validation.MaxPasswordLength)
}
