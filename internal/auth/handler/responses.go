package handler

import (
	"time"

	"badgeforge/internal/auth/models"
)

type LoginResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MeResponse struct {
	Username         string    `json:"username"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

func toLoginResponse(s *models.Session) *LoginResponse {
	return &LoginResponse{
		Username:  s.Username,
		ExpiresAt: s.ExpiresAt,
	}
}

func toMeResponse(p *models.Principal) *MeResponse {
	return &MeResponse{
		Username:         p.Username,
		SessionExpiresAt: p.SessionExpiresAt,
	}
}
