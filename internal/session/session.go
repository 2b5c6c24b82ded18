package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	sessionDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/session"
)

// Revocation reasons, used as the metric label.
const (
	ReasonLogout       = "logout"
	ReasonRevoke       = "revoke"
	ReasonAnonymize    = "anonymize"
	ReasonRefreshReuse = "refresh_reuse"
)

var ErrSessionNotFound = internal.NewNotFoundError("session not found", internal.ErrCodeSessionNotFound)

type Session struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	Current    bool       `json:"current"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type SessionsResponse struct {
	Sessions []*Session `json:"sessions"`
}

func FromDataModel(s *sessionDatamodel.ActiveSession) *Session {
	return &Session{
		ID:         s.ID,
		UserID:     s.UserID,
		IPAddress:  s.IPAddress,
		UserAgent:  s.UserAgent,
		LastSeenAt: s.LastSeenAt,
		ExpiresAt:  s.ExpiresAt,
		RevokedAt:  s.RevokedAt,
		CreatedAt:  s.CreatedAt,
	}
}

func usable(s *sessionDatamodel.ActiveSession, now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
