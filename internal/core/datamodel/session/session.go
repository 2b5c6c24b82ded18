package session

import (
	"time"

	"github.com/google/uuid"
)

// ActiveSession rows are never soft deleted; RevokedAt ends a session and
// the purge worker removes rows past their retention.
type ActiveSession struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID  uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	TokenHash  string     `gorm:"column:token_hash;uniqueIndex;not null"`
	IPAddress  string     `gorm:"column:ip_address"`
	UserAgent  string     `gorm:"column:user_agent"`
	LastSeenAt time.Time  `gorm:"column:last_seen_at;not null"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null;index"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (ActiveSession) TableName() string { return "active_sessions" }
