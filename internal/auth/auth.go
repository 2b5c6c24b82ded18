package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID uuid.UUID  `json:"company_id"`
	RoleID    *uuid.UUID `json:"role_id,omitempty"`
	Email     string     `json:"email"`
	SessionID uuid.UUID  `json:"-"`
}

func (p *Principal) Owns(ownerID uuid.UUID) bool {
	return p != nil && p.ID != uuid.Nil && p.ID == ownerID
}

// Credentials is what login needs to know about a user.
type Credentials struct {
	UserID       uuid.UUID
	CompanyID    uuid.UUID
	RoleID       *uuid.UUID
	Email        string
	PasswordHash string
	IsActive     bool
}

func (c *Credentials) Principal() Principal {
	return Principal{ID: c.UserID, CompanyID: c.CompanyID, RoleID: c.RoleID, Email: c.Email}
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ClientMeta describes the device a session is opened from.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT token claims
type Claims struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	RoleID    string `json:"role_id,omitempty"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() (*Principal, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	companyID, err := uuid.Parse(c.CompanyID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	sessionID, err := uuid.Parse(c.SessionID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	p := &Principal{ID: userID, CompanyID: companyID, Email: c.Email, SessionID: sessionID}
	if c.RoleID != "" {
		roleID, err := uuid.Parse(c.RoleID)
		if err != nil {
			return nil, internal.ErrInvalidToken
		}
		p.RoleID = &roleID
	}
	return p, nil
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(p Principal) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(p Principal) (token string, expiresAt time.Time, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*Credentials, error)
	FindByID(ctx context.Context, userID uuid.UUID) (*Credentials, error)
}

type SessionStart struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	CompanyID        uuid.UUID
	RefreshTokenHash string
	IPAddress        string
	UserAgent        string
	ExpiresAt        time.Time
}

// SessionTracker backs every issued token pair with an ActiveSession row.
type SessionTracker interface {
	Start(ctx context.Context, s SessionStart) error
	// Check returns internal.ErrSessionRevoked when the session is no longer usable.
	Check(ctx context.Context, sessionID uuid.UUID) error
	Rotate(ctx context.Context, sessionID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	End(ctx context.Context, sessionID uuid.UUID) error
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO, meta ClientMeta) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	Logout(ctx context.Context, p *Principal) error
	ResolvePrincipal(ctx context.Context, accessToken string) (*Principal, error)
}

var ErrUserNotFound = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)

// HashToken is the at-rest form of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type ctxKey string

const contextPrincipalKey ctxKey = "principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextPrincipalKey).(*Principal)
	return p, ok && p != nil
}
