package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/core/common/validation"
)

// Service is the main auth service with dependencies
type Service struct {
	repo     CredentialRepository
	tokens   TokenGeneratorAPI
	sessions SessionTracker
	logger   *slog.Logger
}

// NewService creates a new auth service. sessions may be nil, in which case
// tokens are accepted until they expire.
func NewService(repo CredentialRepository, tokens TokenGeneratorAPI, sessions SessionTracker, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
	}
}

// Authenticate validates credentials, opens a session and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO, meta ClientMeta) (AuthTokens, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if appErr := validation.Struct(dto); appErr != nil {
		return AuthTokens{}, appErr
	}

	creds, err := s.repo.FindByEmail(ctx, dto.Email)
	if err != nil {
		if internal.ErrorTypeOf(err) == internal.ErrorTypeNotFound {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		return AuthTokens{}, internal.NewInternalError("failed to load credentials", err)
	}

	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login failed: password mismatch", "user_id", creds.UserID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	p := creds.Principal()
	p.SessionID = uuid.New()

	tokens, refreshExp, err := s.issue(p)
	if err != nil {
		return AuthTokens{}, err
	}

	if s.sessions != nil {
		err := s.sessions.Start(ctx, SessionStart{
			ID:               p.SessionID,
			UserID:           p.ID,
			CompanyID:        p.CompanyID,
			RefreshTokenHash: HashToken(tokens.RefreshToken),
			IPAddress:        meta.IPAddress,
			UserAgent:        meta.UserAgent,
			ExpiresAt:        refreshExp,
		})
		if err != nil {
			return AuthTokens{}, err
		}
	}

	s.logger.Info("user logged in", "user_id", p.ID, "company_id", p.CompanyID, "session_id", p.SessionID)
	return tokens, nil
}

// RefreshTokens validates a refresh token and rotates the pair. Role and
// active flag are re-read so a deactivated user cannot refresh.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	if refreshToken == "" {
		return AuthTokens{}, internal.NewValidationFieldError("refresh_token", "refresh_token is required", internal.ErrCodeValidationFailed)
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	prev, err := claims.Principal()
	if err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.FindByID(ctx, prev.ID)
	if err != nil {
		if internal.ErrorTypeOf(err) == internal.ErrorTypeNotFound {
			return AuthTokens{}, internal.ErrInvalidToken
		}
		return AuthTokens{}, internal.NewInternalError("failed to load credentials", err)
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	p := creds.Principal()
	p.SessionID = prev.SessionID

	tokens, refreshExp, err := s.issue(p)
	if err != nil {
		return AuthTokens{}, err
	}

	if s.sessions != nil {
		if err := s.sessions.Rotate(ctx, p.SessionID, HashToken(refreshToken), HashToken(tokens.RefreshToken), refreshExp); err != nil {
			return AuthTokens{}, err
		}
	}

	return tokens, nil
}

// Logout ends the session behind the caller's token.
func (s *Service) Logout(ctx context.Context, p *Principal) error {
	if p == nil {
		return internal.ErrInvalidToken
	}
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.End(ctx, p.SessionID); err != nil {
		return err
	}
	s.logger.Info("user logged out", "user_id", p.ID, "session_id", p.SessionID)
	return nil
}

// ResolvePrincipal validates an access token and its session.
func (s *Service) ResolvePrincipal(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	p, err := claims.Principal()
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		if err := s.sessions.Check(ctx, p.SessionID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Service) issue(p Principal) (AuthTokens, time.Time, error) {
	accessToken, accessExp, err := s.tokens.GenerateAccessToken(p)
	if err != nil {
		return AuthTokens{}, time.Time{}, internal.NewInternalError("failed to sign access token", err)
	}
	refreshToken, refreshExp, err := s.tokens.GenerateRefreshToken(p)
	if err != nil {
		return AuthTokens{}, time.Time{}, internal.NewInternalError("failed to sign refresh token", err)
	}
	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessExp,
	}, refreshExp, nil
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * 7 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		Issuer:             "gogotime",
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(p Principal) (string, time.Time, error) {
	return j.sign(p, TokenTypeAccess, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(p Principal) (string, time.Time, error) {
	return j.sign(p, TokenTypeRefresh, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(p Principal, tokenType string, ttl time.Duration, secret []byte) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID:    p.ID.String(),
		CompanyID: p.CompanyID.String(),
		Email:     p.Email,
		SessionID: p.SessionID.String(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.Issuer,
			Subject:   p.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if p.RoleID != nil {
		claims.RoleID = p.RoleID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeAccess, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeRefresh, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString, tokenType string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
