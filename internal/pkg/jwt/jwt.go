package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates access from refresh tokens inside the signed payload.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// ErrInvalidToken is returned for every verification failure. Expired,
// tampered, wrong class and malformed tokens are deliberately not told apart.
var ErrInvalidToken = errors.New("invalid token")

// Identity is what a token asserts about its bearer.
type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// Claims represents JWT claims
type Claims struct {
	UserID  string    `json:"userId"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"isAdmin"`
	Type    TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Identity returns the bearer identity carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, IsAdmin: c.IsAdmin}
}

// Config represents JWT configuration
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
	Audience      string
}

// DefaultConfig returns default JWT configuration
func DefaultConfig(accessSecret, refreshSecret string) Config {
	return Config{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessExpiry:  time.Hour,
		RefreshExpiry: 30 * 24 * time.Hour,
		Issuer:        "oipet-saude",
		Audience:      "oipet-users",
	}
}

// TokenPair is returned on register and login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn" example:"3600"`
}

// Manager issues and verifies both token classes.
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager validates cfg and returns a Manager. now may be nil.
func NewManager(cfg Config, now func() time.Time) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("jwt: both signing secrets are required")
	}
	if cfg.AccessExpiry <= 0 || cfg.RefreshExpiry <= 0 {
		return nil, errors.New("jwt: expiries must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{cfg: cfg, now: now}, nil
}

// AccessExpiry is the configured access token lifetime.
func (m *Manager) AccessExpiry() time.Duration { return m.cfg.AccessExpiry }

// RefreshExpiry is the configured refresh token lifetime.
func (m *Manager) RefreshExpiry() time.Duration { return m.cfg.RefreshExpiry }

// IssueAccessToken signs a short lived access token.
func (m *Manager) IssueAccessToken(id Identity) (string, error) {
	return m.issue(id, TypeAccess)
}

// IssueRefreshToken signs a long lived refresh token with the refresh secret.
func (m *Manager) IssueRefreshToken(id Identity) (string, error) {
	return m.issue(id, TypeRefresh)
}

// IssuePair issues both tokens for id.
func (m *Manager) IssuePair(id Identity) (TokenPair, error) {
	access, err := m.IssueAccessToken(id)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.IssueRefreshToken(id)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.cfg.AccessExpiry.Seconds()),
	}, nil
}

// VerifyAccessToken accepts only a valid token of type access.
func (m *Manager) VerifyAccessToken(token string) (*Claims, error) {
	return m.verify(token, TypeAccess)
}

// VerifyRefreshToken accepts only a valid token of type refresh.
func (m *Manager) VerifyRefreshToken(token string) (*Claims, error) {
	return m.verify(token, TypeRefresh)
}

func (m *Manager) secret(t TokenType) []byte {
	if t == TypeRefresh {
		return []byte(m.cfg.RefreshSecret)
	}
	return []byte(m.cfg.AccessSecret)
}

func (m *Manager) expiry(t TokenType) time.Duration {
	if t == TypeRefresh {
		return m.cfg.RefreshExpiry
	}
	return m.cfg.AccessExpiry
}

func (m *Manager) issue(id Identity, t TokenType) (string, error) {
	if id.UserID == "" {
		return "", errors.New("jwt: user id is required")
	}

	now := m.now()
	claims := &Claims{
		UserID:  id.UserID,
		Email:   id.Email,
		IsAdmin: id.IsAdmin,
		Type:    t,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry(t))),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret(t))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", t, err)
	}
	return signed, nil
}

func (m *Manager) verify(tokenString string, want TokenType) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}
	if m.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.cfg.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret(want), nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	// The secret alone is not trusted to separate the classes.
	if claims.Type != want || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
