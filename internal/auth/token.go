package auth

import (
	"errors"
	"fmt"
	"time"

	"task_service/internal/models"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	googleuuid "github.com/google/uuid"
)

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("empty signing secret")
)

type Claims struct {
	Kind  TokenKind   `json:"type"`
	Email string      `json:"email,omitempty"`
	Role  models.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject of the token.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.FromString(c.Subject)
}

type TokenConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService signs and verifies access and refresh tokens with a single
// secret fixed at construction.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	const op = "auth.NewTokenService"

	if cfg.Secret == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported signing algorithm %q", op, cfg.Algorithm)
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%s: token ttl must be positive", op)
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *TokenService) IssueAccess(userID uuid.UUID, email string, role models.Role) (string, error) {
	const op = "auth.IssueAccess"

	token, err := s.sign(Claims{
		Kind:             KindAccess,
		Email:            email,
		Role:             role,
		RegisteredClaims: s.registered(userID, s.accessTTL),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

func (s *TokenService) IssueRefresh(userID uuid.UUID) (string, error) {
	const op = "auth.IssueRefresh"

	token, err := s.sign(Claims{
		Kind:             KindRefresh,
		RegisteredClaims: s.registered(userID, s.refreshTTL),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// IssuePair mints a fresh access and refresh token for user.
func (s *TokenService) IssuePair(user models.User) (models.TokenPair, error) {
	access, err := s.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.IssueRefresh(user.ID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		User:         user,
	}, nil
}

// Verify checks signature, expiry and kind of token. Every failure is
// reported as ErrInvalidToken and the claims are nil.
func (s *TokenService) Verify(token string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Kind)
	}

	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return claims, nil
}

func (s *TokenService) registered(userID uuid.UUID, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        googleuuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *TokenService) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}
