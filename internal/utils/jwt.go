package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA‑256 hashing for persisted refresh tokens
	"encoding/hex"  // hex encoding of digests
	"errors"        // sentinel errors
	"time"          // expirations and clock injection

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
	"github.com/google/uuid"       // random token ids
)

var (
	// ErrMissingSecret means a signing secret is empty.  It is a
	// configuration fault and must stop the process.
	ErrMissingSecret = errors.New("token signing secret is not set")
	// ErrSameSecret means both token kinds would share a key.
	ErrSameSecret = errors.New("access and refresh secrets must differ")
	// ErrTokenExpired is returned when exp is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, wrong algorithms, missing or
	// malformed claims and tokens that are not valid yet.
	ErrTokenInvalid = errors.New("invalid token")
)

// AccessClaims are embedded in every access token.
type AccessClaims struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims are embedded in every refresh token.  They carry no role:
// the role is re-read from the store when the pair is renewed.
type RefreshClaims struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// TokenPair is what login, register and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// TokenIssuer signs and verifies both token kinds.  Access and refresh
// tokens use distinct HS256 keys so neither can stand in for the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// Option customises a TokenIssuer.
type Option func(*TokenIssuer)

// WithClock replaces time.Now, for issuing and for verifying.
func WithClock(now func() time.Time) Option {
	return func(t *TokenIssuer) { t.now = now }
}

// NewTokenIssuer validates the secrets up front so that a misconfigured
// process fails at startup instead of on the first login.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if accessSecret == refreshSecret {
		return nil, ErrSameSecret
	}
	t := &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// IssuePair signs a fresh access token {id, login, role} and refresh token
// {id, login}.  Each token gets a random jti, so two pairs issued within the
// same second are still different strings.
func (t *TokenIssuer) IssuePair(id, login, role string) (TokenPair, error) {
	now := t.now().UTC()
	accessExp := now.Add(t.accessTTL)
	refreshExp := now.Add(t.refreshTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		ID:    id,
		Login: login,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
			ID:        uuid.NewString(),
		},
	}).SignedString(t.accessSecret)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		ID:    id,
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        uuid.NewString(),
		},
	}).SignedString(t.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, AccessExp: accessExp, RefreshToken: refresh, RefreshExp: refreshExp}, nil
}

// ParseAccess verifies an access token and returns its claims.
func (t *TokenIssuer) ParseAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(raw, claims, t.accessSecret); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Login == "" || claims.Role == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token's signature and expiry.  It does not
// consult the store; the caller must still match it against the persisted value.
func (t *TokenIssuer) ParseRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.parse(raw, claims, t.refreshSecret); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (t *TokenIssuer) parse(raw string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(tok *jwt.Token) (interface{}, error) {
			if tok.Method != jwt.SigningMethodHS256 {
				return nil, ErrTokenInvalid
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// HashRefresh returns the SHA‑256 hex digest of a refresh token.  Only the
// digest is persisted, so a leaked users table cannot be replayed.
func HashRefresh(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
