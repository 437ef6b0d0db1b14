package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/valtervalik/InstaShare/internal/principal"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid covers every verification failure: bad signature,
// wrong algorithm, malformed input, expiry. Callers get no finer
// detail than this.
var ErrTokenInvalid = errors.New("token invalid")

var validMethods = []string{jwt.SigningMethodHS256.Alg()}

// AccessClaims assert identity plus a role/permission snapshot taken
// at issuance time. Access tokens are stateless and never revoked
// individually; exposure is bounded by their TTL.
type AccessClaims struct {
	Role        string   `json:"role"`
	Permissions []string `json:"perms"`
	jwt.RegisteredClaims
}

// SessionClaims assert identity plus the renewable session id that
// must still match the session registry at renewal time.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies the two token kinds. TTLs come from
// configuration, never hardcoded.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	sessionTTL time.Duration
}

func NewIssuer(secret string, accessTTL, sessionTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		sessionTTL: sessionTTL,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) SessionTTL() time.Duration { return i.sessionTTL }

func (i *Issuer) IssueAccessToken(p *principal.Principal) (string, error) {
	now := time.Now()

	claims := AccessClaims{
		Role:        p.Role,
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign access token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) IssueSessionToken(p *principal.Principal, sessionID string) (string, error) {
	now := time.Now()

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.sessionTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign session token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) VerifyAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.verify(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) VerifySessionToken(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := i.verify(raw, claims); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (i *Issuer) verify(raw string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods(validMethods),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
