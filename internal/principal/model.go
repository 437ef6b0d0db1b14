package principal

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("principal not found")
	ErrConflict = errors.New("principal already exists")
)

// Principal is the authenticable account. A principal must carry a
// password hash, an external identity reference, or both; one with
// neither can never authenticate.
type Principal struct {
	ID          string
	Email       string
	Role        string
	Permissions []string

	// PasswordHash is empty for principals created via external sign-in.
	PasswordHash string

	// TFASecret holds the encrypted second-factor secret. The flag flips
	// only after the owner proves possession of the secret once.
	TFAEnabled bool
	TFASecret  string

	// ExternalID is the third-party subject id (e.g. the google "sub").
	ExternalID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sanitized returns a copy safe to hand to callers: no password hash,
// no second-factor secret.
func (p *Principal) Sanitized() *Principal {
	cp := *p
	cp.PasswordHash = ""
	cp.TFASecret = ""
	return &cp
}
