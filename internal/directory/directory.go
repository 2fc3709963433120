// Package directory looks members up in the makerspace member directory and
// registers printed labels with it.
package directory

import (
	"context"
	"errors"

	"github.com/existflow/memberbooth/internal/model"
	"github.com/existflow/memberbooth/internal/session"
)

var (
	ErrNoMatchingIdentity = errors.New("directory: no matching member")
	ErrIncorrectPin       = errors.New("directory: incorrect pin code")
	ErrNetwork            = errors.New("directory: network error")
	ErrTooManyAttempts    = errors.New("directory: too many pin attempts")
)

// Directory is what the kiosk needs from the member directory.
type Directory interface {
	// Check returns nil once the directory has a trusted token.
	Check(ctx context.Context) error
	MemberByTag(ctx context.Context, tag string) (model.Member, error)
	MemberByNumberAndPIN(ctx context.Context, number int, pin string) (model.Member, error)
	MemberByNumber(ctx context.Context, number int) (model.Member, error)
	UploadLabel(ctx context.Context, l model.Label) (model.UploadedLabel, error)
}

// LookupKind classifies the outcome of a directory call.
type LookupKind int

const (
	LookupOK LookupKind = iota
	LookupNotFound
	LookupIncorrectPin
	LookupThrottled
	LookupTokenExpired
	LookupNetwork
	LookupUnknown
)

func (k LookupKind) String() string {
	switch k {
	case LookupOK:
		return "ok"
	case LookupNotFound:
		return "not_found"
	case LookupIncorrectPin:
		return "incorrect_pin"
	case LookupThrottled:
		return "throttled"
	case LookupTokenExpired:
		return "token_expired"
	case LookupNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by a Directory to its kind. A directory
// that was never configured counts as an expired token.
func Classify(err error) LookupKind {
	switch {
	case err == nil:
		return LookupOK
	case errors.Is(err, ErrNoMatchingIdentity):
		return LookupNotFound
	case errors.Is(err, ErrIncorrectPin):
		return LookupIncorrectPin
	case errors.Is(err, ErrTooManyAttempts):
		return LookupThrottled
	case errors.Is(err, session.ErrTokenExpired), errors.Is(err, session.ErrNotConfigured):
		return LookupTokenExpired
	case errors.Is(err, ErrNetwork):
		return LookupNetwork
	default:
		return LookupUnknown
	}
}
