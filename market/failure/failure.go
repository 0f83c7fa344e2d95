// Package failure defines the error kinds surfaced by the marketplace client.
//
// Every error returned above the contract gateway matches exactly one of the
// sentinel kinds below with errors.Is, while still carrying the low-level
// cause for diagnostics.
package failure

import (
	"errors"
	"strings"
)

var (
	// Connectivity
	ErrWalletUnavailable   = errors.New("wallet unavailable")
	ErrUserRejected        = errors.New("user rejected the request")
	ErrNoAuthorizedAccount = errors.New("no authorized account")
	ErrNotConnected        = errors.New("wallet not connected")

	// Ledger
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrLedger       = errors.New("ledger call failed")

	// Local
	ErrInvalidInput = errors.New("invalid input")

	// Content store
	ErrContentUnavailable = errors.New("content unavailable")
	ErrUploadFailed       = errors.New("upload failed")
)

var kinds = []error{
	ErrWalletUnavailable,
	ErrUserRejected,
	ErrNoAuthorizedAccount,
	ErrNotConnected,
	ErrUnauthorized,
	ErrNotFound,
	ErrLedger,
	ErrInvalidInput,
	ErrContentUnavailable,
	ErrUploadFailed,
}

// Error is a classified failure. Msg is meant for humans, Err is the
// underlying technical cause and may be nil.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns a classified error without an underlying cause.
func New(kind error, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind error, op string, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the sentinel kind err belongs to, or nil if it is
// unclassified.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns the human readable part of a classified error, falling
// back to the full error text.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) && fe.Msg != "" {
		return fe.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
