package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindUpstreamUnavailable
	KindReservationFailure
	KindIneligibleState
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindNotFound:            "not_found",
	KindValidation:          "validation",
	KindUpstreamUnavailable: "upstream_unavailable",
	KindReservationFailure:  "reservation_failure",
	KindIneligibleState:     "ineligible_state",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "internal"
}

// ParseKind is the inverse of Kind.String. Unknown names map to KindInternal.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindInternal
}

// Error carries a Kind so callers can branch with errors.Is instead of
// matching message strings.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against the bare sentinels below, which compare by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrReservationFailure  = &Error{Kind: KindReservationFailure}
	ErrIneligibleState     = &Error{Kind: KindIneligibleState}
)

func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) error {
	return New(KindNotFound, format, args...)
}

func Validation(format string, args ...any) error {
	return New(KindValidation, format, args...)
}

func Upstream(err error, format string, args ...any) error {
	return Wrap(KindUpstreamUnavailable, err, format, args...)
}

func Reservation(format string, args ...any) error {
	return New(KindReservationFailure, format, args...)
}

func Ineligible(format string, args ...any) error {
	return New(KindIneligibleState, format, args...)
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable is true only for failures of a dependency that may succeed on a
// later attempt. Reservation failures and validation errors never are.
func Retryable(err error) bool {
	return KindOf(err) == KindUpstreamUnavailable
}
