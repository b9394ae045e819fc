package authkeep

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/MrEthical07/authkeep/jwt"
)

// Kind classifies engine errors. Each kind has a fixed HTTP status.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalidCredentials
	KindNotFound
	KindConflict
	KindTokenExpired
	KindTokenInvalid
	KindTokenRevoked
	KindValidation
	KindRateLimited
	KindUpstreamUnavailable
	KindForbidden
)

var kindNames = [...]string{
	KindInternal:            "internal",
	KindInvalidCredentials:  "invalid_credentials",
	KindNotFound:            "not_found",
	KindConflict:            "conflict",
	KindTokenExpired:        "token_expired",
	KindTokenInvalid:        "token_invalid",
	KindTokenRevoked:        "token_revoked",
	KindValidation:          "validation_failed",
	KindRateLimited:         "rate_limited",
	KindUpstreamUnavailable: "upstream_unavailable",
	KindForbidden:           "forbidden",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Status is the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindInvalidCredentials, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTokenExpired, KindTokenInvalid, KindTokenRevoked:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

var (
	// Kind sentinels. errors.Is(err, ErrTokenExpired) matches any *Error of that kind.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrValidation          = errors.New("validation failed")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrForbidden           = errors.New("forbidden")
	ErrInternal            = errors.New("internal error")

	// ErrUserNotFound is returned by UserStore lookups for an absent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned by UserStore writes that collide on email or username.
	ErrDuplicateUser = errors.New("duplicate user")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

var kindSentinels = [...]error{
	KindInternal:            ErrInternal,
	KindInvalidCredentials:  ErrInvalidCredentials,
	KindNotFound:            ErrNotFound,
	KindConflict:            ErrConflict,
	KindTokenExpired:        ErrTokenExpired,
	KindTokenInvalid:        ErrTokenInvalid,
	KindTokenRevoked:        ErrTokenRevoked,
	KindValidation:          ErrValidation,
	KindRateLimited:         ErrRateLimited,
	KindUpstreamUnavailable: ErrUpstreamUnavailable,
	KindForbidden:           ErrForbidden,
}

// Error is the engine's typed error. Message is safe to show to clients; Err is the
// cause and is never serialized.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details []string
	Err     error
}

// NewError builds an Error with the kind's default status.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: kind.Status(), Message: message}
}

// ValidationError builds a KindValidation error listing per-field problems.
func ValidationError(message string, details []string) *Error {
	e := NewError(KindValidation, message)
	e.Details = details
	return e
}

func wrapError(kind Kind, message string, err error) *Error {
	e := NewError(kind, message)
	e.Err = err
	return e
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel of e.
func (e *Error) Is(target error) bool {
	return int(e.Kind) < len(kindSentinels) && kindSentinels[e.Kind] == target
}

// KindOf classifies err. Typed errors keep their kind; token and cache sentinels
// from the lower layers are mapped; everything else is internal.
func KindOf(err error) Kind {
	var e *Error
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &e):
		return e.Kind
	case errors.Is(err, jwt.ErrTokenExpired):
		return KindTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalid):
		return KindTokenInvalid
	case errors.Is(err, cache.ErrUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateUser):
		return KindConflict
	default:
		return KindInternal
	}
}

// AsError converts any error into an *Error, keeping typed errors as they are.
// Unclassified errors become KindInternal with a generic message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	kind := KindOf(err)
	msg := "Internal Server Error"
	switch kind {
	case KindTokenExpired:
		msg = "Token expired."
	case KindTokenInvalid:
		msg = "Invalid token."
	case KindUpstreamUnavailable:
		msg = "Service temporarily unavailable"
	case KindNotFound:
		msg = "User not found"
	case KindConflict:
		msg = "User already exists"
	}
	return wrapError(kind, msg, err)
}
