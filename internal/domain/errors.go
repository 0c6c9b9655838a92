package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; *Error values compare equal to their kind.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrRemoteAuth    = errors.New("remote auth error")
	ErrNoCredential  = errors.New("no credential")
	ErrRefreshFailed = errors.New("refresh failed")
	ErrUpstreamAPI   = errors.New("upstream api error")
	ErrTransport     = errors.New("transport error")
	ErrNotFound      = errors.New("not found")
	ErrInternal      = errors.New("internal error")
)

// TransportKind subdivides ErrTransport.
type TransportKind string

const (
	TransportTimeout           TransportKind = "timeout"
	TransportDNS               TransportKind = "dns"
	TransportConnectionRefused TransportKind = "connection_refused"
	TransportClientStatus      TransportKind = "client_status"
	TransportServerStatus      TransportKind = "server_status"
	TransportNetwork           TransportKind = "network"
)

type Error struct {
	Kind      error
	Message   string
	Code      string        // remote error code, when the remote supplied one
	Transport TransportKind // set for ErrTransport
	Status    int           // remote HTTP status, when known
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewError builds an *Error of the given kind with a formatted message.
func NewError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError is NewError with a cause attached.
func WrapError(kind error, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

var kinds = []error{
	ErrValidation,
	ErrConfiguration,
	ErrRemoteAuth,
	ErrNoCredential,
	ErrRefreshFailed,
	ErrUpstreamAPI,
	ErrTransport,
	ErrNotFound,
	ErrInternal,
}

// KindOf returns the taxonomy kind of err, or ErrInternal when unclassified.
// The outermost *Error decides, so a refresh failure caused by a remote auth
// error reports ErrRefreshFailed.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) && de.Kind != nil {
		for _, k := range kinds {
			if de.Kind == k {
				return k
			}
		}
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Message returns the human-readable reason of the outermost *Error in the
// chain, falling back to err.Error().
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// KindName is the short, stable name of an error kind used in API bodies and
// metric labels.
func KindName(kind error) string {
	switch kind {
	case nil:
		return "ok"
	case ErrValidation:
		return "validation"
	case ErrConfiguration:
		return "configuration"
	case ErrRemoteAuth:
		return "remote_auth"
	case ErrNoCredential:
		return "no_credential"
	case ErrRefreshFailed:
		return "refresh_failed"
	case ErrUpstreamAPI:
		return "upstream_api"
	case ErrTransport:
		return "transport"
	case ErrNotFound:
		return "not_found"
	default:
		return "internal"
	}
}
