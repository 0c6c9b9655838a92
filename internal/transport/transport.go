// Package transport holds the outbound HTTP client shared by the OAuth and
// REST clients and maps its failures into the domain error taxonomy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 30 * time.Second

const (
	msgTimeout = "Request timeout - Bitrix24 server is not responding"
	msgNetwork = "Network error - Cannot connect to Bitrix24 server"
)

func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		// Redirects are not followed: a POST would be replayed as a GET.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Classify maps an error returned by http.Client.Do.
func Classify(err error) *domain.Error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return transportError(domain.TransportTimeout, err, msgTimeout)
	case errors.As(err, &dnsErr):
		return transportError(domain.TransportDNS, err, msgNetwork)
	case errors.Is(err, syscall.ECONNREFUSED):
		return transportError(domain.TransportConnectionRefused, err, msgNetwork)
	default:
		return transportError(domain.TransportNetwork, err, msgNetwork)
	}
}

// StatusError classifies a non-2xx response that carried no remote error body.
func StatusError(status int) *domain.Error {
	if status >= 500 {
		e := transportError(domain.TransportServerStatus, nil, fmt.Sprintf("Server error: %d - Bitrix24 server error", status))
		e.Status = status
		return e
	}
	e := transportError(domain.TransportClientStatus, nil, fmt.Sprintf("Client error: %d - %s", status, http.StatusText(status)))
	e.Status = status
	return e
}

func transportError(kind domain.TransportKind, err error, msg string) *domain.Error {
	return &domain.Error{
		Kind:      domain.ErrTransport,
		Message:   msg,
		Transport: kind,
		Err:       err,
	}
}
