package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// ErrorKind classifies a gateway failure so callers can decide between
// fallback, reconnect, and "re-auth needed" without string matching.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConfigurationAbsent: no subject or credential configured.
	KindConfigurationAbsent
	// KindTransient: connection drop, timeout, open circuit, upstream 5xx.
	KindTransient
	// KindAuthorization: non-2xx from an authenticated endpoint.
	KindAuthorization
	// KindMalformed: the payload did not have the expected shape.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfigurationAbsent:
		return "configuration_absent"
	case KindTransient:
		return "transient"
	case KindAuthorization:
		return "authorization"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 4 << 10

// Error is the error type returned by every gateway in this module.
type Error struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %v", e.Op, e.Err)
		}
		return e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps a transport-level failure.
func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// Malformed wraps a decode failure.
func Malformed(op string, err error) *Error {
	return &Error{Kind: KindMalformed, Op: op, Err: err}
}

// ConfigurationAbsent reports a missing subject or credential.
func ConfigurationAbsent(op, what string) *Error {
	return &Error{Kind: KindConfigurationAbsent, Op: op, Err: fmt.Errorf("%s not configured", what)}
}

// StatusError builds an error from a non-2xx response, reading (and
// truncating) its body for display. The caller still owns resp.Body.
func StatusError(op string, kind ErrorKind, resp *http.Response) *Error {
	body := ""
	if resp.Body != nil {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		body = strings.TrimSpace(string(raw))
	}
	return &Error{Kind: kind, Op: op, StatusCode: resp.StatusCode, Body: body}
}

// KindOf classifies any error. Errors that did not come from a gateway are
// classified by shape: context, network and open-circuit failures are
// transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindUnknown
}

// StatusCode extracts the upstream status code, or 0.
func StatusCode(err error) int {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode
	}
	return 0
}
