package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds surfaced by the gateways and the resolver. Match them with
// errors.Is; a *GatewayError matches the sentinel of its Kind.
var (
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrNoToolCall        = errors.New("no tool call detected")
)

// ErrorKind classifies a gateway failure.
type ErrorKind int

const (
	KindTransport ErrorKind = iota + 1
	KindMalformed
	KindNoMatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindNoMatch:
		return "no-match"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindMalformed:
		return ErrMalformedResponse
	case KindNoMatch:
		return ErrNoToolCall
	default:
		return nil
	}
}

// GatewayError records which operation failed, how, and after how many attempts.
type GatewayError struct {
	Kind     ErrorKind
	Op       string
	Attempts int
	Err      error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempt(s)", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *GatewayError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewTransportError wraps err as a transport failure of op.
func NewTransportError(op string, attempts int, err error) *GatewayError {
	return &GatewayError{Kind: KindTransport, Op: op, Attempts: attempts, Err: err}
}

// NewMalformedError wraps err as a malformed-response failure of op.
func NewMalformedError(op string, err error) *GatewayError {
	return &GatewayError{Kind: KindMalformed, Op: op, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not a gateway error.
func KindOf(err error) ErrorKind {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	switch {
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrNoToolCall):
		return KindNoMatch
	}
	return 0
}
