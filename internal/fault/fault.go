// Package fault defines the closed error taxonomy for the collection pipeline.
// Callers branch on Kind rather than matching message text.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind uint8

const (
	// KindStructural marks a raw record missing a required nested field.
	// Fatal for that record only, never for the batch.
	KindStructural Kind = iota + 1

	// KindValidation marks a field that is present but malformed.
	// Fatal for that record only.
	KindValidation

	// KindTransport marks a network-level failure (timeout, refused
	// connection, DNS, non-2xx status). Retryable at cycle level.
	KindTransport

	// KindProtocol marks a GraphQL-level error array in an otherwise
	// successful response. Retryable at cycle level.
	KindProtocol

	// KindSerialization marks an encode/decode failure. Retryable at cycle
	// level since it may be transient upstream corruption.
	KindSerialization

	// KindSink marks a publish failure. Retryable at cycle level.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindSerialization:
		return "serialization"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Error is the single error type carried through the pipeline. Context is
// structured so callers never have to parse prose.
type Error struct {
	Kind    Kind
	Source  string // upstream source label ("V2", "V3"), if applicable
	Field   string // offending field for structural failures
	Attempt int    // retry attempt that produced the error, if applicable
	Err     error  // wrapped cause
	Msg     string // short description when there is no wrapped cause
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Source != "" {
		fmt.Fprintf(&b, " source=%s", e.Source)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field=%s", e.Field)
	}
	if e.Attempt > 0 {
		fmt.Fprintf(&b, " attempt=%d", e.Attempt)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Structural reports a missing required nested field in a raw record.
func Structural(source, field string) *Error {
	return &Error{Kind: KindStructural, Source: source, Field: field, Msg: "missing required field"}
}

// Validation reports a raw record field that is present but malformed.
func Validation(source, field, reason string) *Error {
	return &Error{Kind: KindValidation, Source: source, Field: field, Msg: reason}
}

// Transport reports a network-level failure against an upstream source.
func Transport(source string, err error) *Error {
	return &Error{Kind: KindTransport, Source: source, Err: err}
}

// Protocol reports GraphQL-level errors returned by an upstream source.
func Protocol(source string, messages ...string) *Error {
	return &Error{Kind: KindProtocol, Source: source, Msg: strings.Join(messages, "; ")}
}

// Serialization reports an encode/decode failure.
func Serialization(source string, err error) *Error {
	return &Error{Kind: KindSerialization, Source: source, Err: err}
}

// Sink reports a publish failure.
func Sink(err error) *Error {
	return &Error{Kind: KindSink, Err: err}
}

// WithAttempt returns a copy of err annotated with the retry attempt number
// when err is a fault error; otherwise err is returned unchanged.
func WithAttempt(err error, attempt int) error {
	var fe *Error
	if errors.As(err, &fe) {
		cp := *fe
		cp.Attempt = attempt
		return &cp
	}
	return err
}

// kinder is implemented by error types outside this package that still belong
// to the taxonomy (the model package's validation error).
type kinder interface {
	FaultKind() Kind
}

// KindOf extracts the taxonomy kind from err.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	var k kinder
	if errors.As(err, &k) {
		return k.FaultKind(), true
	}
	return 0, false
}

// Retryable reports whether err escalates through the cycle retry loop.
// Per-record kinds (structural, validation) are counted and skipped instead.
func Retryable(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	switch k {
	case KindTransport, KindProtocol, KindSerialization, KindSink:
		return true
	default:
		return false
	}
}
