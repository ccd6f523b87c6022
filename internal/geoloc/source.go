// Package geoloc acquires single-shot device position fixes. It is the
// Go-side stand-in for a platform geolocation capability: one fix per
// call, no internal retries, failures mapped to a small set of kinds
// with human-readable messages. Retry policy belongs to the caller.
package geoloc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldforce/punchkit-go/internal/domain/geo"
)

type Kind string

const (
	KindUnsupported         Kind = "UNSUPPORTED"
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindPositionUnavailable Kind = "POSITION_UNAVAILABLE"
	KindTimeout             Kind = "TIMEOUT"
)

// Error is a typed acquisition failure. Message is safe to show to the
// end user; no raw platform codes leak through it.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("geoloc: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the failure kind, or "" for non-geoloc errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Options mirror the platform position-request options.
type Options struct {
	// HighAccuracy asks the device for its best fix (GPS rather than
	// network triangulation).
	HighAccuracy bool

	// Timeout bounds the acquisition. The request fails with
	// KindTimeout instead of hanging.
	Timeout time.Duration

	// MaxAge is the oldest cached fix the caller will accept. Zero
	// means a fresh fix is required.
	MaxAge time.Duration
}

// DefaultOptions are the capture-flow defaults: best accuracy, 15
// second timeout, fresh fix only.
func DefaultOptions() Options {
	return Options{HighAccuracy: true, Timeout: 15 * time.Second}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	return o
}

// PositionSource acquires one device fix per call.
type PositionSource interface {
	Position(ctx context.Context, opts Options) (geo.Coordinate, error)
}
