package cc

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/etcd/client/v3/concurrency"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a CoordinationError for the engine's retry/alarm
// treatment (spec.md §7).
type Kind int

const (
	KindTransient Kind = iota
	KindSessionLost
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindSessionLost:
		return "session-lost"
	default:
		return "fatal"
	}
}

// CoordinationError wraps a raw etcd/grpc error with its classification.
// The engine never propagates raw client errors past CC's boundary.
type CoordinationError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *CoordinationError) Error() string {
	return fmt.Sprintf("coordination error [%s] during %s: %v", e.Kind, e.Op, e.Err)
}

func (e *CoordinationError) Unwrap() error { return e.Err }

// Classify converts a raw client error into a CoordinationError. nil
// stays nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CoordinationError{Kind: classifyKind(err), Op: op, Err: err}
}

func classifyKind(err error) Kind {
	if errors.Is(err, context.Canceled) {
		// Shutdown, not a store failure: logged and swallowed, never retried.
		return KindFatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	if errors.Is(err, concurrency.ErrSessionExpired) {
		return KindSessionLost
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return KindTransient
	case codes.Unknown, codes.OK:
		return KindFatal
	default:
		return KindFatal
	}
}
