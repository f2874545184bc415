package guard

import (
	"errors"
	"fmt"

	"mentor-portal/internal/verifier"
)

var (
	// ErrNoClaim means the browser holds no usable identity claim.
	ErrNoClaim = errors.New("guard: no identity claim")

	// ErrSessionRejected means the authority invalidated the session and the
	// local record was purged.
	ErrSessionRejected = errors.New("guard: session rejected by authority")

	// ErrRoleMismatch means the identity is authenticated but not allowed here.
	ErrRoleMismatch = errors.New("guard: role not allowed")

	// ErrNavigationAbandoned is returned when the caller went away before the
	// verifier answered. Its result was discarded.
	ErrNavigationAbandoned = errors.New("guard: navigation abandoned")
)

// RejectedError carries the authority's deny reason. It matches
// ErrSessionRejected under errors.Is.
type RejectedError struct {
	Reason verifier.DenyReason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrSessionRejected, e.Reason)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrSessionRejected
}

// TransportError means the authority could not give an answer. The local
// record is left alone so a later navigation can still succeed.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("guard: session authority unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
