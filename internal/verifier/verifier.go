// Package verifier asks the remote session authority whether the caller's
// ambient credentials still back a live session.
package verifier

import (
	"context"
	"fmt"
	"time"
)

// Outcome partitions every verification attempt.
type Outcome int

const (
	Confirmed Outcome = iota + 1
	Denied
	TransportFailure
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Denied:
		return "denied"
	case TransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// DenyReason tells an unauthenticated session apart from an unprivileged one.
// The guard treats both the same way.
type DenyReason int

const (
	Unauthorized DenyReason = iota + 1
	Forbidden
)

func (r DenyReason) String() string {
	switch r {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "none"
	}
}

// VerifiedSession is proof that the authority confirmed the session. Only
// this package can mint one.
type VerifiedSession struct {
	verifiedAt time.Time
	status     int
}

func (s *VerifiedSession) VerifiedAt() time.Time { return s.verifiedAt }
func (s *VerifiedSession) Status() int           { return s.status }

// Result is what one round trip produced. Session is set iff Outcome is
// Confirmed; Reason iff Denied; Err iff TransportFailure.
type Result struct {
	Outcome Outcome
	Reason  DenyReason
	Session *VerifiedSession
	Err     error
}

func (r Result) String() string {
	switch r.Outcome {
	case Denied:
		return fmt.Sprintf("denied(%s)", r.Reason)
	case TransportFailure:
		return fmt.Sprintf("transport_failure(%v)", r.Err)
	default:
		return r.Outcome.String()
	}
}

// Verifier performs the session check. Implementations take credentials
// from the transport, never from the caller.
type Verifier interface {
	Verify(ctx context.Context) Result
}

func confirmed(status int) Result {
	return Result{
		Outcome: Confirmed,
		Session: &VerifiedSession{verifiedAt: time.Now(), status: status},
	}
}

func denied(reason DenyReason) Result {
	return Result{Outcome: Denied, Reason: reason}
}

func transportFailure(err error) Result {
	return Result{Outcome: TransportFailure, Err: err}
}
