// Package quotaerrors classifies the failures the model engine produces
// so callers (the worker epoch loop, the fanout RPC layer, the
// management API) can decide whether to retry, skip a segment, or abort
// an epoch (§7).
package quotaerrors

import (
	"errors"
	"fmt"
)

// Kind classifies a QuotaError by how a caller should react to it (§7).
type Kind string

const (
	// KindTransient covers failures expected to clear on their own: a
	// segment unreachable for one epoch, a context deadline. Fanout
	// skips the affected segment and continues the epoch.
	KindTransient Kind = "transient"

	// KindOverflow covers bounded structures that filled up: the
	// active-table map, the relation cache, the blocklist. The epoch
	// continues with reduced accuracy rather than aborting.
	KindOverflow Kind = "overflow"

	// KindConfiguration covers bad input: a malformed quota limit
	// string, an unknown quota type, a missing quota target row.
	KindConfiguration Kind = "configuration"

	// KindMailbox covers failures in the ExtensionDDLMessage protocol
	// between the launcher and a per-database worker (§5).
	KindMailbox Kind = "mailbox"

	// KindFatal covers failures that leave a worker's state
	// inconsistent and require the worker to exit so the launcher can
	// restart it.
	KindFatal Kind = "fatal"
)

// QuotaError wraps an underlying error with a Kind and the name of the
// operation (Op) that failed.
type QuotaError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *QuotaError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// New builds a QuotaError of the given Kind.
func New(kind Kind, op string, err error) *QuotaError {
	return &QuotaError{Kind: kind, Op: op, Err: err}
}

// Transient wraps err as a KindTransient QuotaError.
func Transient(op string, err error) *QuotaError { return New(KindTransient, op, err) }

// Overflow wraps err as a KindOverflow QuotaError.
func Overflow(op string, err error) *QuotaError { return New(KindOverflow, op, err) }

// Configuration wraps err as a KindConfiguration QuotaError.
func Configuration(op string, err error) *QuotaError { return New(KindConfiguration, op, err) }

// Mailbox wraps err as a KindMailbox QuotaError.
func Mailbox(op string, err error) *QuotaError { return New(KindMailbox, op, err) }

// Fatal wraps err as a KindFatal QuotaError.
func Fatal(op string, err error) *QuotaError { return New(KindFatal, op, err) }

// Is reports whether err is a QuotaError of the given Kind.
func Is(err error, kind Kind) bool {
	var qe *QuotaError
	if errors.As(err, &qe) {
		return qe.Kind == kind
	}
	return false
}

// QuotaViolationError is returned by the enforcement gate when a
// relation's target is over its limit (§4.6).
type QuotaViolationError struct {
	RelationID int64
	LimitMB    int64
	UsedBytes  int64
	Reason     string
}

func (e *QuotaViolationError) Error() string {
	return fmt.Sprintf("relation %d exceeds quota: used=%d bytes limit=%dMB (%s)",
		e.RelationID, e.UsedBytes, e.LimitMB, e.Reason)
}
