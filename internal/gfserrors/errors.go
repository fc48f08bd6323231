// Package gfserrors defines the stable, transport-independent error
// taxonomy of the coordination plane. RPC handlers return these
// sentinels (or wrap them with Wrap, which keeps the sentinel's text at
// the end of the message) so callers can classify failures with
// Classify instead of matching error strings.
package gfserrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the stable taxonomy buckets.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotLeader
	KindNotFound
	KindCapacityExhausted
	KindReplicaUnavailable
	KindAuthFailed
	KindOtpInvalid
	KindTransient
)

var (
	// ErrNotLeader: the master received a mutation RPC while Shadow.
	ErrNotLeader = errors.New("not the leader")
	// ErrNotFound: unknown file or chunk.
	ErrNotFound = errors.New("not found")
	// ErrCapacityExhausted: placement could not satisfy replication_factor.
	ErrCapacityExhausted = errors.New("capacity exhausted")
	// ErrReplicaUnavailable: a requested replica did not respond.
	ErrReplicaUnavailable = errors.New("replica unavailable")
	// ErrAuthFailed: bad credentials.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrOtpInvalid: missing, unknown, or expired OTP.
	ErrOtpInvalid = errors.New("otp invalid")
	// ErrTransient: a transport-level error; retry with backoff on read,
	// fail fast on write after a bounded attempt budget.
	ErrTransient = errors.New("transient error")
)

var sentinelKind = map[error]Kind{
	ErrNotLeader:          KindNotLeader,
	ErrNotFound:           KindNotFound,
	ErrCapacityExhausted:  KindCapacityExhausted,
	ErrReplicaUnavailable: KindReplicaUnavailable,
	ErrAuthFailed:         KindAuthFailed,
	ErrOtpInvalid:         KindOtpInvalid,
	ErrTransient:          KindTransient,
}

// Classify classifies err against the known sentinels, unwrapping as
// needed. Errors crossing net/rpc arrive as plain *errors.errorString
// (net/rpc re-creates errors from their message on the client side), so
// Classify also falls back to matching on Error() text: an exact match
// or a sentinel text at the end of the message, as Wrap produces.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for sentinel, kind := range sentinelKind {
		if errors.Is(err, sentinel) {
			return kind
		}
	}

	msg := err.Error()
	for sentinel, kind := range sentinelKind {
		if msg == sentinel.Error() || hasSuffix(msg, sentinel.Error()) {
			return kind
		}
	}

	return KindUnknown
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// Wrap annotates a sentinel with context while keeping it unwrappable
// via errors.Is/Classify on the defining side of an RPC (net/rpc itself
// flattens wrapped errors to their message on the wire, see Classify).
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
