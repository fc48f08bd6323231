package gfserrors

import (
	"errors"
	"testing"
)

func TestClassifyDirectSentinel(t *testing.T) {
	if got := Classify(ErrNotFound); got != KindNotFound {
		t.Fatalf("Classify(ErrNotFound) = %v, want KindNotFound", got)
	}
}

func TestClassifyWrappedSentinel(t *testing.T) {
	wrapped := Wrap(ErrReplicaUnavailable, "dialing %s", "127.0.0.1:9000")

	if got := Classify(wrapped); got != KindReplicaUnavailable {
		t.Fatalf("Classify(wrapped) = %v, want KindReplicaUnavailable", got)
	}
}

// TestClassifyFlattenedError simulates what a client actually receives
// after a sentinel crosses a net/rpc boundary: net/rpc discards the
// original error value and reconstructs a bare *errors.errorString from
// its message text, so errors.Is against the sentinel can never match.
func TestClassifyFlattenedError(t *testing.T) {
	flattened := errors.New(ErrOtpInvalid.Error())

	if errors.Is(flattened, ErrOtpInvalid) {
		t.Fatal("test setup invalid: flattened error must not be errors.Is the sentinel")
	}

	if got := Classify(flattened); got != KindOtpInvalid {
		t.Fatalf("Classify(flattened) = %v, want KindOtpInvalid via text fallback", got)
	}
}

func TestClassifyUnknown(t *testing.T) {
	if got := Classify(errors.New("something else entirely")); got != KindUnknown {
		t.Fatalf("Classify(unrelated) = %v, want KindUnknown", got)
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil); got != KindUnknown {
		t.Fatalf("Classify(nil) = %v, want KindUnknown", got)
	}
}
