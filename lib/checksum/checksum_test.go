package checksum

import "testing"

func TestCalculateDeterministic(t *testing.T) {
	data := []byte("hello chunk")

	if Calculate(data) != Calculate(data) {
		t.Error("Calculate should be deterministic for the same input")
	}
}

func TestCalculateDetectsDifference(t *testing.T) {
	if Calculate([]byte("hello")) == Calculate([]byte("world")) {
		t.Error("different inputs should very likely produce different checksums")
	}
}
