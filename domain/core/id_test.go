package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"run-1", RunID("run-1"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		result, err := ParseRunID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseRunID(%q) expected error, got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRunID(%q) unexpected error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("ParseRunID(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestHashFloats_OrderSensitive(t *testing.T) {
	a := HashFloats([]float64{1, 2, 3})
	b := HashFloats([]float64{1, 2, 3})
	c := HashFloats([]float64{3, 2, 1})

	if a != b {
		t.Errorf("identical sequences hashed differently: %s vs %s", a, b)
	}
	if a == c {
		t.Error("reordered sequence produced the same hash")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Short() length = %d, want 12", len(a.Short()))
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsValidationError(NewInvalidRegionError("no bounds")) {
		t.Error("region error should classify as validation error")
	}
	if !IsValidationError(NewInvalidParameterError("trials", "must be positive")) {
		t.Error("parameter error should classify as validation error")
	}
	if IsValidationError(NewDegenerateDistributionError(3, 10)) {
		t.Error("degenerate distribution is not a validation error")
	}
	if !IsNumericalError(NewDegenerateDistributionError(3, 10)) {
		t.Error("degenerate distribution should classify as numerical error")
	}
}
