package experiment

import (
	"errors"
	"math"
	"testing"

	"convsim/domain/core"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		visitors int
		rate     float64
		wantErr  bool
	}{
		{"typical", 1000, 0.10, false},
		{"rate zero", 10, 0, false},
		{"rate one", 10, 1, false},
		{"zero visitors", 0, 0.1, true},
		{"negative visitors", -5, 0.1, true},
		{"rate above one", 10, 1.01, true},
		{"negative rate", 10, -0.01, true},
		{"nan rate", 10, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.visitors, tt.rate)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidParameter) {
					t.Errorf("New(%d, %g) error = %v, want ErrInvalidParameter", tt.visitors, tt.rate, err)
				}
				return
			}
			if err != nil {
				t.Errorf("New(%d, %g) unexpected error: %v", tt.visitors, tt.rate, err)
			}
		})
	}
}

func TestStandardError(t *testing.T) {
	c := Context{Visitors: 1000, ConversionRate: 0.10}
	want := math.Sqrt(0.1 * 0.9 / 1000)
	if got := c.StandardError(); math.Abs(got-want) > 1e-15 {
		t.Errorf("StandardError() = %g, want %g", got, want)
	}
	if got := c.ExpectedConversions(); got != 100 {
		t.Errorf("ExpectedConversions() = %g, want 100", got)
	}
	if got := (Context{Visitors: 50, ConversionRate: 1}).StandardError(); got != 0 {
		t.Errorf("StandardError() at rate 1 = %g, want 0", got)
	}
}
