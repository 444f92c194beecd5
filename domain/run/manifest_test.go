package run

import (
	"errors"
	"testing"

	"convsim/domain/core"
	"convsim/domain/experiment"
	"convsim/domain/stats"
)

func testRun(values ...float64) *stats.SimulationRun {
	exp := experiment.Context{Visitors: 100, ConversionRate: 0.2}
	return stats.NewSimulationRun(core.NewRunID(), stats.UnitCount, 42, exp, values)
}

func TestRunFingerprint_Deterministic(t *testing.T) {
	exp := experiment.Context{Visitors: 1000, ConversionRate: 0.1}

	fp1 := NewRunFingerprint(10000, exp, stats.UnitCount, 42, "1.0.0")
	fp2 := NewRunFingerprint(10000, exp, stats.UnitCount, 42, "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Seed != 42 {
		t.Errorf("Seed mismatch: %d vs 42", fp1.Seed)
	}
}

func TestRunFingerprint_SensitiveToInputs(t *testing.T) {
	exp := experiment.Context{Visitors: 1000, ConversionRate: 0.1}
	base := NewRunFingerprint(10000, exp, stats.UnitCount, 42, "1.0.0")

	variants := map[string]RunFingerprint{
		"trials":  NewRunFingerprint(9999, exp, stats.UnitCount, 42, "1.0.0"),
		"rate":    NewRunFingerprint(10000, experiment.Context{Visitors: 1000, ConversionRate: 0.11}, stats.UnitCount, 42, "1.0.0"),
		"unit":    NewRunFingerprint(10000, exp, stats.UnitRate, 42, "1.0.0"),
		"seed":    NewRunFingerprint(10000, exp, stats.UnitCount, 43, "1.0.0"),
		"version": NewRunFingerprint(10000, exp, stats.UnitCount, 42, "1.0.1"),
	}
	for name, fp := range variants {
		if fp.Fingerprint == base.Fingerprint {
			t.Errorf("changing %s did not change the fingerprint", name)
		}
	}
}

func TestManifest_VerifyAndValidate(t *testing.T) {
	r := testRun(20, 18, 25)
	m := NewManifest(r, "1.0.0")

	if err := m.Validate(); err != nil {
		t.Fatalf("fresh manifest invalid: %v", err)
	}
	if err := m.Verify(testRun(20, 18, 25)); err != nil {
		t.Errorf("identical outcomes rejected: %v", err)
	}
	if err := m.Verify(testRun(20, 25, 18)); !errors.Is(err, ErrReplayMismatch) {
		t.Errorf("expected ErrReplayMismatch for reordered outcomes, got %v", err)
	}
}

func TestManifest_ValidateRejectsTampering(t *testing.T) {
	m := NewManifest(testRun(1, 2, 3), "1.0.0")
	m.Fingerprint.Seed = 7

	err := m.Validate()
	if !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}

	empty := &Manifest{}
	if err := empty.Validate(); err == nil {
		t.Error("empty manifest should not validate")
	}
}
