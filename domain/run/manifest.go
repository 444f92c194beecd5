package run

import (
	"fmt"

	"convsim/domain/core"
	"convsim/domain/stats"
)

// Manifest is everything needed to replay a simulation run and check that
// the replay reproduced it
type Manifest struct {
	RunID       core.RunID     `json:"run_id"`
	Fingerprint RunFingerprint `json:"fingerprint"`
	OutcomeHash core.Hash      `json:"outcome_hash"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewManifest records the determinism inputs and outcome hash of r
func NewManifest(r *stats.SimulationRun, codeVersion string) *Manifest {
	return &Manifest{
		RunID:       r.ID,
		Fingerprint: NewRunFingerprint(r.Len(), r.Experiment, r.Unit, r.Seed, codeVersion),
		OutcomeHash: r.Fingerprint(),
		CreatedAt:   core.Now(),
	}
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewInvalidParameterError("manifest.run_id", "cannot be empty")
	}
	if m.Fingerprint.Trials <= 0 {
		return core.NewInvalidParameterError("manifest.trials", "must be positive")
	}
	if m.OutcomeHash == "" {
		return core.NewInvalidParameterError("manifest.outcome_hash", "cannot be empty")
	}
	want := computeRunFingerprint(m.Fingerprint.Trials, m.Fingerprint.Experiment, m.Fingerprint.Unit,
		m.Fingerprint.Seed, m.Fingerprint.CodeVersion)
	if m.Fingerprint.Fingerprint != want {
		return core.NewInvalidParameterError("manifest.fingerprint", "does not match its inputs")
	}
	return nil
}

// Verify reports whether replayed reproduces the recorded outcomes.
func (m *Manifest) Verify(replayed *stats.SimulationRun) error {
	if got := replayed.Fingerprint(); got != m.OutcomeHash {
		return fmt.Errorf("%w: run %s expected outcomes %s, got %s",
			ErrReplayMismatch, m.RunID, m.OutcomeHash.Short(), got.Short())
	}
	return nil
}
