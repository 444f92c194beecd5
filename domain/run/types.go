package run

import (
	"errors"
	"fmt"

	"convsim/domain/core"
	"convsim/domain/experiment"
	"convsim/domain/stats"
)

// ErrReplayMismatch marks a replayed run whose outcomes differ from the
// manifest.
var ErrReplayMismatch = errors.New("replay mismatch")

// RunFingerprint identifies the inputs that determine a run's outcomes
type RunFingerprint struct {
	Trials      int                `json:"trials"`
	Experiment  experiment.Context `json:"experiment"`
	Unit        stats.Unit         `json:"unit"`
	Seed        int64              `json:"seed"`
	CodeVersion string             `json:"code_version"`
	Fingerprint core.Hash          `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(trials int, exp experiment.Context, unit stats.Unit, seed int64, codeVersion string) RunFingerprint {
	return RunFingerprint{
		Trials:      trials,
		Experiment:  exp,
		Unit:        unit,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(trials, exp, unit, seed, codeVersion),
	}
}

func computeRunFingerprint(trials int, exp experiment.Context, unit stats.Unit, seed int64, codeVersion string) core.Hash {
	data := fmt.Sprintf("trials:%d|visitors:%d|rate:%v|unit:%s|seed:%d|code:%s",
		trials, exp.Visitors, exp.ConversionRate, unit, seed, codeVersion)
	return core.NewHash([]byte(data))
}
