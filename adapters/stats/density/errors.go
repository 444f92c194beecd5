package density

import (
	"fmt"

	"convsim/domain/core"
)

// Stage names used in EstimationError.
const (
	StageDensity = "density"
	StageRegion  = "region"
)

// EstimationError ties an estimator failure to the run it was computing.
// Callers can keep going with other runs; errors.Is still matches the domain
// sentinel underneath.
type EstimationError struct {
	RunID core.RunID
	Stage string
	Err   error
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("%s estimation failed for run %s: %v", e.Stage, e.RunID, e.Err)
}

func (e *EstimationError) Unwrap() error {
	return e.Err
}

func estimationError(runID core.RunID, stage string, err error) error {
	return &EstimationError{RunID: runID, Stage: stage, Err: err}
}
