// ABOUTME: Observation hooks the engine reports outcomes through
// ABOUTME: Implemented by the metrics package; the default discards everything
package campaign

import (
	"time"

	"github.com/harperreed/outbound/models"
)

// Setup outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

type Recorder interface {
	SetupFinished(outcome string, elapsed time.Duration)
	RoundCommitted(platform models.Platform, assigned int)
	CustomerSkipped(platform models.Platform)
	GeneratorResolved(created bool)
	ExperimentResolved(created bool)
}

type nopRecorder struct{}

func (nopRecorder) SetupFinished(string, time.Duration) {}
func (nopRecorder) RoundCommitted(models.Platform, int) {}
func (nopRecorder) CustomerSkipped(models.Platform) {}
func (nopRecorder) GeneratorResolved(bool) {}
func (nopRecorder) ExperimentResolved(bool) {}
