// ABOUTME: Full experimental setup: resolves the generator, then runs sequential assignment rounds
// ABOUTME: Rounds are independent commits; a stopped setup keeps the rounds that already landed
package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/outbound/models"
)

// SetupRequest asks for Rounds experiments of Trials customers each.
type SetupRequest struct {
	VariableGeneratorIDs []int64         `json:"variableGeneratorIDs"`
	Trials               int             `json:"trials"`
	Rounds               int             `json:"rounds"`
	Platform             models.Platform `json:"platform"`
	Country              string          `json:"country"`
	OwnerEmail           string          `json:"ownerEmail,omitempty"`
}

// Validate checks everything but the country, which has its own error.
func (r SetupRequest) Validate() error {
	if !r.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidRequest, r.Platform)
	}
	if n := len(r.VariableGeneratorIDs); n == 0 || n > models.MaxArms {
		return fmt.Errorf("%w: need 1 to %d variable generators, got %d", ErrInvalidRequest, models.MaxArms, n)
	}
	if r.Trials < 1 {
		return fmt.Errorf("%w: trials must be positive", ErrInvalidRequest)
	}
	if r.Rounds < 1 {
		return fmt.Errorf("%w: rounds must be positive", ErrInvalidRequest)
	}
	return nil
}

// SetupResult lists the generator used and every committed round.
type SetupResult struct {
	ExperimentGenerator models.ExperimentGenerator `json:"experimentGenerator"`
	GeneratorCreated    bool                       `json:"generatorCreated"`
	Rounds              []RoundResult              `json:"rounds"`
}

// FullExperimentalSetup runs the whole request. When it stops early the
// returned result holds the committed rounds and the error is a
// *PartialSetupError wrapping the cause.
func (e *Engine) FullExperimentalSetup(ctx context.Context, req SetupRequest) (result *SetupResult, err error) {
	start := time.Now()
	defer func() {
		outcome := OutcomeSuccess
		switch {
		case err != nil && result != nil && len(result.Rounds) > 0:
			outcome = OutcomePartial
		case err != nil:
			outcome = OutcomeFailed
		}
		e.recorder.SetupFinished(outcome, time.Since(start))
	}()

	if strings.TrimSpace(req.Country) == "" {
		return nil, ErrMissingCountry
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := e.log.With("platform", string(req.Platform), "country", req.Country, "owner_email", req.OwnerEmail)

	var exclude int64
	existing, err := e.FindExperimentGenerator(ctx, req.VariableGeneratorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up experiment generator: %w", err)
	}
	if existing != nil {
		exclude = existing.ID
	}

	customers, err := e.EligibleCustomers(ctx, req.Platform, req.Country, exclude)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		log.Warn("no eligible customers")
		return nil, fmt.Errorf("no eligible %s customers in %s: %w", req.Platform, req.Country, ErrInsufficientCustomers)
	}

	eg, created, err := e.ResolveExperimentGenerator(ctx, req.VariableGeneratorIDs, req.Platform, req.OwnerEmail)
	if err != nil {
		return nil, err
	}

	bank, err := e.BuildVariableBank(ctx, eg)
	if err != nil {
		return nil, err
	}

	// Agenda tasks are only queued for the phone workflow.
	taskOwner := ""
	if req.Platform == models.PlatformPhone {
		taskOwner = req.OwnerEmail
	}

	result = &SetupResult{ExperimentGenerator: *eg, GeneratorCreated: created}
	pool := NewPool(req.Platform, customers)
	log.Info("setup started", "experiment_generator_id", eg.ID, "pool", pool.Len(), "rounds", req.Rounds, "trials", req.Trials)

	stop := func(cause error) (*SetupResult, error) {
		log.Warn("setup stopped", "committed", len(result.Rounds), "requested", req.Rounds, "error", cause)
		return result, &PartialSetupError{Committed: len(result.Rounds), Requested: req.Rounds, Err: cause}
	}

	for round := 1; round <= req.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return stop(err)
		}
		if pool.Len() < req.Trials {
			return stop(fmt.Errorf("round %d needs %d customers, %d left: %w", round, req.Trials, pool.Len(), ErrInsufficientCustomers))
		}

		exp, expCreated, err := e.ResolveExperiment(ctx, eg, bank, req.OwnerEmail)
		if err != nil {
			return stop(err)
		}

		sample := e.sample(pool, req.Trials)
		rr, err := e.AssignRound(ctx, exp, sample, req.Platform, taskOwner)
		if err != nil {
			return stop(err)
		}
		rr.ExperimentCreated = expCreated
		result.Rounds = append(result.Rounds, *rr)

		pool.Remove(sample)
	}

	log.Info("setup finished", "experiment_generator_id", eg.ID, "rounds", len(result.Rounds))
	return result, nil
}
