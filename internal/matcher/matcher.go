// Package matcher links staged Garmin activities to Strava runs with a
// tolerance join and copies the Garmin metric snapshot into the matched run.
// Two devices never agree exactly on distance for the same physical run, so
// the join uses date equality plus a relative distance tolerance instead of
// a shared key.
package matcher

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"gopkg.in/guregu/null.v3"

	"github.com/runledger/runledger/internal/convert"
	"github.com/runledger/runledger/internal/models"
)

// DefaultTolerance is the relative distance window for a match: the absolute
// distance difference must be strictly less than 5% of the run's distance.
const DefaultTolerance = 0.05

// Storage is the slice of the store the matcher needs.
type Storage interface {
	UnenrichedRuns(ctx context.Context) ([]models.Run, error)
	GarminRunsOn(ctx context.Context, date string) ([]models.GarminRun, error)
	ApplyEnrichment(ctx context.Context, runs []models.Run) error
}

// Matcher enriches runs from the Garmin staging table.
type Matcher struct {
	store     Storage
	log       *zerolog.Logger
	tolerance float64
}

// New returns a matcher using the default 5% distance tolerance.
func New(store Storage, log *zerolog.Logger) *Matcher {
	return &Matcher{store: store, log: log, tolerance: DefaultTolerance}
}

// Enrich matches every run whose enrichment reference is still absent
// against the Garmin activities of the same calendar date and applies the
// metric snapshot of the best candidate. Runs already enriched are never
// reconsidered, which keeps the pass idempotent. The number of newly
// enriched runs is returned.
//
// When several candidates fall inside the tolerance window the one with the
// smallest distance delta wins; equal deltas resolve to the lowest Garmin
// activity identifier. This rule is deterministic across invocations and
// backends.
func (m *Matcher) Enrich(ctx context.Context) (int, error) {
	runs, err := m.store.UnenrichedRuns(ctx)
	if err != nil {
		return 0, err
	}

	var patches []models.Run
	for _, run := range runs {
		if !run.DistanceKm.Valid || run.DistanceKm.Float64 <= 0 {
			continue
		}

		candidates, err := m.store.GarminRunsOn(ctx, run.Date)
		if err != nil {
			return 0, err
		}

		match := pick(run, candidates, m.tolerance)
		if match == nil {
			continue
		}

		m.log.Debug().
			Int64("run_id", run.ID).
			Int64("garmin_activity_id", match.ActivityID).
			Str("date", run.Date).
			Float64("run_km", run.DistanceKm.Float64).
			Float64("garmin_km", match.DistanceKm.Float64).
			Msg("Matched Garmin activity to run")

		patches = append(patches, apply(run, match))
	}

	if err := m.store.ApplyEnrichment(ctx, patches); err != nil {
		return 0, err
	}
	return len(patches), nil
}

// pick returns the candidate with the smallest distance delta inside the
// tolerance window, or nil when none qualifies. Candidates arrive ordered by
// activity identifier, so a strict improvement test makes the lowest
// identifier win ties.
func pick(run models.Run, candidates []models.GarminRun, tolerance float64) *models.GarminRun {
	window := tolerance * run.DistanceKm.Float64

	var best *models.GarminRun
	bestDelta := math.Inf(1)
	for i := range candidates {
		candidate := &candidates[i]
		if !candidate.DistanceKm.Valid {
			continue
		}
		delta := math.Abs(candidate.DistanceKm.Float64 - run.DistanceKm.Float64)
		if delta >= window {
			continue
		}
		if delta < bestDelta {
			best = candidate
			bestDelta = delta
		}
	}
	return best
}

// apply copies the Garmin metric snapshot onto the run, converting the
// heart-rate-zone durations from milliseconds to whole seconds, and sets the
// enrichment reference.
func apply(run models.Run, match *models.GarminRun) models.Run {
	run.GarminActivityID = null.IntFrom(match.ActivityID)
	run.AerobicTE = match.AerobicTE
	run.AnaerobicTE = match.AnaerobicTE
	run.VO2Max = match.VO2Max
	run.TrainingLoad = match.TrainingLoad
	run.AvgPower = match.AvgPower
	run.MaxPower = match.MaxPower
	run.AvgRunCadence = match.AvgRunCadence
	run.AvgGroundContactMs = match.AvgGroundContactMs
	run.AvgStrideLengthCm = match.AvgStrideLengthCm
	run.AvgVerticalOscCm = match.AvgVerticalOscCm
	run.HRZone1Sec = convert.MsToSec(match.HRZone1Ms)
	run.HRZone2Sec = convert.MsToSec(match.HRZone2Ms)
	run.HRZone3Sec = convert.MsToSec(match.HRZone3Ms)
	run.HRZone4Sec = convert.MsToSec(match.HRZone4Ms)
	run.HRZone5Sec = convert.MsToSec(match.HRZone5Ms)
	return run
}
