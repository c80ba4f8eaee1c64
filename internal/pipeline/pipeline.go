// Package pipeline wires the source parsers, the store, and the matcher into
// the single-threaded ingestion sequence: Strava, commit, Garmin, commit,
// match and enrich, commit, Oura, commit. The unit of atomicity is one
// source's full batch; a storage failure aborts the invocation while a
// missing source only contributes zero records.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/runledger/runledger/internal/matcher"
	"github.com/runledger/runledger/internal/sources"
	"github.com/runledger/runledger/internal/sources/garmin"
	"github.com/runledger/runledger/internal/sources/oura"
	"github.com/runledger/runledger/internal/sources/strava"
	"github.com/runledger/runledger/internal/store"
	"github.com/runledger/runledger/pkg/errors"
	"github.com/runledger/runledger/pkg/logging"
)

// Pipeline runs one batch ingestion over a data directory. It assumes
// exclusive single-writer access to the store for the duration of the run.
type Pipeline struct {
	store   *store.Store
	strava  *strava.Parser
	garmin  *garmin.Parser
	oura    *oura.Parser
	matcher *matcher.Matcher
}

// Result carries the per-source record counts and the final summary that are
// always reported on success.
type Result struct {
	Strava   sources.Stats
	Garmin   sources.Stats
	Oura     sources.Stats
	Enriched int
	Summary  *store.Summary
}

// New builds a pipeline over an opened store. The logger is handed to the
// parsers and the matcher for their per-record diagnostics; stage-level
// progress is logged through the context passed to Ingest.
func New(s *store.Store, log *zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:   s,
		strava:  strava.New(log),
		garmin:  garmin.New(log),
		oura:    oura.New(log),
		matcher: matcher.New(s, log),
	}
}

// Ingest executes the full sequence against dataDir. Safe to re-run over the
// same input: the per-table conflict policies make repeated invocations
// converge on the same final state. Stage progress goes to the context
// logger (logging.Ctx), falling back to the default logger.
func (p *Pipeline) Ingest(ctx context.Context, dataDir string) (*Result, error) {
	log := logging.Ctx(ctx)

	if err := p.store.Migrate(ctx); err != nil {
		return nil, err
	}

	result := &Result{}

	// Strava runs (initial load).
	runs, stravaStats, err := p.strava.Parse(dataDir)
	skipped, err := skipMissing(log, sources.Strava, err)
	if err != nil {
		return nil, err
	}
	if !skipped {
		if err := p.store.UpsertRuns(ctx, runs); err != nil {
			return nil, err
		}
		result.Strava = stravaStats
		log.Info().Int("records", stravaStats.Parsed).Int("skipped", stravaStats.Skipped).
			Msg("Ingested Strava runs")
	}

	// Garmin staging.
	garminRuns, garminStats, err := p.garmin.Parse(dataDir)
	skipped, err = skipMissing(log, sources.Garmin, err)
	if err != nil {
		return nil, err
	}
	if !skipped {
		if err := p.store.InsertGarminRuns(ctx, garminRuns); err != nil {
			return nil, err
		}
		result.Garmin = garminStats
		log.Info().Int("records", garminStats.Parsed).Int("skipped", garminStats.Skipped).
			Msg("Staged Garmin activities")
	}

	// Cross-source enrichment.
	enriched, err := p.matcher.Enrich(ctx)
	if err != nil {
		return nil, err
	}
	result.Enriched = enriched
	log.Info().Int("runs", enriched).Msg("Enriched runs from Garmin")

	// Oura sleep.
	sleep, ouraStats, err := p.oura.Parse(dataDir)
	skipped, err = skipMissing(log, sources.Oura, err)
	if err != nil {
		return nil, err
	}
	if !skipped {
		if err := p.store.UpsertSleep(ctx, sleep); err != nil {
			return nil, err
		}
		result.Oura = ouraStats
		log.Info().Int("records", ouraStats.Parsed).Int("skipped", ouraStats.Skipped).
			Msg("Ingested Oura sleep records")
	}

	summary, err := p.store.Summarize(ctx)
	if err != nil {
		return nil, err
	}
	result.Summary = summary

	return result, nil
}

// skipMissing swallows missing-source errors (the source contributes zero
// records) and passes every other error through unchanged.
func skipMissing(log *zerolog.Logger, source string, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.IsSourceMissing(err) {
		log.Warn().Str("source", source).Err(err).Msg("Source not found, contributing zero records")
		return true, nil
	}
	return false, err
}
