package resolver

import (
	"context"
	"fmt"

	"venuebook/internal/domain"
	"venuebook/internal/interval"
	"venuebook/internal/models"

	"github.com/rs/zerolog"
)

// Mode selects how the resolver reacts to a failing secondary source.
type Mode string

const (
	// ModeBestEffort proceeds on the sources that responded and marks the
	// outcome degraded. This is the default and matches the historical
	// behavior: a conflict check never blocks the primary operation.
	ModeBestEffort Mode = "best_effort"

	// ModeStrict fails the check when any source cannot be consulted.
	ModeStrict Mode = "strict"
)

// Outcome is the typed result of a conflict check, so callers and tests can
// tell "no conflict" apart from "conflict check was skipped".
type Outcome struct {
	Conflict *models.Conflict
	Degraded bool
	Reasons  []string
}

// Checked reports whether every source was consulted.
func (o Outcome) Checked() bool {
	return !o.Degraded
}

// Resolver merges the two records of truth for "this slot is taken": the
// active reservations table and the historical confirmation log.
type Resolver struct {
	active domain.ConflictSource
	log    domain.ConflictSource
	mode   Mode
	logger *zerolog.Logger
}

func New(active, log domain.ConflictSource, mode Mode, logger *zerolog.Logger) *Resolver {
	if mode != ModeStrict {
		mode = ModeBestEffort
	}
	return &Resolver{active: active, log: log, mode: mode, logger: logger}
}

// Check queries both sources for a confirmed overlap with iv, excluding
// excludeID from the active source. An active conflict takes precedence over
// a logged one: it names a live record the caller can act on.
//
// The active source is authoritative: its failure always fails the check.
// A log-source failure degrades the outcome in best-effort mode.
func (r *Resolver) Check(ctx context.Context, iv interval.Interval, excludeID int64) (Outcome, error) {
	var out Outcome

	activeConflict, err := r.active.FindConfirmedOverlap(ctx, iv, excludeID)
	if err != nil {
		return out, fmt.Errorf("active conflict source: %w", err)
	}

	logConflict, err := r.log.FindConfirmedOverlap(ctx, iv, excludeID)
	if err != nil {
		if r.mode == ModeStrict {
			return out, fmt.Errorf("log conflict source: %w", err)
		}
		r.logger.Warn().Err(err).
			Str("interval", iv.DisplayRange()).
			Msg("log conflict source unavailable, degrading to active-only check")
		out.Degraded = true
		out.Reasons = append(out.Reasons, fmt.Sprintf("log source unavailable: %v", err))
	}

	switch {
	case activeConflict != nil:
		out.Conflict = activeConflict
	case logConflict != nil:
		out.Conflict = logConflict
	}
	return out, nil
}

// StoreSources adapts a domain.Store into the resolver's two sources.
func StoreSources(store domain.Store) (active, log domain.ConflictSource) {
	return activeSource{store}, logSource{store}
}

type activeSource struct {
	store domain.Store
}

func (s activeSource) FindConfirmedOverlap(ctx context.Context, iv interval.Interval, excludeID int64) (*models.Conflict, error) {
	return s.store.FindConfirmedOverlapping(ctx, iv, excludeID)
}

type logSource struct {
	store domain.Store
}

func (s logSource) FindConfirmedOverlap(ctx context.Context, iv interval.Interval, _ int64) (*models.Conflict, error) {
	return s.store.FindConfirmedOverlappingLog(ctx, iv)
}
