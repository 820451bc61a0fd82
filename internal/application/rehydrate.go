package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bnema/leasehold/internal/domain"
)

type RehydrationOutcome string

const (
	OutcomeRestored RehydrationOutcome = "restored"
	OutcomeAbsent   RehydrationOutcome = "absent"
	OutcomeDegraded RehydrationOutcome = "degraded"
)

type RehydrationResult struct {
	Kind    domain.AccountKind
	Key     string
	Outcome RehydrationOutcome
	// Reason is set for degraded outcomes only.
	Reason string
	Err    error `json:"-"`
}

// Bootstrapper replays persisted snapshots into their stores once per process.
// It only reads the persisted copies; it never writes or deletes them.
type Bootstrapper struct {
	stores []*SessionStore
	logger *slog.Logger

	once    sync.Once
	results []RehydrationResult
}

func NewBootstrapper(session *Session, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bootstrapper{stores: session.Stores(), logger: logger}
}

// Run rehydrates every store on the first call. Later calls return the first
// call's results without touching the stores again.
func (b *Bootstrapper) Run(ctx context.Context) []RehydrationResult {
	b.once.Do(func() {
		results := make([]RehydrationResult, 0, len(b.stores))
		for _, store := range b.stores {
			results = append(results, b.RehydrateKind(ctx, store))
		}
		b.results = results
	})

	return b.results
}

// RehydrateKind restores a single store. Running it again with the same
// persisted snapshot leaves the store in the same state.
func (b *Bootstrapper) RehydrateKind(ctx context.Context, store *SessionStore) RehydrationResult {
	result := RehydrationResult{Kind: store.Kind(), Key: store.Key()}

	raw, err := store.substrate.Read(ctx, store.Key())
	present := true
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			return b.degraded(result, "read_failed", err)
		}
		present = false
	}

	decoded := DecodeSnapshot(raw, present)
	switch decoded.Status {
	case DecodeAbsent:
		result.Outcome = OutcomeAbsent
		b.logger.Debug("no persisted session", "kind", string(result.Kind), "key", result.Key)
		return result
	case DecodeMalformed, DecodeMissingDiscriminator:
		return b.degraded(result, string(decoded.Status), decoded.Err)
	}

	snapshot := decoded.Snapshot
	if snapshot.Kind != "" && snapshot.Kind != store.Kind() {
		return b.degraded(result, "kind_mismatch", fmt.Errorf("persisted kind %q", snapshot.Kind))
	}

	if err := store.restore(snapshot.Fields()); err != nil {
		return b.degraded(result, "restore_failed", err)
	}

	result.Outcome = OutcomeRestored
	b.logger.Debug("session rehydrated", "kind", string(result.Kind), "key", result.Key)
	return result
}

func (b *Bootstrapper) degraded(result RehydrationResult, reason string, err error) RehydrationResult {
	result.Outcome = OutcomeDegraded
	result.Reason = reason
	result.Err = err

	attrs := []any{"kind", string(result.Kind), "key", result.Key, "reason", reason}
	if err != nil {
		attrs = append(attrs, "err", err)
	}
	b.logger.Warn("session rehydration degraded", attrs...)

	return result
}
