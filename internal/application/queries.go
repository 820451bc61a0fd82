package application

import (
	"time"

	"github.com/bnema/leasehold/internal/domain"
)

type Status struct {
	Kind       domain.AccountKind
	Key        string
	LoginRoute string
	Snapshot   domain.Snapshot
	// Rehydration is nil until the bootstrapper has run.
	Rehydration *RehydrationResult
	CapturedAt  time.Time
}
