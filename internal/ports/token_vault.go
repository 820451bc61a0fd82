package ports

import "context"

// TokenVault keeps authorization tokens out of session snapshots. Snapshots
// only carry a reference to the vault key.
type TokenVault interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
