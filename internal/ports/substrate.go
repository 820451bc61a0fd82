package ports

import "context"

// Substrate is a key-value persistence namespace holding opaque string values.
// Read returns domain.ErrSnapshotNotFound when the key is absent.
type Substrate interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
