package scoped

import (
	"context"
	"path/filepath"
	"testing"

	tomlstore "github.com/bnema/leasehold/internal/adapters/storage/toml"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespacedIsolatesClients(t *testing.T) {
	t.Parallel()

	backing, err := tomlstore.NewSubstrate(filepath.Join(t.TempDir(), "durable.toml"))
	require.NoError(t, err)
	ctx := context.Background()

	alice := NewNamespaced(backing, "client-a")
	bob := NewNamespaced(backing, "client-b")

	require.NoError(t, alice.Write(ctx, "userState", "alice"))

	_, err = bob.Read(ctx, "userState")
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	got, err := backing.Read(ctx, "client-a/userState")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)

	require.NoError(t, bob.Delete(ctx, "userState"))
	got, err = alice.Read(ctx, "userState")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
}

func TestDetachedDegradesToNoOps(t *testing.T) {
	t.Parallel()

	var s Detached
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "userState", "x"))
	require.NoError(t, s.Delete(ctx, "userState"))
	_, err := s.Read(ctx, "userState")
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}
