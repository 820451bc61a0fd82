// Package scoped adapts durable substrates to the execution context they run in.
package scoped

import (
	"context"
	"strings"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

// Namespaced prefixes every key so that several clients can share one
// backing substrate without seeing each other's entries.
type Namespaced struct {
	inner     ports.Substrate
	namespace string
}

var _ ports.Substrate = (*Namespaced)(nil)

func NewNamespaced(inner ports.Substrate, namespace string) *Namespaced {
	return &Namespaced{inner: inner, namespace: strings.TrimSpace(namespace)}
}

func (n *Namespaced) Read(ctx context.Context, key string) (string, error) {
	return n.inner.Read(ctx, n.key(key))
}

func (n *Namespaced) Write(ctx context.Context, key string, value string) error {
	return n.inner.Write(ctx, n.key(key), value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.key(key))
}

func (n *Namespaced) key(key string) string {
	if n.namespace == "" {
		return key
	}
	return n.namespace + "/" + key
}

// Detached stands in for durable storage when there is no client context, for
// example while rendering on the server. Reads find nothing; writes are dropped.
type Detached struct{}

var _ ports.Substrate = Detached{}

func (Detached) Read(context.Context, string) (string, error) {
	return "", domain.ErrSnapshotNotFound
}

func (Detached) Write(context.Context, string, string) error {
	return nil
}

func (Detached) Delete(context.Context, string) error {
	return nil
}
