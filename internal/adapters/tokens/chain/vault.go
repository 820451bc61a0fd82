// Package chain tries a primary token vault and falls back to a second one.
package chain

import (
	"context"
	"errors"
	"fmt"

	filevault "github.com/bnema/leasehold/internal/adapters/tokens/file"
	passvault "github.com/bnema/leasehold/internal/adapters/tokens/pass"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

type Vault struct {
	primary  ports.TokenVault
	fallback ports.TokenVault
}

var _ ports.TokenVault = (*Vault)(nil)

var (
	errNilPrimaryVault  = errors.New("primary token vault is nil")
	errNilFallbackVault = errors.New("fallback token vault is nil")
)

func NewVault(primary ports.TokenVault, fallback ports.TokenVault) (*Vault, error) {
	if primary == nil {
		return nil, errNilPrimaryVault
	}
	if fallback == nil {
		return nil, errNilFallbackVault
	}

	return &Vault{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Vault, error) {
	return NewVault(passvault.NewVault(), filevault.NewVault(fileRoot))
}

func (v *Vault) Put(ctx context.Context, key string, value string) error {
	err := v.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := v.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary vault put failed: %w; fallback vault put failed: %w", err, fallbackErr)
}

// Get falls back when the primary misses, since Put may have landed there.
func (v *Vault) Get(ctx context.Context, key string) (string, error) {
	value, err := v.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := v.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}
	if errors.Is(err, domain.ErrTokenNotFound) && errors.Is(fallbackErr, domain.ErrTokenNotFound) {
		return "", fmt.Errorf("token %q: %w", key, domain.ErrTokenNotFound)
	}

	return "", fmt.Errorf("primary vault get failed: %w; fallback vault get failed: %w", err, fallbackErr)
}

// Delete removes the token from both vaults.
func (v *Vault) Delete(ctx context.Context, key string) error {
	err := v.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := v.fallback.Delete(ctx, key)
	if err == nil || fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary vault delete failed: %w; fallback vault delete failed: %w", err, fallbackErr)
}

// shouldSkipFallback reports errors the fallback would repeat: cancellation and
// keys or tokens that no vault accepts.
func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrInvalidTokenKey) ||
		errors.Is(err, domain.ErrEmptyToken)
}
