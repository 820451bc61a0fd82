// Package file keeps each account's token in a private file laid out as
// <root>/<kind>/<id>.token.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

const (
	vaultDirMode  = 0o700
	tokenFileMode = 0o600
	tokenFileExt  = ".token"
)

type Vault struct {
	root string
	mu   sync.RWMutex
}

var _ ports.TokenVault = (*Vault)(nil)

func NewVault(root string) *Vault {
	return &Vault{root: filepath.Clean(root)}
}

// Put replaces the token atomically so a reader never sees a partial value.
func (v *Vault) Put(ctx context.Context, key string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := domain.ParseTokenKey(key)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%s: %w", entry, domain.ErrEmptyToken)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return writeToken(v.path(entry), token)
}

func (v *Vault) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, err := domain.ParseTokenKey(key)
	if err != nil {
		return "", err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	data, err := os.ReadFile(v.path(entry))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", entry, domain.ErrTokenNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %s token: %w", entry, err)
	}

	return string(data), nil
}

// Delete is idempotent. The kind directory is left in place.
func (v *Vault) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := domain.ParseTokenKey(key)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.Remove(v.path(entry)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s token: %w", entry, err)
	}
	return nil
}

func (v *Vault) path(entry domain.TokenKey) string {
	name := strconv.FormatInt(int64(entry.ID), 10) + tokenFileExt
	return filepath.Join(v.root, string(entry.Kind), name)
}

func writeToken(path, token string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, vaultDirMode); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(tokenFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp token file: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}
