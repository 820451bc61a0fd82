// Package pass keeps tokens in the user's password-store through the pass CLI.
// Entries are named after their token key, so they sit under leasehold/<kind>/.
package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

// notFoundMarker is what pass prints on stderr for a missing entry.
const notFoundMarker = "is not in the password store"

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

type Vault struct {
	run runFunc
}

var _ ports.TokenVault = (*Vault)(nil)

func NewVault() *Vault {
	return &Vault{run: runPassCommand}
}

func (v *Vault) Put(ctx context.Context, key string, token string) error {
	entry, err := v.entry(ctx, key)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%s: %w", entry, domain.ErrEmptyToken)
	}
	// Get returns the first line of an entry.
	if strings.ContainsAny(token, "\r\n") {
		return fmt.Errorf("%s: token spans multiple lines", entry)
	}

	if _, stderr, err := v.run(ctx, token+"\n", "insert", "-m", "-f", entry); err != nil {
		return passError("insert", entry, err, stderr)
	}
	return nil
}

func (v *Vault) Get(ctx context.Context, key string) (string, error) {
	entry, err := v.entry(ctx, key)
	if err != nil {
		return "", err
	}

	stdout, stderr, err := v.run(ctx, "", "show", entry)
	switch {
	case err != nil && strings.Contains(stderr, notFoundMarker):
		return "", fmt.Errorf("%s: %w", entry, domain.ErrTokenNotFound)
	case err != nil:
		return "", passError("show", entry, err, stderr)
	}

	token, _, _ := strings.Cut(stdout, "\n")
	return strings.TrimSuffix(token, "\r"), nil
}

func (v *Vault) Delete(ctx context.Context, key string) error {
	entry, err := v.entry(ctx, key)
	if err != nil {
		return err
	}

	_, stderr, err := v.run(ctx, "", "rm", "-f", entry)
	if err != nil && !strings.Contains(stderr, notFoundMarker) {
		return passError("rm", entry, err, stderr)
	}
	return nil
}

func (v *Vault) entry(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	parsed, err := domain.ParseTokenKey(key)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if errors.Is(err, exec.ErrNotFound) {
		return "", "", ErrUnavailable
	}
	if err != nil {
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func passError(op, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %s: %w", op, entry, err)
	}
	return fmt.Errorf("pass %s %s: %w: %s", op, entry, err, stderr)
}
