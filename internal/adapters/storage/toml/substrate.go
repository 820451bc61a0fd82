// Package toml is the durable substrate kept in a single TOML document.
// Entries persist until deleted.
package toml

import (
	"context"
	"errors"
	"sync"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

type Substrate struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.Substrate = (*Substrate)(nil)

func NewSubstrate(path string) (*Substrate, error) {
	if path == "" {
		return nil, errors.New("durable path is empty")
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &Substrate{path: path, mu: lockForPath(path)}, nil
}

func (s *Substrate) Path() string {
	return s.path
}

func (s *Substrate) Read(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return "", err
	}

	for _, entry := range file.Entries {
		if entry.Key == key {
			return entry.Value, nil
		}
	}

	return "", domain.ErrSnapshotNotFound
}

func (s *Substrate) Write(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	updated := false
	for i := range file.Entries {
		if file.Entries[i].Key == key {
			file.Entries[i].Value = value
			updated = true
			break
		}
	}
	if !updated {
		file.Entries = append(file.Entries, entrySchema{Key: key, Value: value})
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return WriteFile(s.path, file)
}

func (s *Substrate) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	kept := file.Entries[:0]
	for _, entry := range file.Entries {
		if entry.Key != key {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(file.Entries) {
		return nil
	}
	file.Entries = kept

	return WriteFile(s.path, file)
}

func (s *Substrate) readSchema() (fileSchema, error) {
	var file fileSchema
	if _, err := ReadFile(s.path, &file); err != nil {
		return fileSchema{}, err
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}
