// Package bolt provides a BBolt-backed durable substrate.
package bolt

import (
	"context"
	"fmt"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("durable")

// Substrate implements ports.Substrate on a single BBolt bucket.
type Substrate struct {
	db *bbolt.DB
}

var _ ports.Substrate = (*Substrate)(nil)

// NewSubstrate returns a Substrate backed by the given BBolt database.
func NewSubstrate(db *bbolt.DB) *Substrate {
	return &Substrate{db: db}
}

// Open opens a BBolt database at the given path and returns a new Substrate.
func Open(path string, options *bbolt.Options) (*Substrate, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewSubstrate(db), nil
}

// Close closes the underlying BBolt database.
func (s *Substrate) Close() error {
	return s.db.Close()
}

func (s *Substrate) Read(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return domain.ErrSnapshotNotFound
		}
		data := b.Get([]byte(key))
		if data == nil {
			return domain.ErrSnapshotNotFound
		}
		value = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Substrate) Write(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
}

func (s *Substrate) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
