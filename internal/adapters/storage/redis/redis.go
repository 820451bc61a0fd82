// Package redis provides a durable substrate on Redis string keys. Keys carry
// no TTL, so values persist until deleted.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "leasehold:durable:"

type Substrate struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.Substrate = (*Substrate)(nil)

func NewSubstrate(client redis.UniversalClient, prefix string) (*Substrate, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Substrate{client: client, prefix: prefix}, nil
}

func (s *Substrate) Read(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrSnapshotNotFound
		}
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

func (s *Substrate) Write(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *Substrate) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}
