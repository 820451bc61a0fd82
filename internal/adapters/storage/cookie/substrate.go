// Package cookie stores session snapshots in cookies that expire two hours
// after they are written.
package cookie

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/leasehold/internal/domain"
	"github.com/bnema/leasehold/internal/ports"
)

const DefaultTTL = 2 * time.Hour

// Document is the browser-context view of cookies: the raw cookie header and
// a setter taking one Set-Cookie line.
type Document interface {
	Cookie() string
	SetCookie(raw string)
}

type Substrate struct {
	doc   Document
	clock ports.Clock
	ttl   time.Duration
	path  string
}

var _ ports.Substrate = (*Substrate)(nil)

type Option func(*Substrate)

func WithClock(clock ports.Clock) Option {
	return func(s *Substrate) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Substrate) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewSubstrate returns a cookie substrate over doc. A nil doc means there is
// no browser context: reads find nothing and writes are dropped.
func NewSubstrate(doc Document, opts ...Option) *Substrate {
	s := &Substrate{doc: doc, clock: ports.SystemClock{}, ttl: DefaultTTL, path: "/"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Substrate) Read(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.doc == nil {
		return "", domain.ErrSnapshotNotFound
	}

	raw, ok := lookup(s.doc.Cookie(), key)
	if !ok {
		return "", domain.ErrSnapshotNotFound
	}

	value, err := url.QueryUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("unescape cookie %q: %w", key, err)
	}
	return value, nil
}

func (s *Substrate) Write(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.doc == nil {
		return nil
	}

	c := &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     s.path,
		Expires:  s.clock.Now().Add(s.ttl).UTC(),
		SameSite: http.SameSiteLaxMode,
	}
	if err := c.Valid(); err != nil {
		return fmt.Errorf("write cookie %q: %w", key, err)
	}

	s.doc.SetCookie(c.String())
	return nil
}

func (s *Substrate) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.doc == nil {
		return nil
	}

	c := &http.Cookie{
		Name:    key,
		Path:    s.path,
		Expires: time.Unix(0, 0).UTC(),
		MaxAge:  -1,
	}
	s.doc.SetCookie(c.String())
	return nil
}

// lookup scans the raw cookie header the way document.cookie is read: split
// on ';' and compare each name up to its first '='.
func lookup(header, name string) (string, bool) {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		if part[:eq] == name {
			return part[eq+1:], true
		}
	}
	return "", false
}
