package cookie

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tomlstore "github.com/bnema/leasehold/internal/adapters/storage/toml"
	"github.com/bnema/leasehold/internal/ports"
)

const jarSchemaVersion = 1

// Jar is an in-memory cookie Document that honours expiry. When created with
// a path it is also persisted as TOML after every change.
type Jar struct {
	mu      sync.Mutex
	clock   ports.Clock
	path    string
	order   []string
	entries map[string]jarEntry
	err     error
}

var _ Document = (*Jar)(nil)

type jarEntry struct {
	value   string
	expires time.Time
}

type jarFile struct {
	Version int           `toml:"version"`
	Cookies []cookieEntry `toml:"cookies"`
}

type cookieEntry struct {
	Name    string `toml:"name"`
	Value   string `toml:"value"`
	Expires string `toml:"expires,omitempty"`
}

func NewJar(clock ports.Clock) *Jar {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Jar{clock: clock, entries: map[string]jarEntry{}}
}

// OpenJar loads the jar persisted at path, starting empty when the file does
// not exist yet.
func OpenJar(path string, clock ports.Clock) (*Jar, error) {
	jar := NewJar(clock)
	jar.path = path

	var file jarFile
	found, err := tomlstore.ReadFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("open cookie jar: %w", err)
	}
	if !found {
		return jar, nil
	}
	if file.Version > jarSchemaVersion {
		return nil, fmt.Errorf("unsupported cookie jar version %d (current %d)", file.Version, jarSchemaVersion)
	}

	for _, entry := range file.Cookies {
		var expires time.Time
		if entry.Expires != "" {
			expires, err = time.Parse(time.RFC3339, entry.Expires)
			if err != nil {
				continue
			}
		}
		jar.set(entry.Name, jarEntry{value: entry.Value, expires: expires})
	}

	return jar, nil
}

func (j *Jar) Cookie() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.clock.Now()
	pairs := make([]string, 0, len(j.order))
	for _, name := range j.order {
		entry := j.entries[name]
		if entry.expired(now) {
			continue
		}
		pairs = append(pairs, name+"="+entry.value)
	}
	return strings.Join(pairs, "; ")
}

func (j *Jar) SetCookie(raw string) {
	c, err := http.ParseSetCookie(raw)
	if err != nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	expires := c.Expires
	if c.MaxAge > 0 {
		expires = j.clock.Now().Add(time.Duration(c.MaxAge) * time.Second)
	}
	if c.MaxAge < 0 || (!expires.IsZero() && !expires.After(j.clock.Now())) {
		j.remove(c.Name)
	} else {
		j.set(c.Name, jarEntry{value: c.Value, expires: expires})
	}

	if j.path != "" {
		j.err = j.save()
	}
}

// Err returns the error of the most recent save, if any.
func (j *Jar) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.err
}

func (j *Jar) set(name string, entry jarEntry) {
	if _, ok := j.entries[name]; !ok {
		j.order = append(j.order, name)
	}
	j.entries[name] = entry
}

func (j *Jar) remove(name string) {
	if _, ok := j.entries[name]; !ok {
		return
	}
	delete(j.entries, name)
	for i, existing := range j.order {
		if existing == name {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
}

func (j *Jar) save() error {
	now := j.clock.Now()
	file := jarFile{Version: jarSchemaVersion}
	for _, name := range j.order {
		entry := j.entries[name]
		if entry.expired(now) {
			continue
		}
		stored := cookieEntry{Name: name, Value: entry.value}
		if !entry.expires.IsZero() {
			stored.Expires = entry.expires.UTC().Format(time.RFC3339)
		}
		file.Cookies = append(file.Cookies, stored)
	}

	if err := tomlstore.WriteFile(j.path, file); err != nil {
		return fmt.Errorf("save cookie jar: %w", err)
	}
	return nil
}

func (e jarEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !e.expires.After(now)
}
