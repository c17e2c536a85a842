// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest caches the index manifest that maps document
// identifiers to storage paths on the raw-content host. The manifest is
// fetched once, on first use, and kept for the life of the process.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/lexdef-engine/internal/httputil"
)

// State is the lifecycle stage of a Cache.
type State int

const (
	Uninitialized State = iota
	Populating
	Ready
)

func (s State) String() string {
	switch s {
	case Populating:
		return "populating"
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Getter fetches a URL. *httputil.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*httputil.Response, error)
}

// Cache holds the identifier → storage path table. Concurrent first
// callers share a single population fetch. A failed population leaves the
// cache uninitialized so that a later call can try again.
type Cache struct {
	url    string
	getter Getter

	group singleflight.Group

	mu      sync.RWMutex
	state   State
	entries map[string]string
}

// New returns an uninitialized cache for the manifest at url.
func New(url string, getter Getter) *Cache {
	return &Cache{url: url, getter: getter}
}

// State reports the current lifecycle stage.
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Len returns the number of entries, 0 before population.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup returns the storage path for id, populating the cache first if
// needed. found is false when the manifest has no entry for id. A non-nil
// error means the manifest could not be loaded.
//
// Population runs detached from ctx so that one caller giving up does not
// fail the others waiting on the same fetch; ctx only bounds this
// caller's wait.
func (c *Cache) Lookup(ctx context.Context, id string) (path string, found bool, err error) {
	if entries, ok := c.ready(); ok {
		path, found = entries[id]
		return path, found, nil
	}

	ch := c.group.DoChan("populate", func() (any, error) {
		return c.populate(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		entries := res.Val.(map[string]string)
		path, found = entries[id]
		return path, found, nil
	}
}

func (c *Cache) ready() (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries, c.state == Ready
}

func (c *Cache) populate(ctx context.Context) (map[string]string, error) {
	if entries, ok := c.ready(); ok {
		return entries, nil
	}

	c.setState(Populating)

	resp, err := c.getter.Get(ctx, c.url)
	if err != nil {
		c.setState(Uninitialized)
		return nil, fmt.Errorf("fetching manifest %s: %w", c.url, err)
	}

	entries, err := Parse(resp.Body)
	if err != nil {
		c.setState(Uninitialized)
		return nil, fmt.Errorf("parsing manifest %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.entries = entries
	c.state = Ready
	c.mu.Unlock()
	return entries, nil
}

func (c *Cache) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Parse reads a manifest body. JSON objects are tried first; anything
// else is parsed as a YAML mapping. Keys and paths are trimmed, and
// leading "/" is dropped from paths so they join cleanly onto a base URL.
func Parse(body string) (map[string]string, error) {
	raw := make(map[string]string)
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		raw = make(map[string]string)
		if yerr := yaml.Unmarshal([]byte(body), &raw); yerr != nil {
			return nil, fmt.Errorf("manifest is neither a JSON object nor a YAML mapping: %w", yerr)
		}
	}

	entries := make(map[string]string, len(raw))
	for id, path := range raw {
		id = strings.Trim(strings.TrimSpace(id), "/")
		path = strings.TrimLeft(strings.TrimSpace(path), "/")
		if id == "" || path == "" {
			continue
		}
		entries[id] = path
	}
	return entries, nil
}
