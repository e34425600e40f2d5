// Package fonts talks to the remote webfont catalog: listing families by
// popularity for the font picker, and warming individual families on demand.
package fonts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Family is one catalog entry.
type Family struct {
	Family   string   `json:"family"`
	Category string   `json:"category"`
	Variants []string `json:"variants"`
}

// Catalog is an HTTP client for a webfonts API.
type Catalog struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCatalog creates a catalog client. apiKey may be empty for keyless
// endpoints.
func NewCatalog(baseURL, apiKey string) *Catalog {
	return &Catalog{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ListByPopularity fetches the catalog's families sorted by popularity.
func (c *Catalog) ListByPopularity(ctx context.Context) ([]Family, error) {
	q := url.Values{}
	q.Set("sort", "popularity")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("font catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("font catalog returned status %d", resp.StatusCode)
	}

	var payload struct {
		Items []Family `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode font catalog response: %w", err)
	}
	return payload.Items, nil
}

// Fetch warms a single family, reporting only success or failure. Implements
// Fetcher.
func (c *Catalog) Fetch(ctx context.Context, family string) error {
	q := url.Values{}
	q.Set("family", family)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("font load request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("font %q returned status %d", family, resp.StatusCode)
	}
	return nil
}

// Fetcher loads one font family by name.
type Fetcher interface {
	Fetch(ctx context.Context, family string) error
}

// Loader runs fire-and-forget family loads with a completion callback and a
// per-family loading flag. There is no cancellation: a superseded load
// simply reports its result after the fact.
type Loader struct {
	mu      sync.Mutex
	fetcher Fetcher
	loading map[string]bool
}

// NewLoader creates a loader over the given fetcher.
func NewLoader(fetcher Fetcher) *Loader {
	return &Loader{
		fetcher: fetcher,
		loading: make(map[string]bool),
	}
}

// Load starts loading a family in the background. done is called with the
// load result once it completes; it may be nil.
func (l *Loader) Load(family string, done func(err error)) {
	l.mu.Lock()
	l.loading[family] = true
	l.mu.Unlock()

	go func() {
		err := l.fetcher.Fetch(context.Background(), family)

		l.mu.Lock()
		delete(l.loading, family)
		l.mu.Unlock()

		if err != nil {
			logrus.WithError(err).WithField("family", family).Warn("Font load failed")
		}
		if done != nil {
			done(err)
		}
	}()
}

// IsLoading reports whether a family load is in flight.
func (l *Loader) IsLoading(family string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading[family]
}
