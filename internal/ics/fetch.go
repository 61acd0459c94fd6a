package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/peterbourgon/diskv/v3"

	appLog "meditrack/internal/log"
)

// Source represents a single dose schedule feed.
type Source struct {
	// ID is an internal identifier (e.g., config schedule ID).
	ID string
	// URL is the ICS endpoint.
	URL string
}

// FetchResult contains the outcome of fetching a single feed.
type FetchResult struct {
	Source    Source
	Body      []byte // ICS payload (either freshly fetched or from cache)
	FromCache bool   // true if we reused the cached body
}

// cacheEntry holds HTTP cache metadata for a single feed URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MaxFeedBytes caps the size of a downloaded feed.
const MaxFeedBytes = 4 << 20

// HTTPClient is the subset of *http.Client the fetcher needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher fetches schedule feeds with HTTP caching (ETag / Last-Modified)
// and keeps the last good body on disk.
type Fetcher struct {
	client   HTTPClient
	cache    *diskv.Diskv
	maxBytes int64
}

// NewFetcher creates a Fetcher caching under cacheDir.
func NewFetcher(cacheDir string, client HTTPClient) *Fetcher {
	if cacheDir == "" {
		// Development fallback so runs work without a configured data dir.
		cacheDir = "./var/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{
		client:   client,
		maxBytes: MaxFeedBytes,
		cache: diskv.New(diskv.Options{
			BasePath: cacheDir,
			// Shard by the first two hex chars of the URL hash.
			Transform:    func(key string) []string { return []string{key[:2]} },
			CacheSizeMax: 4 * 1024 * 1024,
			FilePerm:     0o600,
			PathPerm:     0o700,
		}),
	}
}

// FetchAll fetches all given sources. Failures are logged and returned in
// the error slice; results only contain sources that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	errs := make([]error, 0)

	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.ID, err))
			appLog.Error("schedule fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		results = append(results, res)
	}

	return results, errs
}

// FetchOne fetches a single feed, honoring ETag and Last-Modified, and
// falls back to the cached body on network errors, non-OK statuses and
// bodies that cannot be read in full.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	key := cacheKey(src.URL)
	meta := f.loadMeta(key)
	cachedBody, _ := f.cache.Read(key + ".ics")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("schedule fetch start", "id", src.ID, "url", redactURL(src.URL))

	cached := FetchResult{Source: src, Body: cachedBody, FromCache: true}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("schedule fetch network error, using cached body", err, "id", src.ID, "url", redactURL(src.URL))
			return cached, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if readErr == nil && int64(len(body)) > f.maxBytes {
			readErr = fmt.Errorf("feed exceeds %d bytes", f.maxBytes)
		}
		if readErr != nil {
			if len(cachedBody) > 0 {
				appLog.Error("schedule fetch read failed, using cached body", readErr, "id", src.ID, "url", redactURL(src.URL))
				return cached, nil
			}
			return FetchResult{}, readErr
		}

		newMeta := cacheEntry{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := f.saveCache(key, newMeta, body); err != nil {
			appLog.Error("schedule cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
		}

		appLog.Info("schedule fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Debug("schedule not modified; using cache", "id", src.ID, "url", redactURL(src.URL))
		return cached, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("schedule fetch non-OK, using cached body", errors.New(resp.Status), "id", src.ID, "url", redactURL(src.URL))
			return cached, nil
		}
		return FetchResult{}, errors.New(resp.Status)
	}
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}

func (f *Fetcher) loadMeta(key string) cacheEntry {
	var meta cacheEntry
	data, err := f.cache.Read(key + ".json")
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}
	}
	return meta
}

func (f *Fetcher) saveCache(key string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at missing body.
	if err := f.cache.Write(key+".ics", body); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return f.cache.Write(key+".json", data)
}

// redactURL keeps only scheme and host of a feed URL for logging; private
// calendar links usually carry a token in the path or query.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
