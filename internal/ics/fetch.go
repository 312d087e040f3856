package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	appLog "papercal/internal/log"
)

// Source represents a single subscribed calendar source.
type Source struct {
	// Name is the calendar label, used for logging and digest grouping.
	Name string
	// Color is the hex color attached to every event from this calendar.
	Color string
	// Location is an http(s) URL, a local .ics file, or a directory of
	// .ics files.
	Location string
}

// IsNetwork reports whether the source requires an HTTP fetch.
func (s Source) IsNetwork() bool {
	return strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://")
}

// FetchResult contains one fetched ICS payload.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool // true if a cached body was reused (304 or network error)
}

// cacheEntry holds HTTP cache metadata for a single ICS URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher retrieves calendar payloads. Network sources go through HTTP with
// ETag / Last-Modified conditional requests and a disk-backed cache; local
// sources are read straight from the filesystem.
type Fetcher struct {
	client      *http.Client
	fs          afero.Fs
	cacheDir    string
	parallelism int
}

// NewFetcher creates a Fetcher. cacheDir is where per-URL cache
// subdirectories live; parallelism bounds concurrent network fetches.
func NewFetcher(fs afero.Fs, cacheDir string, parallelism int) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Fetcher{
		client:      &http.Client{Timeout: 15 * time.Second},
		fs:          fs,
		cacheDir:    cacheDir,
		parallelism: parallelism,
	}
}

// FetchAll retrieves every source. Network sources are fetched concurrently
// under the parallelism bound; local sources are read sequentially. A
// failing source is logged and dropped, never aborting the whole run.
// Results are gathered only after all fetches settle.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) []FetchResult {
	var network, local []Source
	for _, src := range sources {
		if src.IsNetwork() {
			network = append(network, src)
		} else {
			local = append(local, src)
		}
	}

	// One result slot per network source; no shared accumulator during
	// the concurrent phase.
	slots := make([]*FetchResult, len(network))
	sem := make(chan struct{}, f.parallelism)
	var wg sync.WaitGroup
	for i, src := range network {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := f.fetchURL(ctx, src)
			if err != nil {
				appLog.Warn("ics: source fetch failed, skipping", "calendar", src.Name, "url", redactURL(src.Location), "err", err)
				return
			}
			slots[i] = &res
		}(i, src)
	}
	wg.Wait()

	results := make([]FetchResult, 0, len(sources))
	for _, res := range slots {
		if res != nil {
			results = append(results, *res)
		}
	}

	for _, src := range local {
		read, err := f.readLocal(src)
		if err != nil {
			appLog.Warn("ics: source read failed, skipping", "calendar", src.Name, "path", src.Location, "err", err)
			continue
		}
		results = append(results, read...)
	}

	return results
}

// Ingest fetches and parses all sources into one flat RawEvent sequence,
// sorted by normalized start time across calendars.
func (f *Fetcher) Ingest(ctx context.Context, sources []Source, loc *time.Location) []RawEvent {
	all := make([]RawEvent, 0)
	for _, res := range f.FetchAll(ctx, sources) {
		events, err := ParseCalendar(res.Source, res.Body)
		if err != nil {
			appLog.Warn("ics: source parse failed, skipping", "calendar", res.Source.Name, "err", err)
			continue
		}
		all = append(all, events...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SortTime(loc).Before(all[j].SortTime(loc))
	})
	return all
}

// readLocal reads a single .ics file, or every *.ics entry of a directory.
func (f *Fetcher) readLocal(src Source) ([]FetchResult, error) {
	info, err := f.fs.Stat(src.Location)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		body, err := afero.ReadFile(f.fs, src.Location)
		if err != nil {
			return nil, err
		}
		return []FetchResult{{Source: src, Body: body}}, nil
	}

	entries, err := afero.ReadDir(f.fs, src.Location)
	if err != nil {
		return nil, err
	}
	var out []FetchResult
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".ics") {
			continue
		}
		path := filepath.Join(src.Location, e.Name())
		body, err := afero.ReadFile(f.fs, path)
		if err != nil {
			appLog.Warn("ics: unreadable file in calendar dir", "calendar", src.Name, "path", path, "err", err)
			continue
		}
		out = append(out, FetchResult{Source: src, Body: body})
	}
	return out, nil
}

// fetchURL fetches a single network source, honoring ETag and Last-Modified,
// with a disk cache under f.cacheDir keyed by a hash of the URL.
func (f *Fetcher) fetchURL(ctx context.Context, src Source) (FetchResult, error) {
	if src.Location == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(src.Location)
	if err := f.fs.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := afero.ReadFile(f.fs, filepath.Join(cachePath, "body.ics"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("ics: fetch start", "calendar", src.Name, "url", redactURL(src.Location))

	resp, err := f.client.Do(req)
	if err != nil {
		// Network error; fall back to the cached body if we have one.
		if len(cachedBody) > 0 {
			appLog.Warn("ics: network error, using cached body", "calendar", src.Name, "url", redactURL(src.Location), "err", err)
			return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return FetchResult{}, readErr
		}

		newMeta := cacheEntry{
			URL:          src.Location,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := f.saveCache(cachePath, newMeta, body); err != nil {
			appLog.Warn("ics: cache save failed", "calendar", src.Name, "err", err)
		}

		appLog.Info("ics: fetch success", "calendar", src.Name, "url", redactURL(src.Location), "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("ics: not modified, using cache", "calendar", src.Name, "url", redactURL(src.Location))
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Warn("ics: non-OK status, using cached body", "calendar", src.Name, "status", resp.StatusCode)
			return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, errors.New(resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	// First 16 hex chars as the directory name.
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := afero.ReadFile(f.fs, filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := afero.WriteFile(f.fs, filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(f.fs, filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL hides sensitive parts of an ICS URL for logging purposes.
// Private calendar URLs routinely embed access tokens in the path.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "ics://...(redacted)"
	}
	j := i + 3
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
