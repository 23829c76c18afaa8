package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
	"github.com/LynnGuo666/ai-switch-cli/internal/logger"
)

// errMsgLimit bounds the human-readable error string returned on soft
// failures so it fits the console's message log.
const errMsgLimit = 60

// DefaultTimeout is the per-attempt fetch timeout.
const DefaultTimeout = 8 * time.Second

// browserHeaders emulates a desktop browser so the status endpoint's
// anti-bot layer serves us the same document it serves a person.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7",
	"Accept-Language":           "en-US,en;q=0.9",
	"Cache-Control":             "max-age=0",
	"Upgrade-Insecure-Requests": "1",
}

// Fetcher retrieves and normalizes the monitoring document. Safe for use
// from a background goroutine; it owns no shared mutable state.
type Fetcher struct {
	log logger.Logger

	// primary validates certificates; fallback skips validation. Both honor
	// the proxy environment (HTTP_PROXY / HTTPS_PROXY).
	primary  *http.Client
	fallback *http.Client
}

// NewFetcher creates a fetcher with the two-stage transport policy.
func NewFetcher(log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Noop()
	}
	return &Fetcher{
		log: log,
		primary: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
		fallback: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// Fetch retrieves the monitoring document and normalizes it for the kind.
// Failures are soft: the return is an empty snapshot plus a short message,
// never an error. The transports are tried in order; the first attempt that
// yields HTTP 200 with a parseable body wins.
func (f *Fetcher) Fetch(ctx context.Context, url string, kind config.Kind, timeout time.Duration) (Snapshot, string) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	snapshot, err := f.attempt(ctx, f.primary, url, kind, timeout)
	if err == nil {
		return snapshot, ""
	}
	f.log.Debug("primary fetch failed: %v", err)

	snapshot, err2 := f.attempt(ctx, f.fallback, url, kind, timeout)
	if err2 == nil {
		return snapshot, ""
	}
	f.log.Debug("fallback fetch failed: %v", err2)

	return Snapshot{}, truncateErr(err)
}

// attempt performs one GET with browser headers against one client.
func (f *Fetcher) attempt(ctx context.Context, client *http.Client, url string, kind config.Kind, timeout time.Duration) (Snapshot, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	snapshot := Normalize(body, kind)
	if snapshot.Empty() && !looksLikeJSON(body) {
		return nil, fmt.Errorf("status endpoint returned a non-JSON body")
	}
	return snapshot, nil
}

// looksLikeJSON is a cheap body sniff used to distinguish an anti-bot HTML
// challenge page from a JSON document with no matching channels.
func looksLikeJSON(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return true
		default:
			return false
		}
	}
	return false
}

// truncateErr renders an error as a bounded human-readable string. Counts
// runes so localized error text is never cut mid-character.
func truncateErr(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	runes := []rune(msg)
	if len(runes) > errMsgLimit {
		msg = string(runes[:errMsgLimit-1]) + "…"
	}
	return msg
}
