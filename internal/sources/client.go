// Package sources wraps the upstream metadata APIs (Jikan, AniList, MangaDex
// and MediaWiki/Fandom wikis). Every fetcher owns its own rate limiter and
// normalises the upstream JSON into the records in types.go.
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/michaelquigley/df/dl"

	"loreweave/internal/ratelimit"
)

const maxBodyBytes = 8 << 20

var ErrRateLimited = errors.New("rate limited")

// StatusError reports a non-2xx upstream response other than 404.
type StatusError struct {
	Source string
	Status int
	Body   string
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Source, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Options configures a fetcher. Zero values fall back to the per-source
// defaults of the constructor.
type Options struct {
	BaseURL    string
	Delay      time.Duration
	Timeout    time.Duration
	UserAgent  string
	Retries    int
	RetryDelay time.Duration
	HTTPClient *http.Client
}

type requester struct {
	source     string
	client     *http.Client
	limiter    *ratelimit.Limiter
	userAgent  string
	retries    int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func newRequester(source string, opts Options, defaultDelay time.Duration) *requester {
	delay := opts.Delay
	if delay == 0 {
		delay = defaultDelay
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "loreweave/dev"
	}
	return &requester{
		source:     source,
		client:     client,
		limiter:    ratelimit.New(delay),
		userAgent:  userAgent,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		sleep:      sleepContext,
	}
}

func (r *requester) getJSON(ctx context.Context, url string, out any) (bool, error) {
	return r.do(ctx, http.MethodGet, url, nil, out)
}

func (r *requester) postJSON(ctx context.Context, url string, body any, out any) (bool, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("%s: encoding request: %w", r.source, err)
	}
	return r.do(ctx, http.MethodPost, url, payload, out)
}

// do performs one logical call. A 404 reports found == false without an
// error; a 429 is retried up to r.retries times with exponential backoff.
func (r *requester) do(ctx context.Context, method, url string, body []byte, out any) (bool, error) {
	for attempt := 0; ; attempt++ {
		if err := r.limiter.Acquire(ctx); err != nil {
			return false, fmt.Errorf("%s: waiting for rate limiter: %w", r.source, err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return false, fmt.Errorf("%s: building request: %w", r.source, err)
		}
		req.Header.Set("User-Agent", r.userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return false, fmt.Errorf("%s: request: %w", r.source, err)
		}
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= r.retries {
				return false, &StatusError{Source: r.source, Status: resp.StatusCode, Body: truncate(string(data), 200), Err: ErrRateLimited}
			}
			backoff := r.retryDelay << attempt
			dl.ChannelLog("sources").
				With("source", r.source).
				With("attempt", attempt+1).
				With("backoff", backoff).
				Warn("upstream rate limited, retrying")
			if err := r.sleep(ctx, backoff); err != nil {
				return false, fmt.Errorf("%s: waiting to retry: %w", r.source, err)
			}
			continue
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return false, &StatusError{Source: r.source, Status: resp.StatusCode, Body: truncate(string(data), 200)}
		}

		if readErr != nil {
			return false, fmt.Errorf("%s: reading response: %w", r.source, readErr)
		}
		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return false, fmt.Errorf("%s: decoding response: %w", r.source, err)
			}
		}
		return true, nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if n == 0 {
			cut = i
			break
		}
		n--
	}
	return s[:cut] + "..."
}
