package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/dancespec/pkg/buildinfo"
	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/observability"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// maxBody caps downloaded assets.
const maxBody = 64 << 20

// Fetcher downloads assets over HTTP. The zero value is not usable; call
// [NewFetcher].
type Fetcher struct {
	Client  *http.Client
	Cache   *Cache // optional
	Backoff Backoff
}

// NewFetcher returns a Fetcher with default retry settings. cache may be nil.
func NewFetcher(cache *Cache) *Fetcher {
	return &Fetcher{
		Client:  &http.Client{Timeout: DefaultTimeout},
		Cache:   cache,
		Backoff: DefaultBackoff,
	}
}

// Fetch returns the body at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse url")
	}

	if f.Cache != nil {
		if body, ok, _ := f.Cache.Get(rawURL); ok {
			observability.Cache().OnCacheHit(ctx, "asset")
			return body, nil
		}
		observability.Cache().OnCacheMiss(ctx, "asset")
	}

	var body []byte
	err = f.Backoff.Do(ctx, func() error {
		var err error
		body, err = f.get(ctx, u)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "fetch %s", rawURL)
		}
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", rawURL)
	}

	if f.Cache != nil {
		if err := f.Cache.Put(rawURL, body); err == nil {
			observability.Cache().OnCacheSet(ctx, "asset", len(body))
		}
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) ([]byte, error) {
	hooks := observability.HTTP()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	start := time.Now()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	resp, err := f.Client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return nil, Retryable(err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "%s not found", u)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &RetryableError{Err: fmt.Errorf("%s: %s", u, resp.Status), After: retryAfter(resp)}
	case resp.StatusCode >= 400:
		return nil, errors.New(errors.ErrCodeNetwork, "%s: %s", u, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, Retryable(err)
	}
	return body, nil
}
