package dgadomains

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gkn1fexxx/clx/datasets"
)

const (
	fetchAttempts   = 3
	fetchBackoff    = 500 * time.Millisecond
	fetchTimeout    = 5 * time.Minute
	fetchRatePerSec = 2
)

// Fetcher downloads domain feeds over HTTP. Downloads across feeds run
// concurrently but share one rate limiter so a long feed list does not
// hammer the mirrors.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewFetcher returns a Fetcher with sane timeouts and retry behavior.
func NewFetcher(log *zap.Logger) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: fetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(fetchRatePerSec), 1),
		log:     log,
	}
}

// FetchAll downloads every feed and returns one record slice per feed,
// index-aligned with feeds. A single failing feed fails the whole fetch;
// partial datasets make for quietly skewed training sets.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []Feed) ([][]datasets.Record, error) {
	results := make([][]datasets.Record, len(feeds))
	errs := make([]error, len(feeds))

	var wg sync.WaitGroup
	for i, feed := range feeds {
		wg.Add(1)
		go func(i int, feed Feed) {
			defer wg.Done()
			results[i], errs[i] = f.Fetch(ctx, feed)
		}(i, feed)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "feed %s", feeds[i].Name)
		}
	}
	return results, nil
}

// Fetch downloads and parses a single feed, retrying transient failures with
// doubling backoff.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) ([]datasets.Record, error) {
	var lastErr error
	backoff := fetchBackoff
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		recs, skipped, err := f.fetchOnce(ctx, feed)
		if err == nil {
			f.log.Info("fetched feed",
				zap.String("feed", feed.Name),
				zap.Int("records", len(recs)),
				zap.Int("skipped", skipped))
			return recs, nil
		}
		if !retryable(err) {
			return nil, err
		}

		lastErr = err
		f.log.Warn("feed fetch failed, retrying",
			zap.String("feed", feed.Name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, errors.Wrapf(lastErr, "after %d attempts", fetchAttempts)
}

func (f *Fetcher) fetchOnce(ctx context.Context, feed Feed) ([]datasets.Record, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "requesting feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, &statusError{code: resp.StatusCode, url: feed.URL}
	}
	return Parse(feed, path.Base(feed.URL), resp.Body)
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.url, e.code)
}

// retryable reports whether a fetch error is worth another attempt. Server
// errors and transport failures are; malformed bodies and client errors are
// not.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return !errors.Is(err, ErrFeedFormat)
}
