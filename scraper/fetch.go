package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/55.0.2883.87 Safari/537.36"

// ErrRequestFailed matches every *RequestFailedError.
var ErrRequestFailed = errors.New("request failed")

// RequestFailedError reports a fetch that exhausted its attempts or hit a
// permanent status. StatusCode is the last status seen, 0 if no response
// was ever received.
type RequestFailedError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed for %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("request failed for %s after %d attempt(s) with status code %d", e.URL, e.Attempts, e.StatusCode)
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher retrieves one remote document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// HTTPFetcher performs GET requests with a bounded number of attempts and a
// fixed delay between them.
type HTTPFetcher struct {
	client      *http.Client
	logger      *zap.Logger
	userAgent   string
	maxAttempts int
	delay       time.Duration
	wait        func(ctx context.Context, d time.Duration) error
	observe     func(statusCode int)
}

type FetcherOption func(*HTTPFetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) { f.client = client }
}

func WithUserAgent(userAgent string) FetcherOption {
	return func(f *HTTPFetcher) { f.userAgent = userAgent }
}

// WithSleep replaces the wait between attempts. Cancellation is checked
// once sleep returns.
func WithSleep(sleep func(time.Duration)) FetcherOption {
	return func(f *HTTPFetcher) {
		f.wait = func(ctx context.Context, d time.Duration) error {
			sleep(d)
			return ctx.Err()
		}
	}
}

// WithAttemptObserver is called once per attempt with the response status,
// or 0 when the request produced no response.
func WithAttemptObserver(observe func(statusCode int)) FetcherOption {
	return func(f *HTTPFetcher) { f.observe = observe }
}

func NewHTTPFetcher(logger *zap.Logger, maxAttempts int, delay time.Duration, opts ...FetcherOption) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	f := &HTTPFetcher{
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		userAgent:   DefaultUserAgent,
		maxAttempts: maxAttempts,
		delay:       delay,
		wait:        waitContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithRetry returns a copy of f using a different attempt budget.
func (f *HTTPFetcher) WithRetry(maxAttempts int, delay time.Duration) *HTTPFetcher {
	cp := *f
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	cp.maxAttempts = maxAttempts
	cp.delay = delay
	return &cp
}

// Fetch returns on the first 2xx response. 404 and 410 stop immediately;
// any other failure waits for the configured delay and tries again.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	var (
		lastStatus int
		lastErr    error
		attempt    int
	)
	for attempt = 1; attempt <= f.maxAttempts; attempt++ {
		resp, err := f.do(ctx, url)
		if err != nil {
			lastStatus, lastErr = 0, err
			if ctx.Err() != nil {
				break
			}
		} else {
			lastStatus, lastErr = resp.StatusCode, nil
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}
			if permanentStatus(resp.StatusCode) {
				break
			}
		}
		if attempt == f.maxAttempts {
			break
		}
		fields := []zap.Field{
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", f.maxAttempts),
			zap.Int("status_code", lastStatus),
			zap.Duration("delay", f.delay),
		}
		if lastErr != nil {
			fields = append(fields, zap.Error(lastErr))
		}
		f.logger.Warn("request failed, sleeping before retry", fields...)
		if err := f.wait(ctx, f.delay); err != nil {
			lastErr = err
			break
		}
	}
	return nil, &RequestFailedError{
		URL:        url,
		StatusCode: lastStatus,
		Attempts:   attempt,
		Err:        lastErr,
	}
}

func (f *HTTPFetcher) do(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.observeAttempt(0)
		return nil, err
	}
	defer resp.Body.Close()
	f.observeAttempt(resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (f *HTTPFetcher) observeAttempt(statusCode int) {
	if f.observe != nil {
		f.observe(statusCode)
	}
}

// waitContext sleeps for d or until ctx is done.
func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func permanentStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusGone
}
