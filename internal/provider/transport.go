package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const maxResponseBytes = 32 << 20

// RetryConfig controls how a single provider request is retried.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts int
	// RateLimitBase is scaled by 2^attempt after a 429 response.
	RateLimitBase time.Duration
	// RetryDelay is the flat wait after any other transient failure.
	RetryDelay time.Duration
}

// retryPolicy is a backoff.BackOff that picks its delay from the outcome of the last attempt.
type retryPolicy struct {
	cfg         RetryConfig
	attempt     int
	rateLimited bool
}

func newRetryPolicy(cfg RetryConfig) *retryPolicy {
	return &retryPolicy{cfg: cfg}
}

func (p *retryPolicy) NextBackOff() time.Duration {
	failed := p.attempt
	p.attempt++
	if p.attempt >= p.cfg.MaxAttempts {
		return backoff.Stop
	}
	if p.rateLimited {
		return p.cfg.RateLimitBase << failed
	}
	return p.cfg.RetryDelay
}

func (p *retryPolicy) Reset() {
	p.attempt = 0
	p.rateLimited = false
}

// transport executes GET requests against one provider. Every attempt holds a slot of the provider
// semaphore and of the semaphore shared by all providers.
type transport struct {
	logger     *logrus.Logger
	name       string
	baseURL    string
	header     http.Header
	httpClient *http.Client
	global     *semaphore.Weighted
	local      *semaphore.Weighted
	retry      RetryConfig
}

func (t *transport) do(ctx context.Context, path string) ([]byte, error) {
	if err := t.local.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer t.local.Release(1)
	if err := t.global.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer t.global.Release(1)

	inFlightRequests.WithLabelValues(t.name).Inc()
	defer inFlightRequests.WithLabelValues(t.name).Dec()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create new http request: %w", err)
	}
	for k, v := range t.header {
		req.Header[k] = v
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		requests.WithLabelValues(t.name, "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		requests.WithLabelValues(t.name, "error").Inc()
		return nil, fmt.Errorf("%w: read response body: %w", ErrTransient, err)
	}

	requests.WithLabelValues(t.name, strconv.Itoa(resp.StatusCode)).Inc()
	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: unexpected status: %s", ErrTransient, resp.Status)
	}
}

// fetch GETs path and decodes the body with decode, retrying transient failures and malformed
// bodies according to the transport's retry config.
func fetch[T any](ctx context.Context, t *transport, path string, decode func([]byte) (T, error)) (T, error) {
	policy := newRetryPolicy(t.retry)
	op := func() (T, error) {
		var zero T
		body, err := t.do(ctx, path)
		if err == nil {
			var v T
			v, err = decode(body)
			if err == nil {
				return v, nil
			}
			err = fmt.Errorf("%w: decode response: %w", ErrTransient, err)
		}
		if ctx.Err() != nil || errors.Is(err, ErrNotFound) {
			return zero, backoff.Permanent(err)
		}
		policy.rateLimited = errors.Is(err, ErrRateLimited)
		return zero, err
	}
	notify := func(err error, wait time.Duration) {
		retries.WithLabelValues(t.name).Inc()
		t.logger.WithFields(logrus.Fields{
			"provider": t.name,
			"path":     path,
			"wait":     wait,
		}).WithError(err).Debug("Provider request failed, retrying...")
	}

	v, err := backoff.RetryNotifyWithData(op, backoff.WithContext(policy, ctx), notify)
	if err != nil {
		return v, fmt.Errorf("%s GET %s: %w", t.name, path, err)
	}
	return v, nil
}

func decodeJSON[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}

func decodeText(body []byte) (string, error) {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "", errors.New("empty body")
	}
	return s, nil
}

func decodeHeight(body []byte) (int64, error) {
	s, err := decodeText(body)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
