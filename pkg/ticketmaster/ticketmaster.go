// Package ticketmaster implements the attraction lookup and event search
// collaborators on top of the Ticketmaster Discovery API. Requests are rate
// limited to the vendor quota and guarded by a circuit breaker so a vendor
// outage fails fast instead of stalling every per-artist search. Failed
// requests are never retried; callers degrade to empty results.
package ticketmaster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"Concert-Scout-Go/pkg/concert"
	"Concert-Scout-Go/pkg/metrics"
)

// DefaultBaseURL is the Discovery API root.
const DefaultBaseURL = "https://app.ticketmaster.com/discovery/v2"

const (
	serviceName    = "ticketmaster"
	defaultTimeout = 30 * time.Second
	// The Discovery API allows five requests per second per key.
	defaultRate  = 5
	maxBodyBytes = 4 << 20
)

// Client queries the Discovery API. Create it with NewClient.
type Client struct {
	key     string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     logrus.FieldLogger
}

// Compile-time checks that Client satisfies the collaborator interfaces.
var (
	_ concert.AttractionLookup = (*Client)(nil)
	_ concert.EventSearcher    = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout bounds each call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRate sets the outbound request rate. A non-positive value disables
// limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient returns a client authenticating with the API key.
func NewClient(key string, opts ...Option) *Client {
	c := &Client{
		key:     key,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRate), 1),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Info("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(serviceName).Set(0)
	return c
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// get performs one GET against path with params and returns the body. Every
// failure, including an open breaker, is wrapped in
// concert.ErrSourceUnavailable.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", serviceName, path, concert.ErrSourceUnavailable, err)
	}
	params.Set("apikey", c.key)
	u := c.baseURL + path + "?" + params.Encode()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status: %s", resp.Status)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	})
	metrics.RecordExternal(serviceName, err)
	if err != nil {
		// The request URL carries the API key, so only the path is reported.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%s %s: %w: %v", serviceName, path, concert.ErrSourceUnavailable, err)
	}
	return body, nil
}
