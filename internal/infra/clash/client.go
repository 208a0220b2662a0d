// Package clash implements the Clash of Clans API client.
package clash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	domain "war_alarm_bot/internal/domain/clash"
)

const (
	DefaultBaseURL = "https://api.clashofclans.com/v1"

	requestTimeout = 10 * time.Second
	retryDelay     = 1 * time.Second
	maxAttempts    = 3

	// maxInFlight bounds concurrent requests against the API. The polling
	// loop is sequential, but command handlers issue their own calls; the
	// shared permit pool keeps the sum under the provider's rate limits.
	maxInFlight = 5

	requestsPerSecond = 10
)

// HTTPClient is the Clash of Clans API accessor. It implements
// domain/clash.Client.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	permits *semaphore.Weighted
	limiter *rate.Limiter
	logger  *logrus.Entry
}

func NewHTTPClient(baseURL, token string, logger *logrus.Entry) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
		permits: semaphore.NewWeighted(maxInFlight),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:  logger,
	}
}

func (c *HTTPClient) CurrentWar(ctx context.Context, clanTag string) (*domain.War, error) {
	var war domain.War
	if err := c.getJSON(ctx, "/clans/"+url.PathEscape(clanTag)+"/currentwar", &war); err != nil {
		return nil, err
	}
	return &war, nil
}

func (c *HTTPClient) LeagueGroup(ctx context.Context, clanTag string) (*domain.LeagueGroup, error) {
	var group domain.LeagueGroup
	if err := c.getJSON(ctx, "/clans/"+url.PathEscape(clanTag)+"/currentwar/leaguegroup", &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *HTTPClient) LeagueWar(ctx context.Context, warTag string) (*domain.War, error) {
	var war domain.War
	if err := c.getJSON(ctx, "/clanwarleagues/wars/"+url.PathEscape(warTag), &war); err != nil {
		return nil, err
	}
	return &war, nil
}

// getJSON performs one authorized GET with the permit pool, the request
// rate limiter, and up to maxAttempts tries spaced by a fixed delay.
// A 404 means "no such war/group" and is returned as domain.ErrNotFound
// without retrying.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.permits.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring API permit: %w", err)
	}
	defer c.permits.Release(1)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), maxAttempts-1), ctx)

	body, err := backoff.RetryWithData(func() ([]byte, error) {
		return c.doOnce(ctx, path)
	}, policy)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding API response for %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) doOnce(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("building API request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("API request failed, will retry")
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Definitive answer, not a transient failure.
		return nil, backoff.Permanent(domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		err := fmt.Errorf("API returned status %d for %s", resp.StatusCode, path)
		c.logger.WithField("status", resp.StatusCode).WithField("path", path).Warn("API request failed, will retry")
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading API response: %w", err)
	}
	return body, nil
}
