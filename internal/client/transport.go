package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

var errNotFound = errors.New("not found")

// notFoundAs replaces a 404 with the domain sentinel
func notFoundAs(err, sentinel error) error {
	if errors.Is(err, errNotFound) {
		return sentinel
	}
	return err
}

func (c *platformClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()
	return time.Now().Before(c.throttledUntil)
}

func (c *platformClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.throttledUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Platform API throttled us, requests disabled until %v",
		c.throttledUntil.Format("15:04:05"))
}

func (c *platformClient) getJSON(ctx context.Context, req *resty.Request, path string, out interface{}) error {
	if c.isCircuitBreakerOpen() {
		return fmt.Errorf("circuit breaker is open, platform API throttled")
	}

	c.rl.Take()

	resp, err := req.SetContext(ctx).Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode() == http.StatusTooManyRequests:
		c.triggerCircuitBreaker()
		return fmt.Errorf("HTTP error: %s", resp.Status())
	case resp.IsError():
		return fmt.Errorf("HTTP error: %s", resp.Status())
	}

	if err := json.Unmarshal([]byte(resp.String()), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	log.Debugf("Fetched %s (%d)", path, resp.StatusCode())
	return nil
}
