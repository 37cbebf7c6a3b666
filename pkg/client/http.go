package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/HorseArcher567/watchtower/pkg/logger"
	"github.com/HorseArcher567/watchtower/pkg/registry"
)

// requestTimeout bounds every single registry call.
const requestTimeout = 5 * time.Second

// HTTPClient issues authenticated calls against a cluster of watchtower
// nodes, failing over across the configured base URLs in order.
//
// A URL is considered failed on a transport error or a 5xx status and the
// next one is tried. 401 short-circuits: the credentials are shared, so a
// neighbour cannot do better. Once every URL has failed the call returns
// ErrMaxRetryReached.
type HTTPClient struct {
	urls     []string
	username string
	password string

	client *http.Client
	log    *slog.Logger
}

// NewHTTPClient creates a caller for the given registry base URLs.
// The list must be non-empty; URLs are tried in the given order.
func NewHTTPClient(urls []string, username, password string, log *slog.Logger) *HTTPClient {
	if len(urls) == 0 {
		panic("client: at least one watchtower url is required")
	}
	log = logger.Component(log, "client.http")

	normalized := make([]string, 0, len(urls))
	for _, url := range urls {
		normalized = append(normalized, strings.TrimSuffix(url, "/"))
	}

	return &HTTPClient{
		urls:     normalized,
		username: username,
		password: password,
		client:   &http.Client{Timeout: requestTimeout},
		log:      log,
	}
}

// Register registers an instance, expecting 204 from the node.
func (c *HTTPClient) Register(ctx context.Context, serviceID string, instance registry.InstanceInfo) error {
	body, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/v1/services/"+serviceID, body, http.StatusNoContent)
	return err
}

// Renew extends the lease of a previously registered instance.
func (c *HTTPClient) Renew(ctx context.Context, serviceID string, instance registry.InstanceInfo) error {
	path := fmt.Sprintf("/api/v1/services/%s/%s", serviceID, instance.InstanceID)
	_, err := c.do(ctx, http.MethodPut, path, nil, http.StatusOK)
	return err
}

// Cancel removes the lease of a previously registered instance.
func (c *HTTPClient) Cancel(ctx context.Context, serviceID string, instance registry.InstanceInfo) error {
	path := fmt.Sprintf("/api/v1/services/%s/%s", serviceID, instance.InstanceID)
	_, err := c.do(ctx, http.MethodDelete, path, nil, http.StatusOK)
	return err
}

// GetAllInstances fetches the live instances of a service.
func (c *HTTPClient) GetAllInstances(ctx context.Context, serviceID string) ([]registry.InstanceInfo, error) {
	payload, err := c.do(ctx, http.MethodGet, "/api/v1/services/"+serviceID, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var instances []registry.InstanceInfo
	if err := json.Unmarshal(payload, &instances); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return instances, nil
}

// do walks the configured URLs until one succeeds or short-circuits.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, wantStatus int) ([]byte, error) {
	for _, base := range c.urls {
		payload, failedOver, err := c.attempt(ctx, method, base+path, body, wantStatus)
		if failedOver {
			c.log.Warn("watchtower url failed, trying next", "url", base, "error", err)
			continue
		}
		return payload, err
	}
	return nil, ErrMaxRetryReached
}

// attempt performs one request against one URL. failedOver reports whether
// the caller should move on to the next URL.
func (c *HTTPClient) attempt(ctx context.Context, method, url string, body []byte, wantStatus int) (payload []byte, failedOver bool, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	req.SetBasicAuth(c.username, c.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == wantStatus:
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return payload, false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("%w: status %d from %s", ErrInternal, resp.StatusCode, url)
	default:
		return nil, false, fmt.Errorf("%w: unexpected status %d from %s", ErrInternal, resp.StatusCode, url)
	}
}
