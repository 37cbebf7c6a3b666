// Package client is the watchtower client library: self-registration with a
// background heartbeat, lease cancellation, and cached service lookup with
// round-robin selection across instances.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/HorseArcher567/watchtower/pkg/logger"
	"github.com/HorseArcher567/watchtower/pkg/registry"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// heartbeatInterval is half the server-side lease TTL.
// A var so tests can shrink it.
var heartbeatInterval = 15 * time.Second

// registration is the identity held while this client is registered.
type registration struct {
	serviceID string
	instance  registry.InstanceInfo
}

// Client talks to a watchtower cluster.
//
// At most one registration is active per Client; a second Register without an
// intervening Cancel fails with ErrInstanceAlreadyRegistered. All methods are
// safe for concurrent use.
type Client struct {
	http *HTTPClient
	log  *slog.Logger

	// mu guards services.
	mu       sync.Mutex
	services map[string]*cachedService
	group    singleflight.Group

	// idMu guards identity; the heartbeat goroutine and the public API both
	// touch it.
	idMu     sync.Mutex
	identity *registration
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger uses an existing logger instance.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the given watchtower base URLs.
func New(urls []string, username, password string, opts ...Option) *Client {
	c := &Client{
		services: make(map[string]*cachedService),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.Component(c.log, "watchtower.client")
	c.http = NewHTTPClient(urls, username, password, c.log)
	return c
}

// Register registers this process as an instance of serviceID and spawns a
// heartbeat goroutine renewing the lease every heartbeatInterval. The
// instance id is a fresh UUID.
func (c *Client) Register(ctx context.Context, serviceID, ipAddr string, port uint16) error {
	instance := registry.InstanceInfo{
		InstanceID: uuid.NewString(),
		IPAddr:     ipAddr,
		Port:       port,
	}

	c.idMu.Lock()
	if c.identity != nil {
		c.idMu.Unlock()
		return ErrInstanceAlreadyRegistered
	}
	c.identity = &registration{serviceID: serviceID, instance: instance}
	c.idMu.Unlock()

	if err := c.http.Register(ctx, serviceID, instance); err != nil {
		// Roll the identity back so a later Register can try again.
		c.idMu.Lock()
		if c.identity != nil && c.identity.instance.InstanceID == instance.InstanceID {
			c.identity = nil
		}
		c.idMu.Unlock()
		return err
	}

	go c.heartbeat(serviceID, instance)

	c.log.Info("instance registered",
		"service_id", serviceID, "instance_id", instance.InstanceID)
	return nil
}

// Cancel removes the current registration's lease. It returns ErrNotFound if
// nothing is registered. The heartbeat goroutine notices the cleared identity
// on its next tick and terminates.
func (c *Client) Cancel(ctx context.Context) error {
	c.idMu.Lock()
	current := c.identity
	c.idMu.Unlock()
	if current == nil {
		return ErrNotFound
	}

	if err := c.http.Cancel(ctx, current.serviceID, current.instance); err != nil {
		return err
	}

	c.idMu.Lock()
	if c.identity == current {
		c.identity = nil
	}
	c.idMu.Unlock()

	c.log.Info("instance cancelled",
		"service_id", current.serviceID, "instance_id", current.instance.InstanceID)
	return nil
}

// Close cancels the active registration, if any.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := c.Cancel(ctx); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// GetServiceURL resolves serviceID to one "ip:port", round-robining across
// the cached instance list. The cache entry is refetched from the cluster
// once it is older than the lease TTL.
func (c *Client) GetServiceURL(ctx context.Context, serviceID string) (string, error) {
	c.mu.Lock()
	if service, ok := c.services[serviceID]; ok && !service.expired() {
		instance, err := service.next()
		c.mu.Unlock()
		if err != nil {
			return "", err
		}
		return formatAddr(instance), nil
	}
	c.mu.Unlock()

	return c.refetch(ctx, serviceID)
}

// refetch pulls a fresh instance list and replaces the cache entry.
// Concurrent misses for the same service share one upstream fetch.
func (c *Client) refetch(ctx context.Context, serviceID string) (string, error) {
	url, err, _ := c.group.Do(serviceID, func() (any, error) {
		instances, err := c.http.GetAllInstances(ctx, serviceID)
		if err != nil {
			return "", err
		}

		service := newCachedService(instances)
		instance, err := service.next()
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.services[serviceID] = service
		c.mu.Unlock()
		return formatAddr(instance), nil
	})
	if err != nil {
		return "", err
	}
	return url.(string), nil
}

// heartbeat renews the lease until the registered identity no longer matches
// the one captured at spawn time. Renew failures are logged and the loop
// keeps going; a silent instance is evicted server-side after the TTL.
func (c *Client) heartbeat(serviceID string, instance registry.InstanceInfo) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.idMu.Lock()
		current := c.identity
		c.idMu.Unlock()
		if current == nil || current.instance.InstanceID != instance.InstanceID {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		err := c.http.Renew(ctx, serviceID, instance)
		cancel()
		if err != nil {
			c.log.Warn("lease renew failed",
				"service_id", serviceID, "instance_id", instance.InstanceID, "error", err)
		}
	}
}

func formatAddr(instance registry.InstanceInfo) string {
	return fmt.Sprintf("%s:%d", instance.IPAddr, instance.Port)
}
