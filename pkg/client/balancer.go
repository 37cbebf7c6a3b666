package client

import (
	"time"

	"github.com/HorseArcher567/watchtower/pkg/registry"
)

// cacheTTL matches the server-side lease TTL: a cached view older than one
// lease lifetime may contain evicted instances and must be refetched.
const cacheTTL = 30 * time.Second

// cachedService is one fetched instance list plus its round-robin cursor.
// Access is guarded by the owning Client's mutex; the cursor mutates on
// every lookup, so shared reads are not sufficient.
type cachedService struct {
	instances []registry.InstanceInfo
	cursor    int
	fetchedAt time.Time
}

func newCachedService(instances []registry.InstanceInfo) *cachedService {
	return &cachedService{
		instances: instances,
		fetchedAt: time.Now(),
	}
}

func (s *cachedService) expired() bool {
	return time.Since(s.fetchedAt) > cacheTTL
}

// next returns the next instance in round-robin order.
func (s *cachedService) next() (registry.InstanceInfo, error) {
	if len(s.instances) == 0 {
		return registry.InstanceInfo{}, ErrNotFound
	}
	instance := s.instances[s.cursor%len(s.instances)]
	s.cursor++
	return instance, nil
}
