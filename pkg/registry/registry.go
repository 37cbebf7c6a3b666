// Package registry implements the authoritative in-memory lease store of a
// watchtower node. Writes are serialized under a write lock, reads take a
// shared lock, and every client-originated mutation is handed to a Replicator
// for asynchronous fan-out to the rest of the cluster.
package registry

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/HorseArcher567/watchtower/pkg/logger"
)

// ServiceRegistry 本节点权威的租约存储
//
// 两级映射：service_id -> instance_id -> 租约。
// 外层一把读写锁，按当前规模没有必要做分片。
type ServiceRegistry struct {
	mu       sync.RWMutex
	services map[string]map[string]*LeaseInfo

	replicator Replicator
	log        *slog.Logger

	// now 返回当前 Unix 时间戳，仅测试中替换
	now func() int64
}

// New 创建注册表
func New(replicator Replicator, log *slog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]map[string]*LeaseInfo),
		replicator: replicator,
		log:        logger.Component(log, "registry"),
		now:        func() int64 { return time.Now().Unix() },
	}
}

// RegisterInstance 注册（或刷新）一个实例的租约
//
// 重复注册同一 (service_id, instance_id) 不会新增租约，而是用新的实例信息
// 覆盖原租约并刷新时间戳。
// replicated 为 true 表示请求来自对端节点的复制，不再继续扇出。
func (r *ServiceRegistry) RegisterInstance(serviceID string, instance InstanceInfo, replicated bool) error {
	now := r.now()
	if now < 0 {
		return ErrClockBeforeEpoch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	service, ok := r.services[serviceID]
	if !ok {
		service = make(map[string]*LeaseInfo)
		r.services[serviceID] = service
	}
	service[instance.InstanceID] = &LeaseInfo{
		ServiceID:            serviceID,
		InstanceInfo:         instance,
		LastUpdatedTimestamp: now,
	}

	// 复制决策必须在写锁内做出，保证本地观察到写入时扇出一定已入队
	if !replicated {
		r.replicator.ReplicateRegister(serviceID, instance)
	}
	return nil
}

// RenewLease 续约
//
// 租约不存在时返回 false，不视为错误。时间戳只会前移，不会回退。
func (r *ServiceRegistry) RenewLease(serviceID, instanceID string, replicated bool) (bool, error) {
	now := r.now()
	if now < 0 {
		return false, ErrClockBeforeEpoch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lease, ok := r.services[serviceID][instanceID]
	if !ok {
		return false, nil
	}
	if now > lease.LastUpdatedTimestamp {
		lease.LastUpdatedTimestamp = now
	}
	if !replicated {
		r.replicator.ReplicateRenew(serviceID, lease.InstanceInfo)
	}
	return true, nil
}

// CancelLease 删除租约并返回被删除的内容，不存在时返回 nil
func (r *ServiceRegistry) CancelLease(serviceID, instanceID string, replicated bool) *LeaseInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	service, ok := r.services[serviceID]
	if !ok {
		return nil
	}
	lease, ok := service[instanceID]
	if !ok {
		return nil
	}
	delete(service, instanceID)

	if !replicated {
		r.replicator.ReplicateCancel(serviceID, instanceID)
	}
	removed := *lease
	return &removed
}

// GetAllInstances 返回指定服务的全部实例
//
// 服务未知返回 (nil, false)；服务存在但已无实例返回空切片。
func (r *ServiceRegistry) GetAllInstances(serviceID string) ([]InstanceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, ok := r.services[serviceID]
	if !ok {
		return nil, false
	}
	instances := make([]InstanceInfo, 0, len(service))
	for _, lease := range service {
		instances = append(instances, lease.InstanceInfo)
	}
	return instances, true
}

// GetExpiredInstances 快照当前所有过期租约
func (r *ServiceRegistry) GetExpiredInstances() []LeaseInfo {
	now := r.now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []LeaseInfo
	for _, service := range r.services {
		for _, lease := range service {
			if lease.expiredAt(now) {
				expired = append(expired, *lease)
			}
		}
	}
	return expired
}

// Evict 驱逐过期租约
//
// 两阶段：先在读锁下快照过期集合，再逐条在写锁下删除。两阶段之间被续约的
// 租约仍然会被删除；对端把续约复制过来时会经 renew->register 回补，客户端
// 直接向本节点续约则得到 404。单次最多驱逐
// maxLeaseToEvict 条，超出时用部分 Fisher–Yates 洗牌均匀采样。
// 每个节点独立驱逐，驱逐产生的删除不参与复制。
func (r *ServiceRegistry) Evict() error {
	expired := r.GetExpiredInstances()
	if len(expired) == 0 {
		return nil
	}

	toEvict := min(len(expired), maxLeaseToEvict)
	for i := 0; i < toEvict; i++ {
		// 采样在任何注册表锁之外进行
		next := i + rand.IntN(len(expired)-i)
		expired[i], expired[next] = expired[next], expired[i]

		lease := expired[i]
		r.CancelLease(lease.ServiceID, lease.InstanceInfo.InstanceID, true)
	}

	r.log.Info("evicted expired leases", "expired", len(expired), "evicted", toEvict)
	return nil
}

// LeaseCounts 按服务统计当前租约数，供指标采集使用
func (r *ServiceRegistry) LeaseCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.services))
	for serviceID, service := range r.services {
		counts[serviceID] = len(service)
	}
	return counts
}
