package registry

const (
	// leaseTTLSeconds 租约有效期（秒），超过后由驱逐任务回收
	leaseTTLSeconds = 30

	// maxLeaseToEvict 单次驱逐的租约数量上限
	maxLeaseToEvict = 50
)

// InstanceInfo 服务实例信息
type InstanceInfo struct {
	InstanceID string `json:"instance_id"`
	IPAddr     string `json:"ip_addr"`
	Port       uint16 `json:"port"`
}

// LeaseInfo 一条租约，对应一个存活的服务实例
type LeaseInfo struct {
	ServiceID            string       `json:"service_id"`
	InstanceInfo         InstanceInfo `json:"instance_info"`
	LastUpdatedTimestamp int64        `json:"last_updated_timestamp"`
}

// expiredAt 判断租约在 now（Unix 秒）时刻是否已过期
func (l *LeaseInfo) expiredAt(now int64) bool {
	return l.LastUpdatedTimestamp+leaseTTLSeconds < now
}

// Replicator 把本节点的写操作异步扇出到集群其它节点。
// 三个方法都必须立即返回，不能阻塞注册表的写路径。
type Replicator interface {
	ReplicateRegister(serviceID string, instance InstanceInfo)
	ReplicateRenew(serviceID string, instance InstanceInfo)
	ReplicateCancel(serviceID, instanceID string)
}
