package metrics

import (
	"github.com/HorseArcher567/watchtower/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// LeaseCollector exports the current number of live leases per service.
type LeaseCollector struct {
	registry *registry.ServiceRegistry
	desc     *prometheus.Desc
}

func NewLeaseCollector(namespace string, reg *registry.ServiceRegistry) *LeaseCollector {
	return &LeaseCollector{
		registry: reg,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "registry_leases"),
			"Current number of live leases held by this node, per service.",
			[]string{"service_id"}, nil),
	}
}

func (c *LeaseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *LeaseCollector) Collect(ch chan<- prometheus.Metric) {
	for serviceID, count := range c.registry.LeaseCounts() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(count), serviceID)
	}
}
