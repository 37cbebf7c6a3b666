package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HorseArcher567/watchtower/pkg/registry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopReplicator struct{}

func (noopReplicator) ReplicateRegister(string, registry.InstanceInfo) {}
func (noopReplicator) ReplicateRenew(string, registry.InstanceInfo)    {}
func (noopReplicator) ReplicateCancel(string, string)                  {}

func TestServerMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewServerMetrics("watchtower")
	promReg := prometheus.NewRegistry()
	require.NoError(t, promReg.Register(m))

	engine := gin.New()
	engine.Use(m.MiddlewareHandler())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, float64(3),
		testutil.ToFloat64(m.startedRequest.WithLabelValues(http.MethodGet, "/ping")))
	assert.Equal(t, float64(3),
		testutil.ToFloat64(m.handledRequest.WithLabelValues("200", http.MethodGet, "/ping")))
}

func TestLeaseCollector(t *testing.T) {
	reg := registry.New(noopReplicator{}, nil)
	require.NoError(t, reg.RegisterInstance("foo", registry.InstanceInfo{InstanceID: "a"}, true))
	require.NoError(t, reg.RegisterInstance("foo", registry.InstanceInfo{InstanceID: "b"}, true))

	collector := NewLeaseCollector("watchtower", reg)
	promReg := prometheus.NewRegistry()
	require.NoError(t, promReg.Register(collector))

	families, err := promReg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "watchtower_registry_leases", families[0].GetName())
	require.Len(t, families[0].GetMetric(), 1)
	assert.Equal(t, float64(2), families[0].GetMetric()[0].GetGauge().GetValue())
}
