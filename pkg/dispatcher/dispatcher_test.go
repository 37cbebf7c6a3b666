package dispatcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HorseArcher567/watchtower/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "admin"
	testPassword = "password"
)

// fakePeer 记录收到的复制请求，可按路径注入响应码
type fakePeer struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	requests      []recordedRequest
	renewNotFound bool
}

type recordedRequest struct {
	method string
	path   string
	body   []byte
}

func newFakePeer(t *testing.T) *fakePeer {
	t.Helper()

	p := &fakePeer{t: t}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePeer) addr() string {
	return strings.TrimPrefix(p.server.URL, "http://")
}

func (p *fakePeer) handle(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok || username != testUsername || password != testPassword {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	assert.Equal(p.t, "true", r.Header.Get(ReplicationHeader))
	assert.Equal(p.t, userAgent, r.Header.Get("User-Agent"))

	var body []byte
	if r.Body != nil {
		body, _ = json.Marshal(decodeInstance(r))
	}

	p.mu.Lock()
	p.requests = append(p.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
	renewNotFound := p.renewNotFound
	p.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut:
		if renewNotFound {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func decodeInstance(r *http.Request) registry.InstanceInfo {
	var instance registry.InstanceInfo
	_ = json.NewDecoder(r.Body).Decode(&instance)
	return instance
}

func (p *fakePeer) recorded() []recordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedRequest(nil), p.requests...)
}

func startDispatcher(t *testing.T, peers ...*fakePeer) *Dispatcher {
	t.Helper()

	addrs := make([]string, 0, len(peers))
	for _, p := range peers {
		addrs = append(addrs, p.addr())
	}
	d := New(addrs, testUsername, testPassword, nil)
	d.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})
	return d
}

func TestRegisterFansOutToAllPeers(t *testing.T) {
	first := newFakePeer(t)
	second := newFakePeer(t)
	d := startDispatcher(t, first, second)

	instance := registry.InstanceInfo{InstanceID: "i-1", IPAddr: "10.0.0.1", Port: 8080}
	d.ReplicateRegister("foo", instance)

	for _, p := range []*fakePeer{first, second} {
		p := p
		assert.Eventually(t, func() bool {
			reqs := p.recorded()
			return len(reqs) == 1 &&
				reqs[0].method == http.MethodPost &&
				reqs[0].path == "/api/v1/services/foo"
		}, 2*time.Second, 10*time.Millisecond)
	}
}

func TestRenewFallsBackToRegisterOn404(t *testing.T) {
	p := newFakePeer(t)
	p.renewNotFound = true
	d := startDispatcher(t, p)

	instance := registry.InstanceInfo{InstanceID: "i-1", IPAddr: "10.0.0.1", Port: 8080}
	d.ReplicateRenew("foo", instance)

	require.Eventually(t, func() bool {
		return len(p.recorded()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	reqs := p.recorded()
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/api/v1/services/foo/i-1", reqs[0].path)
	assert.Equal(t, http.MethodPost, reqs[1].method)
	assert.Equal(t, "/api/v1/services/foo", reqs[1].path)
}

func TestCancelFansOut(t *testing.T) {
	p := newFakePeer(t)
	d := startDispatcher(t, p)

	d.ReplicateCancel("foo", "i-1")

	assert.Eventually(t, func() bool {
		reqs := p.recorded()
		return len(reqs) == 1 &&
			reqs[0].method == http.MethodDelete &&
			reqs[0].path == "/api/v1/services/foo/i-1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnreachablePeerIsBestEffort(t *testing.T) {
	// 一个不可达对端不应影响其它对端收到复制
	reachable := newFakePeer(t)
	d := New([]string{"127.0.0.1:1", reachable.addr()}, testUsername, testPassword, nil)
	d.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})

	d.ReplicateCancel("foo", "i-1")

	assert.Eventually(t, func() bool {
		return len(reachable.recorded()) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMailboxOverflowDropsInsteadOfBlocking(t *testing.T) {
	p := newFakePeer(t)
	// 不启动消费协程，邮箱只进不出
	d := New([]string{p.addr()}, testUsername, testPassword, nil)

	for i := 0; i < mailboxSize+10; i++ {
		d.ReplicateCancel("foo", "i-1")
	}
	assert.Equal(t, uint64(10), d.Dropped())
}

func TestNoPeersIsNoop(t *testing.T) {
	d := New(nil, testUsername, testPassword, nil)

	d.ReplicateRegister("foo", registry.InstanceInfo{InstanceID: "i-1"})
	assert.Zero(t, d.Dropped())
	assert.Empty(t, d.mailbox)
}
