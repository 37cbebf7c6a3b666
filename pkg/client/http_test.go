package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HorseArcher567/watchtower/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "admin"
	testPassword = "password"
)

func authOK(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	return ok && user == testUsername && pass == testPassword
}

func newRegistryStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestGetAllInstances(t *testing.T) {
	instances := []registry.InstanceInfo{
		{InstanceID: "i-1", IPAddr: "10.0.0.1", Port: 8080},
		{InstanceID: "i-2", IPAddr: "10.0.0.2", Port: 8080},
	}
	server := newRegistryStub(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, authOK(r))
		require.Equal(t, "/api/v1/services/foo", r.URL.Path)
		_ = json.NewEncoder(w).Encode(instances)
	})

	c := NewHTTPClient([]string{server.URL}, testUsername, testPassword, nil)
	got, err := c.GetAllInstances(t.Context(), "foo")
	require.NoError(t, err)
	assert.Equal(t, instances, got)
}

func TestRegisterSendsInstanceInfo(t *testing.T) {
	var received registry.InstanceInfo
	server := newRegistryStub(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	})

	c := NewHTTPClient([]string{server.URL}, testUsername, testPassword, nil)
	instance := registry.InstanceInfo{InstanceID: "i-1", IPAddr: "10.0.0.1", Port: 8080}
	require.NoError(t, c.Register(t.Context(), "foo", instance))
	assert.Equal(t, instance, received)
}

func TestFailoverToNextURL(t *testing.T) {
	server := newRegistryStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// 第一个地址不可达，应切换到第二个
	c := NewHTTPClient([]string{"http://127.0.0.1:1", server.URL}, testUsername, testPassword, nil)
	err := c.Register(t.Context(), "foo", registry.InstanceInfo{InstanceID: "i-1"})
	assert.NoError(t, err)
}

func TestFailoverOn5xx(t *testing.T) {
	failing := newRegistryStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	healthy := newRegistryStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := NewHTTPClient([]string{failing.URL, healthy.URL}, testUsername, testPassword, nil)
	err := c.Register(t.Context(), "foo", registry.InstanceInfo{InstanceID: "i-1"})
	assert.NoError(t, err)
}

func TestMaxRetryReached(t *testing.T) {
	c := NewHTTPClient([]string{"http://127.0.0.1:1", "http://127.0.0.1:2"},
		testUsername, testPassword, nil)
	err := c.Register(t.Context(), "foo", registry.InstanceInfo{InstanceID: "i-1"})
	assert.ErrorIs(t, err, ErrMaxRetryReached)
}

func TestUnauthorizedShortCircuits(t *testing.T) {
	var hits int
	unauthorized := newRegistryStub(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
	})
	neverCalled := newRegistryStub(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("second url should not be tried after 401")
	})

	c := NewHTTPClient([]string{unauthorized.URL, neverCalled.URL}, testUsername, "wrong", nil)
	_, err := c.GetAllInstances(t.Context(), "foo")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, hits)
}

func TestNotFoundShortCircuits(t *testing.T) {
	server := newRegistryStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := NewHTTPClient([]string{server.URL}, testUsername, testPassword, nil)
	_, err := c.GetAllInstances(t.Context(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewHTTPClientRequiresURLs(t *testing.T) {
	assert.Panics(t, func() {
		NewHTTPClient(nil, testUsername, testPassword, nil)
	})
}
