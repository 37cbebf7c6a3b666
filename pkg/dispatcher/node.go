package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/HorseArcher567/watchtower/pkg/registry"
)

const (
	// ReplicationHeader 标记请求来自对端节点的复制，接收方不得再次扇出
	ReplicationHeader = "Replication"

	userAgent   = "WatchtowerDispatcher"
	peerTimeout = 5 * time.Second
)

// peer 封装到单个对端节点的复制调用，全部尽力而为
type peer struct {
	client   *http.Client
	addr     string
	username string
	password string
	log      *slog.Logger
}

func newPeer(addr, username, password string, log *slog.Logger) *peer {
	return &peer{
		client:   &http.Client{Timeout: peerTimeout},
		addr:     addr,
		username: username,
		password: password,
		log:      log.With("peer", addr),
	}
}

func (p *peer) serviceURL(serviceID string) string {
	return fmt.Sprintf("http://%s/api/v1/services/%s", p.addr, serviceID)
}

func (p *peer) instanceURL(serviceID, instanceID string) string {
	return fmt.Sprintf("http://%s/api/v1/services/%s/%s", p.addr, serviceID, instanceID)
}

// register 向对端复制一次实例注册，期望 204
func (p *peer) register(ctx context.Context, serviceID string, instance registry.InstanceInfo) {
	body, err := json.Marshal(instance)
	if err != nil {
		p.log.Error("failed to encode instance info", "error", err)
		return
	}

	resp, err := p.send(ctx, http.MethodPost, p.serviceURL(serviceID), body)
	if err != nil {
		p.log.Error("unable to replicate register request", "error", err)
		return
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusNoContent {
		p.log.Error("unexpected status code replicating register", "status", resp.StatusCode)
	}
}

// renew 向对端复制一次续约，期望 200
//
// 对端返回 404 说明它漏掉了最初的注册，此时就地补发一次注册请求修复分歧。
func (p *peer) renew(ctx context.Context, serviceID string, instance registry.InstanceInfo) {
	resp, err := p.send(ctx, http.MethodPut, p.instanceURL(serviceID, instance.InstanceID), nil)
	if err != nil {
		p.log.Error("unable to replicate renew request", "error", err)
		return
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		p.register(ctx, serviceID, instance)
	default:
		p.log.Error("unexpected status code replicating renew", "status", resp.StatusCode)
	}
}

// cancel 向对端复制一次租约取消，期望 200
func (p *peer) cancel(ctx context.Context, serviceID, instanceID string) {
	resp, err := p.send(ctx, http.MethodDelete, p.instanceURL(serviceID, instanceID), nil)
	if err != nil {
		p.log.Error("unable to replicate cancel request", "error", err)
		return
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		p.log.Error("unexpected status code replicating cancel", "status", resp.StatusCode)
	}
}

func (p *peer) send(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(p.username, p.password)
	req.Header.Set(ReplicationHeader, "true")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return p.client.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
