// Package dispatcher fans registry writes out to the rest of the cluster.
//
// The dispatcher is a single consumer draining a bounded mailbox; each message
// is sent to every peer concurrently and awaited before the next message is
// handled. Replication is strictly best-effort: there is no retry, no
// dead-letter queue and no acknowledgement back to the registry. The data is
// soft state with a short TTL, so any missed write is repaired by the next
// heartbeat round.
package dispatcher

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/HorseArcher567/watchtower/pkg/logger"
	"github.com/HorseArcher567/watchtower/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// mailboxSize 复制邮箱容量，写满后丢弃新消息而不是阻塞注册表
const mailboxSize = 1024

// MessageKind 复制消息类型
type MessageKind int

const (
	MessageRegister MessageKind = iota
	MessageRenew
	MessageCancel
)

// Message 一条待复制的写操作
type Message struct {
	Kind      MessageKind
	ServiceID string

	// Instance 随 Register/Renew 携带
	Instance registry.InstanceInfo
	// InstanceID 随 Cancel 携带
	InstanceID string
}

// Dispatcher 复制扇出器，实现 registry.Replicator
type Dispatcher struct {
	peers   []*peer
	mailbox chan Message
	log     *slog.Logger

	dropped atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// New 创建扇出器
//
// peerAddrs 是除本节点外的集群节点 "ip:port" 列表，可以为空。
func New(peerAddrs []string, username, password string, log *slog.Logger) *Dispatcher {
	log = logger.Component(log, "dispatcher")

	peers := make([]*peer, 0, len(peerAddrs))
	for _, addr := range peerAddrs {
		peers = append(peers, newPeer(addr, username, password, log))
	}

	return &Dispatcher{
		peers:   peers,
		mailbox: make(chan Message, mailboxSize),
		log:     log,
		done:    make(chan struct{}),
	}
}

// Start 启动消费协程
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go d.consume(ctx)
	d.log.Info("dispatcher started", "peers", len(d.peers))
}

// Stop 停止消费并等待当前消息处理完成，超时由 ctx 控制
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReplicateRegister 实现 registry.Replicator
func (d *Dispatcher) ReplicateRegister(serviceID string, instance registry.InstanceInfo) {
	d.send(Message{Kind: MessageRegister, ServiceID: serviceID, Instance: instance})
}

// ReplicateRenew 实现 registry.Replicator
func (d *Dispatcher) ReplicateRenew(serviceID string, instance registry.InstanceInfo) {
	d.send(Message{Kind: MessageRenew, ServiceID: serviceID, Instance: instance})
}

// ReplicateCancel 实现 registry.Replicator
func (d *Dispatcher) ReplicateCancel(serviceID, instanceID string) {
	d.send(Message{Kind: MessageCancel, ServiceID: serviceID, InstanceID: instanceID})
}

// Dropped 返回因邮箱写满而被丢弃的消息数
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// send 非阻塞入队，邮箱满时记一次丢弃
func (d *Dispatcher) send(msg Message) {
	if len(d.peers) == 0 {
		return
	}

	select {
	case d.mailbox <- msg:
	default:
		d.dropped.Add(1)
		d.log.Warn("dispatcher mailbox full, dropping replication message",
			"kind", msg.Kind, "service_id", msg.ServiceID)
	}
}

func (d *Dispatcher) consume(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.mailbox:
			d.fanOut(ctx, msg)
		}
	}
}

// fanOut 把一条消息并发发往全部对端，并等待全部完成
func (d *Dispatcher) fanOut(ctx context.Context, msg Message) {
	start := time.Now()

	g := new(errgroup.Group)
	for _, p := range d.peers {
		p := p
		g.Go(func() error {
			switch msg.Kind {
			case MessageRegister:
				p.register(ctx, msg.ServiceID, msg.Instance)
			case MessageRenew:
				p.renew(ctx, msg.ServiceID, msg.Instance)
			case MessageCancel:
				p.cancel(ctx, msg.ServiceID, msg.InstanceID)
			}
			return nil
		})
	}
	_ = g.Wait()

	d.log.Debug("replication message handled",
		"kind", msg.Kind, "service_id", msg.ServiceID, "latency", time.Since(start).String())
}
