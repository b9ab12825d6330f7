package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/dto"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var errHubBusy = errors.New("hub message channel full")

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type         string // "register", "unregister", "deliver"
	Client       *Client
	Notification domain.Notification
}

// Hub 按用户维护在线的 WebSocket 客户端，把新通知推送给接收者。
type Hub struct {
	messageChan chan HubMessage

	// map[userID]map[*Client]bool
	users   map[uint]map[*Client]bool
	usersMu sync.RWMutex
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub() *Hub {
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		users:       make(map[uint]map[*Client]bool),
	}
}

// Run 启动 Hub 的主事件循环，ctx 结束时关闭所有客户端并返回。
func (h *Hub) Run(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Info("Hub is shutting down...")
			return
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "deliver":
				h.deliver(msg.Notification)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.usersMu.Lock()
	if _, ok := h.users[client.UserID()]; !ok {
		h.users[client.UserID()] = make(map[*Client]bool)
	}
	h.users[client.UserID()][client] = true
	h.usersMu.Unlock()
	logrus.WithField("user_id", client.UserID()).Info("Client registered to Hub")
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		return
	}
	logCtx := logrus.WithField("user_id", client.UserID())

	h.usersMu.Lock()
	defer h.usersMu.Unlock()
	userClients, ok := h.users[client.UserID()]
	if !ok {
		return
	}
	if _, exists := userClients[client]; !exists {
		return
	}
	delete(userClients, client)
	close(client.send)
	if len(userClients) == 0 {
		delete(h.users, client.UserID())
	}
	logCtx.Info("Client unregistered from Hub")
}

func (h *Hub) closeAll() {
	h.usersMu.Lock()
	defer h.usersMu.Unlock()
	for userID, userClients := range h.users {
		for client := range userClients {
			close(client.send)
		}
		delete(h.users, userID)
	}
}

// deliver 把通知发送给接收者的所有在线客户端，慢客户端直接跳过。
func (h *Hub) deliver(n domain.Notification) {
	h.usersMu.RLock()
	userClients := h.users[n.UserID]
	recipients := make([]*Client, 0, len(userClients))
	for client := range userClients {
		recipients = append(recipients, client)
	}
	h.usersMu.RUnlock()

	if len(recipients) == 0 {
		return
	}

	message, err := json.Marshal(dto.FromNotification(n))
	if err != nil {
		logrus.WithError(err).Error("Hub: failed to marshal notification")
		return
	}
	for _, client := range recipients {
		select {
		case client.send <- message:
		default:
			logrus.WithField("user_id", n.UserID).Warn("Client send channel full, skipping notification")
		}
	}
}

// QueueMessage 将消息放入 Hub 的处理队列（非阻塞）。
// 返回 false 表示队列已满。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// Deliver 请求 Hub 推送一条通知。
func (h *Hub) Deliver(n domain.Notification) bool {
	return h.QueueMessage(HubMessage{Type: "deliver", Notification: n})
}

// ConnectedClients 返回 userID 当前的连接数。
func (h *Hub) ConnectedClients(userID uint) int {
	h.usersMu.RLock()
	defer h.usersMu.RUnlock()
	return len(h.users[userID])
}

// 订阅失败后的重试间隔
const (
	subscribeMinBackoff = 500 * time.Millisecond
	subscribeMaxBackoff = 30 * time.Second
)

// Subscribe 订阅 Redis 通知频道并把收到的通知交给 Hub，直到 ctx 结束。
// 多个实例同时订阅时，每个实例只推送给自己持有的连接。
// 订阅失败或连接断开时按指数退避重新订阅。
func (h *Hub) Subscribe(ctx context.Context, rdb *redis.Client, channel string) {
	log := logrus.WithFields(logrus.Fields{"component": "hub", "channel": channel})
	backoff := subscribeMinBackoff
	for {
		subscribed, err := h.consume(ctx, rdb, channel, log)
		if ctx.Err() != nil {
			return
		}
		if subscribed {
			backoff = subscribeMinBackoff
		}
		log.WithError(err).WithField("retry_in", backoff).Warn("Notification subscription lost, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > subscribeMaxBackoff {
			backoff = subscribeMaxBackoff
		}
	}
}

// consume 订阅一次频道并转发消息，返回是否曾订阅成功以及退出原因。
func (h *Hub) consume(ctx context.Context, rdb *redis.Client, channel string, log *logrus.Entry) (bool, error) {
	pubsub := rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return false, err
	}
	log.Info("Subscribed to notification channel")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return true, errors.New("notification channel closed")
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				log.WithError(err).Warn("Discarding malformed notification message")
				continue
			}
			h.Deliver(n)
		}
	}
}

// Publish 在没有 Redis 时直接把通知交给本进程的 Hub。
func (h *Hub) Publish(_ context.Context, n domain.Notification) error {
	if !h.Deliver(n) {
		return errHubBusy
	}
	return nil
}
