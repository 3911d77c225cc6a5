package broadcast

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Conn 订阅端连接抽象（WSConn 满足；测试中可用内存实现替代）
type Conn interface {
	// ID 连接的唯一标识
	ID() string
	// Send 向连接投递一个事件，失败返回错误
	Send(event string, payload []byte) error
}

// Hub 实时广播中心：主题 → 订阅连接集合
// 单把互斥锁保护全部状态，同一主题内的投递顺序与发布顺序一致。
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[string]Conn
	logger *zap.Logger
}

// NewHub 创建广播中心
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[string]Conn),
		logger: logger,
	}
}

// Subscribe 将连接订阅到主题（重复订阅为幂等操作）
func (h *Hub) Subscribe(topic string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]Conn)
		h.topics[topic] = subs
	}
	subs[conn.ID()] = conn

	h.logger.Debug("Connection subscribed",
		zap.String("topic", topic),
		zap.String("conn_id", conn.ID()),
	)
}

// Unsubscribe 将连接从主题移除（未订阅时为空操作）
func (h *Hub) Unsubscribe(topic string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(topic, conn.ID())
}

// RemoveConnection 将连接从全部主题移除（连接断开时调用）
func (h *Hub) RemoveConnection(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic := range h.topics {
		h.removeLocked(topic, connID)
	}
}

func (h *Hub) removeLocked(topic string, connID string) {
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, connID)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish 向主题的全部订阅者投递事件
// payload 只序列化一次；投递失败的连接视为已断开并移除，不影响其余订阅者。
func (h *Hub) Publish(topic string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast payload",
			zap.String("topic", topic),
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		return
	}

	var dead []string
	for id, conn := range subs {
		if err := conn.Send(event, data); err != nil {
			h.logger.Warn("Dropping dead connection",
				zap.String("topic", topic),
				zap.String("conn_id", id),
				zap.Error(err),
			)
			dead = append(dead, id)
		}
	}

	for _, id := range dead {
		h.removeLocked(topic, id)
	}
}

// PublishAlert 发布报警事件：同时投递到患者主题与全局报警主题
func (h *Hub) PublishAlert(patientID string, payload interface{}) {
	h.Publish(PatientTopic(patientID), EventAlertNew, payload)
	h.Publish(TopicAllAlerts, EventAlertNew, payload)
}

// SubscriberCount 主题当前订阅数（监控用）
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}
