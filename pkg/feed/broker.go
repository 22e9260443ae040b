package feed

import (
	"sync"
	"time"
)

// Message 实时推送的消息载荷，按持久层提交顺序投递。
// 消费方需按 Uuid 去重：快照读取与实时订阅可能投递同一条消息。
type Message struct {
	Uuid      string    `json:"uuid"`
	SessionId string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// 会话级活动事件类型
const (
	ActivitySessionCreated = "session_created"
	ActivityMessageCreated = "message_created"
)

// Activity 会话活动通知，供会话列表刷新使用
type Activity struct {
	SessionId string `json:"session_id"`
	Kind      string `json:"kind"`
}

// Subscription 单个会话的实时消息订阅句柄。
// C 被关闭表示订阅已失效（主动取消或消费过慢被剔除），不可复用。
type Subscription struct {
	C <-chan Message

	sessionID string
	ch        chan Message
	broker    *Broker

	mu     sync.Mutex // 串行化 send 与 close，取消与发布可能并发
	closed bool
}

// Cancel 同步释放订阅，幂等
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.broker.unsubscribe(s)
	s.close()
}

// send 投递一条消息，缓冲已满返回 false；已关闭的订阅静默丢弃
func (s *Subscription) send(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// ActivitySubscription 会话活动事件的订阅句柄
type ActivitySubscription struct {
	C <-chan Activity

	ch     chan Activity
	broker *Broker

	mu     sync.Mutex
	closed bool
}

func (s *ActivitySubscription) Cancel() {
	if s == nil {
		return
	}
	s.broker.unsubscribeActivity(s)
	s.close()
}

func (s *ActivitySubscription) send(ev Activity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *ActivitySubscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Broker 进程内按会话分发的消息广播器
type Broker struct {
	mu       sync.RWMutex
	sessions map[string]map[*Subscription]struct{}
	watchers map[*ActivitySubscription]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		sessions: make(map[string]map[*Subscription]struct{}),
		watchers: make(map[*ActivitySubscription]struct{}),
	}
}

// Subscribe 订阅指定会话的新消息
func (b *Broker) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{
		sessionID: sessionID,
		ch:        make(chan Message, 64),
		broker:    b,
	}
	sub.C = sub.ch

	b.mu.Lock()
	set := b.sessions[sessionID]
	if set == nil {
		set = make(map[*Subscription]struct{})
		b.sessions[sessionID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// SubscribeActivity 订阅全部会话的活动事件
func (b *Broker) SubscribeActivity() *ActivitySubscription {
	sub := &ActivitySubscription{
		ch:     make(chan Activity, 64),
		broker: b,
	}
	sub.C = sub.ch

	b.mu.Lock()
	b.watchers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// PublishMessage 向会话订阅者广播新消息，同时发出 message_created 活动事件。
// 发送缓冲已满的订阅者会被剔除并关闭，避免阻塞发布方。
func (b *Broker) PublishMessage(msg Message) {
	b.mu.RLock()
	set := b.sessions[msg.SessionId]
	subs := make([]*Subscription, 0, len(set))
	for sub := range set {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.send(msg) {
			b.unsubscribe(sub)
			sub.close()
		}
	}

	b.publishActivity(Activity{SessionId: msg.SessionId, Kind: ActivityMessageCreated})
}

// PublishSessionCreated 通知有新会话建立
func (b *Broker) PublishSessionCreated(sessionID string) {
	b.publishActivity(Activity{SessionId: sessionID, Kind: ActivitySessionCreated})
}

func (b *Broker) publishActivity(ev Activity) {
	b.mu.RLock()
	subs := make([]*ActivitySubscription, 0, len(b.watchers))
	for sub := range b.watchers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.send(ev) {
			b.unsubscribeActivity(sub)
			sub.close()
		}
	}
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	set := b.sessions[sub.sessionID]
	if set != nil {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.sessions, sub.sessionID)
		}
	}
	b.mu.Unlock()
}

func (b *Broker) unsubscribeActivity(sub *ActivitySubscription) {
	b.mu.Lock()
	delete(b.watchers, sub)
	b.mu.Unlock()
}
