package service

import (
	"errors"
	"sync"

	attentionService "ChatLens/internal/modules/attention/application/service"
	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	"ChatLens/pkg/feed"
)

// 同步器状态机：Idle -> Loading -> Live，任意状态可进入 Closed。
// Closed 为终态；快照读取失败退回 Idle 可重试，
// 实时订阅被剔除则日志不再可信，同步器直接作废，需另建新实例。
type SyncState int32

const (
	StateIdle SyncState = iota
	StateLoading
	StateLive
	StateClosed
)

var (
	ErrSyncClosed  = errors.New("synchronizer closed")
	ErrSyncStarted = errors.New("synchronizer already started")
	// 订阅通道被剔除（消费过慢）或异常关闭，期间的消息已丢失
	ErrFeedDropped = errors.New("realtime feed dropped")
)

// MessageSynchronizer 维护单个会话的完整消息日志：
// 先订阅实时流、再读取持久层快照，两路按消息 Uuid 合并去重，
// 日志只增不减，每次变化通过 OnChange 推出全量副本与统计。
type MessageSynchronizer struct {
	sessionID string
	broker    *feed.Broker
	snapshot  func(sessionID string) ([]chatEntity.Message, error)
	attention attentionService.AttentionService
	onChange  func(messages []chatEntity.Message, summary attentionService.Summary)
	onBroken  func(err error)

	mu       sync.Mutex
	state    SyncState
	gen      uint64
	messages []chatEntity.Message
	seen     map[string]struct{}
	sub      *feed.Subscription
}

type SynchronizerConfig struct {
	SessionID string
	Broker    *feed.Broker
	// Snapshot 读取会话当前的全量消息，按时间升序
	Snapshot  func(sessionID string) ([]chatEntity.Message, error)
	Attention attentionService.AttentionService
	OnChange  func(messages []chatEntity.Message, summary attentionService.Summary)
	OnBroken  func(err error)
}

func NewMessageSynchronizer(cfg SynchronizerConfig) *MessageSynchronizer {
	return &MessageSynchronizer{
		sessionID: cfg.SessionID,
		broker:    cfg.Broker,
		snapshot:  cfg.Snapshot,
		attention: cfg.Attention,
		onChange:  cfg.OnChange,
		onBroken:  cfg.OnBroken,
		state:     StateIdle,
	}
}

func (s *MessageSynchronizer) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages 返回当前日志的副本
func (s *MessageSynchronizer) Messages() []chatEntity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Start 建立同步：订阅必须先于快照读取，加载期间落库的消息
// 会停在订阅缓冲里，快照应用后统一去重合并，不存在丢失窗口。
// 快照读取失败时退回 Idle，可重试；成功后触发一次全量 OnChange。
func (s *MessageSynchronizer) Start() error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrSyncClosed
	case StateLoading, StateLive:
		s.mu.Unlock()
		return ErrSyncStarted
	}
	s.state = StateLoading
	s.gen++
	gen := s.gen
	sub := s.broker.Subscribe(s.sessionID)
	s.sub = sub
	s.mu.Unlock()

	snapshot, err := s.snapshot(s.sessionID)

	s.mu.Lock()
	if s.state == StateClosed || s.gen != gen {
		s.mu.Unlock()
		sub.Cancel()
		return ErrSyncClosed
	}
	if err != nil {
		s.state = StateIdle
		s.sub = nil
		s.mu.Unlock()
		sub.Cancel()
		return err
	}

	s.messages = nil
	s.seen = make(map[string]struct{}, len(snapshot))
	for i := range snapshot {
		s.appendLocked(snapshot[i])
	}
	s.state = StateLive
	snap := s.copyLocked()
	s.mu.Unlock()

	s.emit(snap)
	go s.run(sub, gen)
	return nil
}

// Close 终止同步并同步释放订阅，此后不再触发任何回调。幂等。
func (s *MessageSynchronizer) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.gen++
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

func (s *MessageSynchronizer) run(sub *feed.Subscription, gen uint64) {
	for msg := range sub.C {
		s.mu.Lock()
		if s.state != StateLive || s.gen != gen {
			s.mu.Unlock()
			return
		}
		changed := s.appendLocked(chatEntity.Message{
			Uuid:      msg.Uuid,
			SessionId: msg.SessionId,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
		if !changed {
			s.mu.Unlock()
			continue
		}
		snap := s.copyLocked()
		s.mu.Unlock()

		s.emit(snap)
	}

	// 通道关闭：主动 Cancel 时 gen 已变更，这里只处理被动失效。
	// 失效期间的消息已经丢失，日志无法再保证完整，置为终态
	s.mu.Lock()
	if s.state == StateClosed || s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.sub = nil
	s.mu.Unlock()

	if s.onBroken != nil {
		s.onBroken(ErrFeedDropped)
	}
}

// appendLocked 按 Uuid 去重后追加到日志尾部，返回是否真正追加
func (s *MessageSynchronizer) appendLocked(msg chatEntity.Message) bool {
	if _, ok := s.seen[msg.Uuid]; ok {
		return false
	}
	s.seen[msg.Uuid] = struct{}{}
	s.messages = append(s.messages, msg)
	return true
}

func (s *MessageSynchronizer) copyLocked() []chatEntity.Message {
	out := make([]chatEntity.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *MessageSynchronizer) emit(messages []chatEntity.Message) {
	if s.onChange == nil {
		return
	}
	s.onChange(messages, s.attention.Summarize(messages))
}
