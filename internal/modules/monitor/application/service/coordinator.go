package service

import (
	"context"
	"errors"
	"sync"
	"time"

	monitorRequest "ChatLens/internal/modules/monitor/application/dto/request"
	monitorRespond "ChatLens/internal/modules/monitor/application/dto/respond"
	"ChatLens/pkg/feed"
	"ChatLens/pkg/zlog"

	"go.uber.org/zap"
)

const defaultSearchDebounce = time.Second

// 活动订阅被剔除（消费过慢）或异常关闭，列表不再随会话活动刷新
var ErrActivityDropped = errors.New("activity feed dropped")

// SessionListCoordinator 驱动管理端会话列表的刷新：
// 搜索词经防抖后查询，翻页立即查询，会话活动事件触发被动刷新。
// 每次参数变更递增版本号，慢查询返回后版本不匹配则丢弃，杜绝旧结果覆盖新结果。
type SessionListCoordinator struct {
	svc      MonitorService
	broker   *feed.Broker
	debounce time.Duration
	onUpdate func(list *monitorRespond.SessionListRespond)
	onBroken func(err error)

	mu       sync.Mutex
	search   string
	page     int
	pageSize int
	version  uint64
	timer    *time.Timer
	sub      *feed.ActivitySubscription
	closed   bool
}

type CoordinatorConfig struct {
	Service  MonitorService
	Broker   *feed.Broker
	Debounce time.Duration
	PageSize int
	OnUpdate func(list *monitorRespond.SessionListRespond)
	// OnBroken 活动订阅被动失效时回调一次，此后协调器不再刷新，需另建新实例
	OnBroken func(err error)
}

func NewSessionListCoordinator(cfg CoordinatorConfig) *SessionListCoordinator {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultSearchDebounce
	}
	c := &SessionListCoordinator{
		svc:      cfg.Service,
		broker:   cfg.Broker,
		debounce: debounce,
		onUpdate: cfg.OnUpdate,
		onBroken: cfg.OnBroken,
		page:     1,
		pageSize: cfg.PageSize,
	}

	if c.broker != nil {
		c.sub = c.broker.SubscribeActivity()
		go c.watch(c.sub)
	}
	return c
}

// Refresh 按当前参数立即查询一次
func (c *SessionListCoordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	version := c.version
	req := c.requestLocked()
	c.mu.Unlock()

	c.query(ctx, version, req)
}

// SetSearch 更新搜索词并把页码重置到第一页。
// 查询延迟到防抖窗口结束，窗口内的再次输入会取消并重新计时。
func (c *SessionListCoordinator) SetSearch(search string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.search = search
	c.page = 1
	c.version++
	version := c.version
	req := c.requestLocked()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.query(context.Background(), version, req)
	})
	c.mu.Unlock()
}

// SetPage 翻页立即生效，不经过防抖
func (c *SessionListCoordinator) SetPage(page int) {
	if page <= 0 {
		page = 1
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.page = page
	c.version++
	version := c.version
	req := c.requestLocked()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	go c.query(context.Background(), version, req)
}

// Close 停止活动订阅与未触发的防抖查询。幂等。
func (c *SessionListCoordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.version++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

func (c *SessionListCoordinator) requestLocked() monitorRequest.ListSessionsRequest {
	return monitorRequest.ListSessionsRequest{
		Search:   c.search,
		Page:     c.page,
		PageSize: c.pageSize,
	}
}

// watch 会话活动（新会话、新消息）驱动的被动刷新，按当前参数立即查询
func (c *SessionListCoordinator) watch(sub *feed.ActivitySubscription) {
	for range sub.C {
		c.Refresh(context.Background())
	}

	// 通道关闭：主动 Close 时 closed 已置位，这里只处理被动失效。
	// 失效期间的活动已经丢失，列表可能停留在过期状态，作废并通知持有方
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.version++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.sub = nil
	c.mu.Unlock()

	if c.onBroken != nil {
		c.onBroken(ErrActivityDropped)
	}
}

func (c *SessionListCoordinator) query(ctx context.Context, version uint64, req monitorRequest.ListSessionsRequest) {
	list, err := c.svc.ListSessions(ctx, req)
	if err != nil {
		zlog.Warn("会话列表查询失败", zap.Error(err))
		return
	}

	c.mu.Lock()
	stale := c.closed || c.version != version
	c.mu.Unlock()
	if stale {
		return
	}

	if c.onUpdate != nil {
		c.onUpdate(list)
	}
}
