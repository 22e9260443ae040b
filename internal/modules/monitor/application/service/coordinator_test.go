package service

import (
	"context"
	"sync"
	"testing"
	"time"

	monitorRequest "ChatLens/internal/modules/monitor/application/dto/request"
	monitorRespond "ChatLens/internal/modules/monitor/application/dto/respond"
	"ChatLens/pkg/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMonitorService 记录每次列表查询，Total 回传搜索词长度便于断言结果归属
type fakeMonitorService struct {
	mu        sync.Mutex
	calls     []monitorRequest.ListSessionsRequest
	blockOnce chan struct{}
}

func (f *fakeMonitorService) ListSessions(ctx context.Context, req monitorRequest.ListSessionsRequest) (*monitorRespond.SessionListRespond, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block := f.blockOnce
	f.blockOnce = nil
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return &monitorRespond.SessionListRespond{
		Total:    int64(len(req.Search)),
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

func (f *fakeMonitorService) ActiveSessionCount(ctx context.Context) (*monitorRespond.ActiveCountRespond, error) {
	return &monitorRespond.ActiveCountRespond{}, nil
}

func (f *fakeMonitorService) UpdateNotes(ctx context.Context, req monitorRequest.UpdateNotesRequest) error {
	return nil
}

func (f *fakeMonitorService) callList() []monitorRequest.ListSessionsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]monitorRequest.ListSessionsRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

func waitUpdate(t *testing.T, ch chan *monitorRespond.SessionListRespond) *monitorRespond.SessionListRespond {
	t.Helper()
	select {
	case list := <-ch:
		return list
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for list update")
		return nil
	}
}

func TestCoordinatorDebouncesSearch(t *testing.T) {
	f := &fakeMonitorService{}
	updates := make(chan *monitorRespond.SessionListRespond, 8)

	c := NewSessionListCoordinator(CoordinatorConfig{
		Service:  f,
		Debounce: 50 * time.Millisecond,
		PageSize: 10,
		OnUpdate: func(list *monitorRespond.SessionListRespond) { updates <- list },
	})
	defer c.Close()

	// 防抖窗口内的连续输入：前两次被取消，只查最后一次
	c.SetSearch("負")
	c.SetSearch("負評")
	c.SetSearch("負評處理")

	got := waitUpdate(t, updates)
	assert.Equal(t, int64(len("負評處理")), got.Total)
	assert.Equal(t, 1, got.Page)

	calls := f.callList()
	require.Len(t, calls, 1)
	assert.Equal(t, "負評處理", calls[0].Search)
}

func TestCoordinatorSearchResetsPage(t *testing.T) {
	f := &fakeMonitorService{}
	updates := make(chan *monitorRespond.SessionListRespond, 8)

	c := NewSessionListCoordinator(CoordinatorConfig{
		Service:  f,
		Debounce: 30 * time.Millisecond,
		PageSize: 10,
		OnUpdate: func(list *monitorRespond.SessionListRespond) { updates <- list },
	})
	defer c.Close()

	c.SetPage(3)
	got := waitUpdate(t, updates)
	assert.Equal(t, 3, got.Page)

	c.SetSearch("ACOS")
	got = waitUpdate(t, updates)
	assert.Equal(t, 1, got.Page)
}

func TestCoordinatorPageChangeIsImmediate(t *testing.T) {
	f := &fakeMonitorService{}
	updates := make(chan *monitorRespond.SessionListRespond, 8)

	c := NewSessionListCoordinator(CoordinatorConfig{
		Service:  f,
		Debounce: 10 * time.Second, // 防抖窗口开得很大，翻页不应受影响
		PageSize: 10,
		OnUpdate: func(list *monitorRespond.SessionListRespond) { updates <- list },
	})
	defer c.Close()

	c.SetPage(2)
	got := waitUpdate(t, updates)
	assert.Equal(t, 2, got.Page)
}

func TestCoordinatorDiscardsStaleResults(t *testing.T) {
	f := &fakeMonitorService{blockOnce: make(chan struct{})}
	release := f.blockOnce
	updates := make(chan *monitorRespond.SessionListRespond, 8)

	c := NewSessionListCoordinator(CoordinatorConfig{
		Service:  f,
		Debounce: 30 * time.Millisecond,
		PageSize: 10,
		OnUpdate: func(list *monitorRespond.SessionListRespond) { updates <- list },
	})
	defer c.Close()

	c.SetPage(2) // 该查询被卡住
	time.Sleep(10 * time.Millisecond)
	c.SetSearch("ROAS") // 参数已变更，旧查询的结果过期

	got := waitUpdate(t, updates)
	assert.Equal(t, int64(len("ROAS")), got.Total)

	close(release) // 旧查询此时才返回，必须被丢弃
	select {
	case stale := <-updates:
		t.Fatalf("过期结果不应推出: %+v", stale)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCoordinatorRefreshesOnActivity(t *testing.T) {
	f := &fakeMonitorService{}
	broker := feed.NewBroker()
	updates := make(chan *monitorRespond.SessionListRespond, 8)

	c := NewSessionListCoordinator(CoordinatorConfig{
		Service:  f,
		Broker:   broker,
		Debounce: 30 * time.Millisecond,
		PageSize: 10,
		OnUpdate: func(list *monitorRespond.SessionListRespond) { updates <- list },
	})
	defer c.Close()

	broker.PublishSessionCreated("S1")
	got := waitUpdate(t, updates)
	assert.Equal(t, 1, got.Page)

	broker.PublishMessage(feed.Message{Uuid: "M1", SessionId: "S1"})
	waitUpdate(t, updates)
}

func TestCoordinatorNotifiesOnActivityDrop(t *testing.T) {
	f := &fakeMonitorService{blockOnce: make(chan struct{})}
	release := f.blockOnce
	broker := feed.NewBroker()
	updates := make(chan *monitorRespond.SessionListRespond, 128)
	broken := make(chan error, 1)

	c := NewSessionListCoordinator(CoordinatorConfig{
		Service:  f,
		Broker:   broker,
		Debounce: 30 * time.Millisecond,
		PageSize: 10,
		OnUpdate: func(list *monitorRespond.SessionListRespond) { updates <- list },
		OnBroken: func(err error) { broken <- err },
	})
	defer c.Close()

	// 第一条活动事件把 watch 卡在查询里，订阅缓冲随后被灌满溢出，
	// broker 剔除该订阅并关闭通道
	broker.PublishSessionCreated("S1")
	for i := 0; i < 65; i++ {
		broker.PublishSessionCreated("S1")
	}
	close(release)

	select {
	case err := <-broken:
		assert.ErrorIs(t, err, ErrActivityDropped)
	case <-time.After(time.Second):
		t.Fatal("订阅失效后未收到通知")
	}

	// 失效后协调器作废：后续活动不再触发任何查询
	before := len(f.callList())
	broker.PublishSessionCreated("S2")
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, before, len(f.callList()))
}

func TestCoordinatorCloseStopsPendingQuery(t *testing.T) {
	f := &fakeMonitorService{}
	updates := make(chan *monitorRespond.SessionListRespond, 8)

	c := NewSessionListCoordinator(CoordinatorConfig{
		Service:  f,
		Debounce: 50 * time.Millisecond,
		PageSize: 10,
		OnUpdate: func(list *monitorRespond.SessionListRespond) { updates <- list },
	})

	c.SetSearch("負評")
	c.Close()

	select {
	case got := <-updates:
		t.Fatalf("关闭后不应推出结果: %+v", got)
	case <-time.After(150 * time.Millisecond):
	}
	assert.Empty(t, f.callList())
}
