package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestPublishReachesSessionSubscribers(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("S1")
	other := b.Subscribe("S2")
	defer sub.Cancel()
	defer other.Cancel()

	b.PublishMessage(Message{Uuid: "M1", SessionId: "S1", Role: "user", Content: "hi"})

	got := recv(t, sub.C)
	assert.Equal(t, "M1", got.Uuid)

	select {
	case msg := <-other.C:
		t.Fatalf("S2 订阅不应收到 S1 的消息: %+v", msg)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("S1")
	sub.Cancel()
	sub.Cancel() // 幂等

	_, ok := <-sub.C
	assert.False(t, ok)

	// 取消后发布不会 panic 也不会投递
	b.PublishMessage(Message{Uuid: "M1", SessionId: "S1"})
}

func TestSlowSubscriberIsEvicted(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("S1")

	// 订阅缓冲 64，写满后第 65 条触发剔除
	for i := 0; i < 65; i++ {
		b.PublishMessage(Message{Uuid: "M", SessionId: "S1"})
	}

	n := 0
	for range sub.C {
		n++
	}
	assert.Equal(t, 64, n)
}

func TestActivityEvents(t *testing.T) {
	b := NewBroker()
	watcher := b.SubscribeActivity()
	defer watcher.Cancel()

	b.PublishSessionCreated("S1")
	ev := <-watcher.C
	assert.Equal(t, ActivitySessionCreated, ev.Kind)
	assert.Equal(t, "S1", ev.SessionId)

	b.PublishMessage(Message{Uuid: "M1", SessionId: "S1"})
	ev = <-watcher.C
	assert.Equal(t, ActivityMessageCreated, ev.Kind)
}
