package kafka

import (
	"context"
	"fmt"
	"testing"

	"ChatLens/internal/modules/chat/infrastructure/mq"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPublisher(t *testing.T) (*saramaPublisher, *mocks.SyncProducer) {
	t.Helper()
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	mp := mocks.NewSyncProducer(t, sc)
	return &saramaPublisher{p: mp}, mp
}

func TestPublishDeliversSessionEvent(t *testing.T) {
	pub, mp := newMockPublisher(t)

	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "chat.message.created" {
			return fmt.Errorf("unexpected topic %q", m.Topic)
		}
		key, err := m.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "S1" {
			return fmt.Errorf("unexpected key %q", key)
		}
		// 空白键的 header 应被丢弃
		if len(m.Headers) != 1 || string(m.Headers[0].Key) != "message_uuid" {
			return fmt.Errorf("unexpected headers %v", m.Headers)
		}
		return nil
	})

	_, err := pub.Publish(context.Background(), mq.Message{
		Topic: "chat.message.created",
		Key:   []byte("S1"),
		Value: []byte(`{"session_id":"S1","uuid":"M1"}`),
		Headers: map[string]string{
			"message_uuid": "M1",
			"  ":           "ignored",
		},
	})
	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestPublishRejectsEmptyTopic(t *testing.T) {
	pub, mp := newMockPublisher(t)
	defer mp.Close()

	_, err := pub.Publish(context.Background(), mq.Message{Topic: "  ", Value: []byte("x")})
	assert.Error(t, err)
}

func TestPublishHonorsCancelledContext(t *testing.T) {
	pub, mp := newMockPublisher(t)
	defer mp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pub.Publish(ctx, mq.Message{Topic: "chat.message.created", Value: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}
