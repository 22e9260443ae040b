package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	attentionService "ChatLens/internal/modules/attention/application/service"
	"ChatLens/internal/modules/attention/domain/keyword"
	chatRequest "ChatLens/internal/modules/chat/application/dto/request"
	chatRespond "ChatLens/internal/modules/chat/application/dto/respond"
	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	chatRepository "ChatLens/internal/modules/chat/domain/repository"
	"ChatLens/internal/modules/chat/infrastructure/llm"
	"ChatLens/internal/modules/chat/infrastructure/mq"
	"ChatLens/pkg/feed"
	"ChatLens/pkg/util"
	"ChatLens/pkg/xerr"
	"ChatLens/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 生成失败时返回给用户的兜底回复
const fallbackAssistantReply = "AI 回覆失敗，請稍後再試。"

type ChatService interface {
	// OpenCurrentSession 返回用户当前会话，没有则建立一个。
	// 每个用户固定使用创建最早的那个会话。
	OpenCurrentSession(ctx context.Context, userID string) (*chatRespond.OpenSessionRespond, error)
	// SendMessage 追加用户消息并生成助手回复。
	// 用户消息一旦落库即不回滚：关键字台账、生成失败都不影响它。
	SendMessage(ctx context.Context, userID string, req chatRequest.SendMessageRequest) (*chatRespond.SendMessageRespond, error)
	// GetMessageList 返回会话全量消息，按时间升序。仅会话归属者或管理员可读。
	GetMessageList(ctx context.Context, userID string, isAdmin bool, req chatRequest.GetMessageListRequest) ([]chatRespond.MessageItem, error)
}

type chatServiceImpl struct {
	sessionRepo chatRepository.SessionRepository
	messageRepo chatRepository.MessageRepository
	attention   attentionService.AttentionService
	broker      *feed.Broker
	completer   llm.Completer

	publisher    mq.Publisher
	messageTopic string
}

func NewChatService(
	sessionRepo chatRepository.SessionRepository,
	messageRepo chatRepository.MessageRepository,
	attention attentionService.AttentionService,
	broker *feed.Broker,
	completer llm.Completer,
	publisher mq.Publisher,
	messageTopic string,
) ChatService {
	return &chatServiceImpl{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		attention:    attention,
		broker:       broker,
		completer:    completer,
		publisher:    publisher,
		messageTopic: messageTopic,
	}
}

func (s *chatServiceImpl) OpenCurrentSession(ctx context.Context, userID string) (*chatRespond.OpenSessionRespond, error) {
	if userID == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	sess, err := s.sessionRepo.GetFirstByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zlog.Error("查询用户会话失败", zap.Error(err))
			return nil, xerr.ErrServerError
		}
		sess = &chatEntity.Session{
			Uuid:      util.GenerateSessionID(),
			UserId:    userID,
			CreatedAt: time.Now(),
		}
		if err := s.sessionRepo.Create(sess); err != nil {
			zlog.Error("创建会话失败", zap.Error(err))
			return nil, xerr.ErrServerError
		}
		s.broker.PublishSessionCreated(sess.Uuid)
	}

	return &chatRespond.OpenSessionRespond{
		SessionId: sess.Uuid,
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *chatServiceImpl) SendMessage(ctx context.Context, userID string, req chatRequest.SendMessageRequest) (*chatRespond.SendMessageRespond, error) {
	content := strings.TrimSpace(req.Content)
	if userID == "" || req.SessionId == "" || content == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	sess, err := s.sessionRepo.GetByUUID(req.SessionId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.New(xerr.NotFound, "会话不存在")
		}
		zlog.Error("查询会话失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if sess.UserId != userID {
		return nil, xerr.ErrNoPermission
	}

	userMsg, err := s.appendMessage(ctx, sess.Uuid, chatEntity.RoleUser, content)
	if err != nil {
		zlog.Error("写入用户消息失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	reply := s.generateReply(ctx, sess.Uuid)

	assistantMsg, err := s.appendMessage(ctx, sess.Uuid, chatEntity.RoleAssistant, reply)
	if err != nil {
		zlog.Error("写入助手消息失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	return &chatRespond.SendMessageRespond{
		UserMessage:      toMessageItem(userMsg),
		AssistantMessage: toMessageItem(assistantMsg),
	}, nil
}

// appendMessage 落库一条消息并完成其全部派生动作：
// 刷新会话活动时间、记录关键字台账、广播给实时订阅者、投递 Kafka 事件。
// 派生动作失败只记日志，不回滚已落库的消息。
func (s *chatServiceImpl) appendMessage(ctx context.Context, sessionID, role, content string) (*chatEntity.Message, error) {
	msg := &chatEntity.Message{
		Uuid:      util.GenerateMessageID(),
		SessionId: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.UpdateLatestMessageAt(sessionID, msg.CreatedAt); err != nil {
		zlog.Warn("刷新会话活动时间失败", zap.String("session_id", sessionID), zap.Error(err))
	}

	if terms := keyword.Match(content); len(terms) > 0 {
		if _, err := s.attention.RecordNewMatches(ctx, sessionID, msg.Uuid, terms); err != nil {
			zlog.Warn("记录关键字台账失败",
				zap.String("session_id", sessionID),
				zap.String("message_uuid", msg.Uuid),
				zap.Error(err))
		}
	}

	s.broker.PublishMessage(feed.Message{
		Uuid:      msg.Uuid,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})

	s.publishEvent(ctx, msg)
	return msg, nil
}

// generateReply 以会话全量历史调用模型生成回复，失败时退化为固定文案
func (s *chatServiceImpl) generateReply(ctx context.Context, sessionID string) string {
	if s.completer == nil {
		return fallbackAssistantReply
	}

	history, err := s.messageRepo.ListBySession(sessionID)
	if err != nil {
		zlog.Error("读取会话历史失败", zap.String("session_id", sessionID), zap.Error(err))
		return fallbackAssistantReply
	}

	reply, err := s.completer.Complete(ctx, history)
	if err != nil {
		zlog.Error("生成助手回复失败", zap.String("session_id", sessionID), zap.Error(err))
		return fallbackAssistantReply
	}
	if strings.TrimSpace(reply) == "" {
		return fallbackAssistantReply
	}
	return reply
}

// publishEvent 把消息事件投递到 Kafka 供下游消费，未配置或失败均不影响主流程
func (s *chatServiceImpl) publishEvent(ctx context.Context, msg *chatEntity.Message) {
	if s.publisher == nil || s.messageTopic == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"uuid":       msg.Uuid,
		"session_id": msg.SessionId,
		"role":       msg.Role,
		"content":    msg.Content,
		"created_at": msg.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}

	if _, err := s.publisher.Publish(ctx, mq.Message{
		Topic: s.messageTopic,
		Key:   []byte(msg.SessionId),
		Value: payload,
	}); err != nil {
		zlog.Warn("投递消息事件失败", zap.String("message_uuid", msg.Uuid), zap.Error(err))
	}
}

func (s *chatServiceImpl) GetMessageList(ctx context.Context, userID string, isAdmin bool, req chatRequest.GetMessageListRequest) ([]chatRespond.MessageItem, error) {
	if req.SessionId == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	sess, err := s.sessionRepo.GetByUUID(req.SessionId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.New(xerr.NotFound, "会话不存在")
		}
		zlog.Error("查询会话失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if !isAdmin && sess.UserId != userID {
		return nil, xerr.ErrNoPermission
	}

	messages, err := s.messageRepo.ListBySession(sess.Uuid)
	if err != nil {
		zlog.Error("读取会话消息失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	out := make([]chatRespond.MessageItem, 0, len(messages))
	for i := range messages {
		out = append(out, toMessageItem(&messages[i]))
	}
	return out, nil
}

func toMessageItem(m *chatEntity.Message) chatRespond.MessageItem {
	return chatRespond.MessageItem{
		Uuid:      m.Uuid,
		SessionId: m.SessionId,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
	}
}
