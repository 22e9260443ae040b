package repository

import (
	"ChatLens/internal/modules/chat/domain/entity"
)

type MessageRepository interface {
	// ListBySession 返回会话全部消息，按创建时间升序
	ListBySession(sessionID string) ([]entity.Message, error)
	// ListBySessions 批量返回多个会话的消息，供列表页聚合统计使用
	ListBySessions(sessionIDs []string) ([]entity.Message, error)
	Create(message *entity.Message) error
}
