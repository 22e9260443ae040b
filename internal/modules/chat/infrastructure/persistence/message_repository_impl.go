package persistence

import (
	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	chatRepository "ChatLens/internal/modules/chat/domain/repository"

	"gorm.io/gorm"
)

type messageRepositoryImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) chatRepository.MessageRepository {
	return &messageRepositoryImpl{db: db}
}

func (r *messageRepositoryImpl) ListBySession(sessionID string) ([]chatEntity.Message, error) {
	var msgs []chatEntity.Message
	err := r.db.
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepositoryImpl) ListBySessions(sessionIDs []string) ([]chatEntity.Message, error) {
	if len(sessionIDs) == 0 {
		return []chatEntity.Message{}, nil
	}
	var msgs []chatEntity.Message
	err := r.db.
		Where("session_id IN ?", sessionIDs).
		Order("session_id ASC, created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepositoryImpl) Create(message *chatEntity.Message) error {
	return r.db.Create(message).Error
}
