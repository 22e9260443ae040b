package persistence

import (
	"strings"
	"time"

	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	chatRepository "ChatLens/internal/modules/chat/domain/repository"

	"gorm.io/gorm"
)

type sessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) chatRepository.SessionRepository {
	return &sessionRepositoryImpl{db: db}
}

func (r *sessionRepositoryImpl) GetByUUID(uuid string) (*chatEntity.Session, error) {
	var sess chatEntity.Session
	if err := r.db.Where("uuid = ?", uuid).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *sessionRepositoryImpl) GetFirstByUserID(userID string) (*chatEntity.Session, error) {
	var sess chatEntity.Session
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		First(&sess).Error
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *sessionRepositoryImpl) Create(session *chatEntity.Session) error {
	return r.db.Create(session).Error
}

func (r *sessionRepositoryImpl) UpdateNotes(uuid string, notes string) error {
	// 无条件覆盖，后写覆盖先写
	return r.db.Model(&chatEntity.Session{}).
		Where("uuid = ?", uuid).
		Update("notes", notes).Error
}

func (r *sessionRepositoryImpl) UpdateLatestMessageAt(uuid string, at time.Time) error {
	return r.db.Model(&chatEntity.Session{}).
		Where("uuid = ?", uuid).
		Update("latest_message_at", at).Error
}

// adminScope 管理端列表的公共过滤条件：联用户表并排除管理员会话
func (r *sessionRepositoryImpl) adminScope(search string) *gorm.DB {
	tx := r.db.Model(&chatEntity.Session{}).
		Joins("JOIN user_info ON user_info.uuid = chat_session.user_id").
		Where("user_info.is_admin = 0")
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("LOWER(user_info.nickname) LIKE ? OR LOWER(user_info.email) LIKE ?", like, like)
	}
	return tx
}

func (r *sessionRepositoryImpl) ListForAdmin(q chatRepository.AdminSessionQuery) ([]chatRepository.AdminSessionRow, int64, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	var total int64
	if err := r.adminScope(q.Search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []chatRepository.AdminSessionRow
	err := r.adminScope(q.Search).
		Select("chat_session.uuid AS session_uuid, chat_session.user_id AS user_id, " +
			"user_info.nickname AS user_name, user_info.email AS user_email, " +
			"chat_session.notes AS notes, chat_session.latest_message_at AS latest_message_at, " +
			"chat_session.created_at AS created_at").
		Order("chat_session.latest_message_at IS NULL, chat_session.latest_message_at DESC, chat_session.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *sessionRepositoryImpl) CountActiveSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&chatEntity.Session{}).
		Joins("JOIN user_info ON user_info.uuid = chat_session.user_id").
		Where("user_info.is_admin = 0").
		Where("chat_session.latest_message_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
