package repository

import (
	"database/sql"
	"time"

	"ChatLens/internal/modules/chat/domain/entity"
)

// AdminSessionQuery 管理端会话列表查询条件
type AdminSessionQuery struct {
	Search   string // 按用户昵称 / Email 模糊匹配，不区分大小写
	Page     int
	PageSize int
}

// AdminSessionRow 会话与归属用户信息的联表结果
type AdminSessionRow struct {
	SessionUuid     string         `gorm:"column:session_uuid"`
	UserId          string         `gorm:"column:user_id"`
	UserName        string         `gorm:"column:user_name"`
	UserEmail       string         `gorm:"column:user_email"`
	Notes           sql.NullString `gorm:"column:notes"`
	LatestMessageAt sql.NullTime   `gorm:"column:latest_message_at"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
}

type SessionRepository interface {
	GetByUUID(uuid string) (*entity.Session, error)
	// GetFirstByUserID 返回该用户按创建时间最早的会话
	GetFirstByUserID(userID string) (*entity.Session, error)
	Create(session *entity.Session) error
	UpdateNotes(uuid string, notes string) error
	UpdateLatestMessageAt(uuid string, at time.Time) error
	// ListForAdmin 分页返回非管理员用户的会话及归属用户信息，按最近活动倒序（无活动的排最后）
	ListForAdmin(q AdminSessionQuery) ([]AdminSessionRow, int64, error)
	// CountActiveSince 统计最近活动时间晚于 since 的会话数，排除管理员自己的会话
	CountActiveSince(since time.Time) (int64, error)
}
