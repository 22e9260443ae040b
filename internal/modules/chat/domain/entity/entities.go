package entity

import (
	"database/sql"
	"time"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session 客服对话会话表。
// 会话只增不删，notes 仅由管理端编辑，latest_message_at 在每次写入消息时更新。
type Session struct {
	Id              int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid            string         `gorm:"column:uuid;type:char(20);not null;uniqueIndex:uniq_chat_session_uuid"`
	UserId          string         `gorm:"column:user_id;type:char(20);not null;index:idx_chat_session_user"`
	Notes           sql.NullString `gorm:"column:notes;type:text"`
	LatestMessageAt sql.NullTime   `gorm:"column:latest_message_at;type:datetime(3);index:idx_chat_session_latest"`
	CreatedAt       time.Time      `gorm:"column:created_at;type:datetime;not null"`
}

func (Session) TableName() string {
	return "chat_session"
}

// Message 会话消息表，严格追加，created_at 在落库时分配
type Message struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid      string    `gorm:"column:uuid;type:char(20);not null;uniqueIndex:uniq_chat_message_uuid"`
	SessionId string    `gorm:"column:session_id;type:char(20);not null;index:idx_chat_message_session"`
	Role      string    `gorm:"column:role;type:varchar(10);not null;comment:user / assistant"`
	Content   string    `gorm:"column:content;type:mediumtext"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);not null"`
}

func (Message) TableName() string {
	return "chat_message"
}
