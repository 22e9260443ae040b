package entity

import (
	"time"
)

// KeywordMatch 关键字台账。
// (session_id, keyword) 唯一约束是并发写入去重的最终依据：
// 两条消息同时命中同一关键字时，只有一条插入成功，冲突按"已记录"处理。
type KeywordMatch struct {
	Id          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SessionId   string    `gorm:"column:session_id;type:char(20);not null;uniqueIndex:uniq_attention_session_keyword"`
	Keyword     string    `gorm:"column:keyword;type:varchar(64);not null;uniqueIndex:uniq_attention_session_keyword"`
	MessageUuid string    `gorm:"column:message_uuid;type:char(20);not null;index:idx_attention_message"`
	CreatedAt   time.Time `gorm:"column:created_at;type:datetime;not null"`
}

func (KeywordMatch) TableName() string {
	return "attention_keyword_match"
}
