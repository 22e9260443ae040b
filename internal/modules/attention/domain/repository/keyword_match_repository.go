package repository

import (
	"context"

	"ChatLens/internal/modules/attention/domain/entity"
)

type KeywordMatchRepository interface {
	// ListKeywordsBySession 返回会话已记录的全部关键字
	ListKeywordsBySession(ctx context.Context, sessionID string) ([]string, error)
	// Insert 写入一条台账记录；(session_id, keyword) 冲突时不报错，返回 false 表示已存在
	Insert(ctx context.Context, match *entity.KeywordMatch) (bool, error)
}
