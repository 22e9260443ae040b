package persistence

import (
	"context"

	attentionEntity "ChatLens/internal/modules/attention/domain/entity"
	attentionRepository "ChatLens/internal/modules/attention/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type keywordMatchRepositoryImpl struct {
	db *gorm.DB
}

func NewKeywordMatchRepository(db *gorm.DB) attentionRepository.KeywordMatchRepository {
	return &keywordMatchRepositoryImpl{db: db}
}

func (r *keywordMatchRepositoryImpl) ListKeywordsBySession(ctx context.Context, sessionID string) ([]string, error) {
	var keywords []string
	err := r.db.WithContext(ctx).
		Model(&attentionEntity.KeywordMatch{}).
		Where("session_id = ?", sessionID).
		Pluck("keyword", &keywords).Error
	if err != nil {
		return nil, err
	}
	return keywords, nil
}

func (r *keywordMatchRepositoryImpl) Insert(ctx context.Context, match *attentionEntity.KeywordMatch) (bool, error) {
	// 依赖唯一索引 uniq_attention_session_keyword（session_id, keyword）去重，
	// 冲突按"已记录"处理（对应 MySQL 的 INSERT IGNORE 语义）
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "keyword"}},
		DoNothing: true,
	}).Create(match)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
