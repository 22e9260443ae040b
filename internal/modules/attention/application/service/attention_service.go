package service

import (
	"context"
	"time"

	attentionEntity "ChatLens/internal/modules/attention/domain/entity"
	"ChatLens/internal/modules/attention/domain/keyword"
	attentionRepository "ChatLens/internal/modules/attention/domain/repository"
	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	"ChatLens/pkg/redis"
	"ChatLens/pkg/zlog"

	"go.uber.org/zap"
)

// Summary 会话的注意力统计，始终由当前消息日志推导，不落库
type Summary struct {
	MessagesCount  int `json:"messages_count"`
	AttentionCount int `json:"attention_count"`
}

type AttentionService interface {
	// RecordNewMatches 把本条消息命中的、会话内尚未记录过的关键字写入台账，
	// 返回实际新写入的关键字子集。并发调用同一会话不会产生重复记录。
	RecordNewMatches(ctx context.Context, sessionID string, messageUUID string, terms []string) ([]string, error)
	// Summarize 统计消息总数与需注意消息数（命中任一关键字的 user 消息，按条去重）
	Summarize(messages []chatEntity.Message) Summary
}

type attentionServiceImpl struct {
	matchRepo attentionRepository.KeywordMatchRepository
}

func NewAttentionService(matchRepo attentionRepository.KeywordMatchRepository) AttentionService {
	return &attentionServiceImpl{matchRepo: matchRepo}
}

func cacheKey(sessionID string) string {
	return "attention:keywords:" + sessionID
}

func (s *attentionServiceImpl) RecordNewMatches(ctx context.Context, sessionID string, messageUUID string, terms []string) ([]string, error) {
	if sessionID == "" || messageUUID == "" || len(terms) == 0 {
		return nil, nil
	}

	recorded, err := s.recordedKeywords(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	inserted := make([]string, 0, len(terms))
	now := time.Now()
	for _, term := range terms {
		if _, ok := recorded[term]; ok {
			continue
		}
		// 读取-过滤-插入存在竞态窗口，最终由 (session_id, keyword) 唯一索引兜底：
		// 冲突返回 ok=false，按"已记录"处理而不是报错
		ok, err := s.matchRepo.Insert(ctx, &attentionEntity.KeywordMatch{
			SessionId:   sessionID,
			Keyword:     term,
			MessageUuid: messageUUID,
			CreatedAt:   now,
		})
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted = append(inserted, term)
		}
	}

	s.warmCache(ctx, sessionID, terms)
	return inserted, nil
}

// recordedKeywords 读取会话已记录的关键字集合。
// 优先走 Redis 缓存；缓存不可用或未命中时回源数据库。
// 缓存只用于减少无效插入，正确性不依赖它。
func (s *attentionServiceImpl) recordedKeywords(ctx context.Context, sessionID string) (map[string]struct{}, error) {
	if redis.IsConnected() {
		exists, err := redis.Exists(ctx, cacheKey(sessionID))
		if err == nil && exists > 0 {
			members, err := redis.SMembers(ctx, cacheKey(sessionID))
			if err == nil {
				set := make(map[string]struct{}, len(members))
				for _, m := range members {
					set[m] = struct{}{}
				}
				return set, nil
			}
			zlog.Warn("读取关键字缓存失败，回源数据库", zap.Error(err))
		}
	}

	keywords, err := s.matchRepo.ListKeywordsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		set[kw] = struct{}{}
	}
	return set, nil
}

// warmCache 把本次处理过的关键字补进缓存（无论是新插入还是冲突跳过，最终都已在台账中）
func (s *attentionServiceImpl) warmCache(ctx context.Context, sessionID string, terms []string) {
	if !redis.IsConnected() || len(terms) == 0 {
		return
	}
	members := make([]interface{}, 0, len(terms))
	for _, term := range terms {
		members = append(members, term)
	}
	if _, err := redis.SAdd(ctx, cacheKey(sessionID), members...); err != nil {
		zlog.Warn("写入关键字缓存失败", zap.Error(err))
		return
	}
	_, _ = redis.Expire(ctx, cacheKey(sessionID), 24*time.Hour)
}

func (s *attentionServiceImpl) Summarize(messages []chatEntity.Message) Summary {
	summary := Summary{MessagesCount: len(messages)}
	for i := range messages {
		m := &messages[i]
		if m.Role != chatEntity.RoleUser {
			continue
		}
		if keyword.Matches(m.Content) {
			summary.AttentionCount++
		}
	}
	return summary
}
