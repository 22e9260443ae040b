package service

import (
	"context"
	"sync"
	"testing"
	"time"

	attentionEntity "ChatLens/internal/modules/attention/domain/entity"
	chatEntity "ChatLens/internal/modules/chat/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMatchRepo 内存版台账，(session_id, keyword) 唯一约束语义与 MySQL 唯一索引一致
type fakeMatchRepo struct {
	mu      sync.Mutex
	rows    map[string][]string // sessionID -> keywords
	inserts int                 // 实际落库的行数
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{rows: make(map[string][]string)}
}

func (f *fakeMatchRepo) ListKeywordsBySession(ctx context.Context, sessionID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.rows[sessionID]))
	copy(out, f.rows[sessionID])
	return out, nil
}

func (f *fakeMatchRepo) Insert(ctx context.Context, match *attentionEntity.KeywordMatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, kw := range f.rows[match.SessionId] {
		if kw == match.Keyword {
			return false, nil
		}
	}
	f.rows[match.SessionId] = append(f.rows[match.SessionId], match.Keyword)
	f.inserts++
	return true, nil
}

func TestRecordNewMatchesSkipsAlreadyRecorded(t *testing.T) {
	repo := newFakeMatchRepo()
	svc := NewAttentionService(repo)
	ctx := context.Background()

	inserted, err := svc.RecordNewMatches(ctx, "S1", "M1", []string{"負評", "ACOS"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"負評", "ACOS"}, inserted)

	// 第二条消息再次命中 負評：不产生新台账行
	inserted, err = svc.RecordNewMatches(ctx, "S1", "M3", []string{"負評"})
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.Equal(t, 2, repo.inserts)
}

func TestRecordNewMatchesIsPerSession(t *testing.T) {
	repo := newFakeMatchRepo()
	svc := NewAttentionService(repo)
	ctx := context.Background()

	_, err := svc.RecordNewMatches(ctx, "S1", "M1", []string{"負評"})
	require.NoError(t, err)
	inserted, err := svc.RecordNewMatches(ctx, "S2", "M2", []string{"負評"})
	require.NoError(t, err)
	assert.Equal(t, []string{"負評"}, inserted)
}

func TestRecordNewMatchesConcurrentSameTerm(t *testing.T) {
	repo := newFakeMatchRepo()
	svc := NewAttentionService(repo)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.RecordNewMatches(context.Background(), "S1", "M1", []string{"ROAS", "轉換率"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// 唯一约束保证同一 (会话, 关键字) 只留一行
	assert.Equal(t, 2, repo.inserts)
}

func TestRecordNewMatchesIgnoresEmptyInput(t *testing.T) {
	repo := newFakeMatchRepo()
	svc := NewAttentionService(repo)

	inserted, err := svc.RecordNewMatches(context.Background(), "S1", "M1", nil)
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.Equal(t, 0, repo.inserts)
}

func TestSummarizeCountsMatchingUserMessagesOnly(t *testing.T) {
	svc := NewAttentionService(newFakeMatchRepo())
	now := time.Now()

	messages := []chatEntity.Message{
		{Uuid: "M1", Role: chatEntity.RoleUser, Content: "負評太多了", CreatedAt: now},
		{Uuid: "M2", Role: chatEntity.RoleAssistant, Content: "關於負評，建議先聯繫買家", CreatedAt: now},
		{Uuid: "M3", Role: chatEntity.RoleUser, Content: "又收到負評", CreatedAt: now},
		{Uuid: "M4", Role: chatEntity.RoleUser, Content: "今天天氣不錯", CreatedAt: now},
	}

	summary := svc.Summarize(messages)
	assert.Equal(t, 4, summary.MessagesCount)
	// M1、M3 都命中：按消息条数计，与台账是否新增无关；助手消息不计
	assert.Equal(t, 2, summary.AttentionCount)
	assert.LessOrEqual(t, summary.AttentionCount, summary.MessagesCount)
}

func TestSummarizeEmpty(t *testing.T) {
	svc := NewAttentionService(newFakeMatchRepo())
	summary := svc.Summarize(nil)
	assert.Equal(t, 0, summary.MessagesCount)
	assert.Equal(t, 0, summary.AttentionCount)
}
