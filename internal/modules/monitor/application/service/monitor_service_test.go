package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	attentionService "ChatLens/internal/modules/attention/application/service"
	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	chatRepository "ChatLens/internal/modules/chat/domain/repository"
	monitorRequest "ChatLens/internal/modules/monitor/application/dto/request"
	"ChatLens/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	rows        []chatRepository.AdminSessionRow
	total       int64
	activeCount int64

	lastQuery   chatRepository.AdminSessionQuery
	notesCalls  []monitorRequest.UpdateNotesRequest
	notesBySess map[string]string
}

func (f *fakeSessionRepo) GetByUUID(uuid string) (*chatEntity.Session, error) { return nil, nil }
func (f *fakeSessionRepo) GetFirstByUserID(userID string) (*chatEntity.Session, error) {
	return nil, nil
}
func (f *fakeSessionRepo) Create(session *chatEntity.Session) error { return nil }
func (f *fakeSessionRepo) UpdateNotes(uuid string, notes string) error {
	if f.notesBySess == nil {
		f.notesBySess = make(map[string]string)
	}
	f.notesCalls = append(f.notesCalls, monitorRequest.UpdateNotesRequest{SessionId: uuid, Notes: notes})
	f.notesBySess[uuid] = notes
	return nil
}
func (f *fakeSessionRepo) UpdateLatestMessageAt(uuid string, at time.Time) error { return nil }
func (f *fakeSessionRepo) ListForAdmin(q chatRepository.AdminSessionQuery) ([]chatRepository.AdminSessionRow, int64, error) {
	f.lastQuery = q
	return f.rows, f.total, nil
}
func (f *fakeSessionRepo) CountActiveSince(since time.Time) (int64, error) {
	return f.activeCount, nil
}

type fakeMessageRepo struct {
	messages []chatEntity.Message
}

func (f *fakeMessageRepo) ListBySession(sessionID string) ([]chatEntity.Message, error) {
	var out []chatEntity.Message
	for _, m := range f.messages {
		if m.SessionId == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *fakeMessageRepo) ListBySessions(sessionIDs []string) ([]chatEntity.Message, error) {
	want := make(map[string]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = struct{}{}
	}
	var out []chatEntity.Message
	for _, m := range f.messages {
		if _, ok := want[m.SessionId]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *fakeMessageRepo) Create(message *chatEntity.Message) error {
	f.messages = append(f.messages, *message)
	return nil
}

func TestListSessionsAggregatesPerSession(t *testing.T) {
	now := time.Now()
	sessionRepo := &fakeSessionRepo{
		rows: []chatRepository.AdminSessionRow{
			{
				SessionUuid: "S1", UserId: "U1", UserName: "王小明", UserEmail: "a@b.tw",
				Notes:           sql.NullString{String: "重点客户", Valid: true},
				LatestMessageAt: sql.NullTime{Time: now, Valid: true},
				CreatedAt:       now,
			},
			{SessionUuid: "S2", UserId: "U2", UserName: "李大華", UserEmail: "c@d.tw", CreatedAt: now},
		},
		total: 2,
	}
	messageRepo := &fakeMessageRepo{
		messages: []chatEntity.Message{
			{Uuid: "M1", SessionId: "S1", Role: chatEntity.RoleUser, Content: "負評太多了"},
			{Uuid: "M2", SessionId: "S1", Role: chatEntity.RoleAssistant, Content: "負評建議先聯繫買家"},
			{Uuid: "M3", SessionId: "S1", Role: chatEntity.RoleUser, Content: "又收到負評"},
			{Uuid: "M4", SessionId: "S2", Role: chatEntity.RoleUser, Content: "你好"},
		},
	}

	svc := NewMonitorService(sessionRepo, messageRepo, attentionService.NewAttentionService(nil), 10)

	list, err := svc.ListSessions(context.Background(), monitorRequest.ListSessionsRequest{Page: 1})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, int64(2), list.Total)

	s1 := list.Sessions[0]
	assert.Equal(t, "S1", s1.SessionId)
	assert.Equal(t, "重点客户", s1.Notes)
	assert.Equal(t, 3, s1.MessagesCount)
	// 两条 user 消息命中，助手消息不计；统计按消息条数而非台账行数
	assert.Equal(t, 2, s1.AttentionCount)
	assert.NotEmpty(t, s1.LatestMessageAt)

	s2 := list.Sessions[1]
	assert.Equal(t, 1, s2.MessagesCount)
	assert.Equal(t, 0, s2.AttentionCount)
	assert.Empty(t, s2.Notes)
	assert.Empty(t, s2.LatestMessageAt)
}

func TestListSessionsDefaultsPaging(t *testing.T) {
	sessionRepo := &fakeSessionRepo{}
	svc := NewMonitorService(sessionRepo, &fakeMessageRepo{}, attentionService.NewAttentionService(nil), 25)

	list, err := svc.ListSessions(context.Background(), monitorRequest.ListSessionsRequest{Search: "王", Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 25, list.PageSize)
	assert.Equal(t, "王", sessionRepo.lastQuery.Search)
}

func TestActiveSessionCount(t *testing.T) {
	sessionRepo := &fakeSessionRepo{activeCount: 7}
	svc := NewMonitorService(sessionRepo, &fakeMessageRepo{}, attentionService.NewAttentionService(nil), 10)

	got, err := svc.ActiveSessionCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ActiveCount)
}

func TestUpdateNotesRejectsEmptySessionId(t *testing.T) {
	sessionRepo := &fakeSessionRepo{}
	svc := NewMonitorService(sessionRepo, &fakeMessageRepo{}, attentionService.NewAttentionService(nil), 10)

	err := svc.UpdateNotes(context.Background(), monitorRequest.UpdateNotesRequest{Notes: "x"})
	require.Error(t, err)

	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)
	// 校验失败必须发生在任何持久化调用之前
	assert.Empty(t, sessionRepo.notesCalls)
}

func TestUpdateNotesOverwrites(t *testing.T) {
	sessionRepo := &fakeSessionRepo{}
	svc := NewMonitorService(sessionRepo, &fakeMessageRepo{}, attentionService.NewAttentionService(nil), 10)

	require.NoError(t, svc.UpdateNotes(context.Background(), monitorRequest.UpdateNotesRequest{SessionId: "S1", Notes: "第一版"}))
	require.NoError(t, svc.UpdateNotes(context.Background(), monitorRequest.UpdateNotesRequest{SessionId: "S1", Notes: ""}))

	// 空内容同样是合法覆盖
	assert.Equal(t, "", sessionRepo.notesBySess["S1"])
	assert.Len(t, sessionRepo.notesCalls, 2)
}
