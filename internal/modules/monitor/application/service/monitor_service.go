package service

import (
	"context"
	"time"

	attentionService "ChatLens/internal/modules/attention/application/service"
	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	chatRepository "ChatLens/internal/modules/chat/domain/repository"
	monitorRequest "ChatLens/internal/modules/monitor/application/dto/request"
	monitorRespond "ChatLens/internal/modules/monitor/application/dto/respond"
	"ChatLens/pkg/xerr"
	"ChatLens/pkg/zlog"

	"go.uber.org/zap"
)

// 会话计入"活跃"的时间窗口
const activeWindow = time.Hour

const defaultPageSize = 10

type MonitorService interface {
	// ListSessions 分页返回普通用户的会话及其统计，管理员自己的会话永远不出现
	ListSessions(ctx context.Context, req monitorRequest.ListSessionsRequest) (*monitorRespond.SessionListRespond, error)
	// ActiveSessionCount 统计最近一小时内有消息的会话数
	ActiveSessionCount(ctx context.Context) (*monitorRespond.ActiveCountRespond, error)
	// UpdateNotes 覆盖式保存会话备注。会话标识为空时不触达持久层直接报参数错误
	UpdateNotes(ctx context.Context, req monitorRequest.UpdateNotesRequest) error
}

type monitorServiceImpl struct {
	sessionRepo chatRepository.SessionRepository
	messageRepo chatRepository.MessageRepository
	attention   attentionService.AttentionService
	pageSize    int
}

func NewMonitorService(
	sessionRepo chatRepository.SessionRepository,
	messageRepo chatRepository.MessageRepository,
	attention attentionService.AttentionService,
	pageSize int,
) MonitorService {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &monitorServiceImpl{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		attention:   attention,
		pageSize:    pageSize,
	}
}

func (s *monitorServiceImpl) ListSessions(ctx context.Context, req monitorRequest.ListSessionsRequest) (*monitorRespond.SessionListRespond, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	rows, total, err := s.sessionRepo.ListForAdmin(chatRepository.AdminSessionQuery{
		Search:   req.Search,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		zlog.Error("查询会话列表失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	sessionIDs := make([]string, 0, len(rows))
	for i := range rows {
		sessionIDs = append(sessionIDs, rows[i].SessionUuid)
	}

	bySession := make(map[string][]chatEntity.Message, len(sessionIDs))
	if len(sessionIDs) > 0 {
		messages, err := s.messageRepo.ListBySessions(sessionIDs)
		if err != nil {
			zlog.Error("查询会话消息失败", zap.Error(err))
			return nil, xerr.ErrServerError
		}
		for i := range messages {
			m := messages[i]
			bySession[m.SessionId] = append(bySession[m.SessionId], m)
		}
	}

	items := make([]monitorRespond.SessionItem, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		summary := s.attention.Summarize(bySession[row.SessionUuid])

		item := monitorRespond.SessionItem{
			SessionId:      row.SessionUuid,
			UserId:         row.UserId,
			UserName:       row.UserName,
			UserEmail:      row.UserEmail,
			MessagesCount:  summary.MessagesCount,
			AttentionCount: summary.AttentionCount,
			CreatedAt:      row.CreatedAt.Format(time.RFC3339),
		}
		if row.Notes.Valid {
			item.Notes = row.Notes.String
		}
		if row.LatestMessageAt.Valid {
			item.LatestMessageAt = row.LatestMessageAt.Time.Format(time.RFC3339Nano)
		}
		items = append(items, item)
	}

	return &monitorRespond.SessionListRespond{
		Sessions: items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *monitorServiceImpl) ActiveSessionCount(ctx context.Context) (*monitorRespond.ActiveCountRespond, error) {
	count, err := s.sessionRepo.CountActiveSince(time.Now().Add(-activeWindow))
	if err != nil {
		zlog.Error("统计活跃会话失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return &monitorRespond.ActiveCountRespond{ActiveCount: count}, nil
}

func (s *monitorServiceImpl) UpdateNotes(ctx context.Context, req monitorRequest.UpdateNotesRequest) error {
	if req.SessionId == "" {
		return xerr.New(xerr.BadRequest, "缺少 session_id")
	}

	if err := s.sessionRepo.UpdateNotes(req.SessionId, req.Notes); err != nil {
		zlog.Error("保存会话备注失败", zap.String("session_id", req.SessionId), zap.Error(err))
		return xerr.ErrServerError
	}
	return nil
}
