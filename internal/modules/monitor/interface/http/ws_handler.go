package handler

import (
	"net/http"
	"sync"
	"time"

	attentionService "ChatLens/internal/modules/attention/application/service"
	chatRespond "ChatLens/internal/modules/chat/application/dto/respond"
	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	chatRepository "ChatLens/internal/modules/chat/domain/repository"
	monitorRespond "ChatLens/internal/modules/monitor/application/dto/respond"
	monitorService "ChatLens/internal/modules/monitor/application/service"
	userEntity "ChatLens/internal/modules/user/domain/entity"
	"ChatLens/pkg/feed"
	"ChatLens/pkg/util/myjwt"
	"ChatLens/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = 30 * time.Second
)

// WsHandler 会话消息实时流。
// 每条连接挂一个独立的同步器：连上即推全量快照帧，之后每有新消息推增量后的全量帧。
type WsHandler struct {
	broker      *feed.Broker
	sessionRepo chatRepository.SessionRepository
	messageRepo chatRepository.MessageRepository
	attention   attentionService.AttentionService
	monitorSvc  monitorService.MonitorService
	debounce    time.Duration

	// 心跳参数：pingPeriod 必须小于 pongWait，否则静默会话会被误判断连
	pingPeriod time.Duration
	pongWait   time.Duration
}

func NewWsHandler(
	broker *feed.Broker,
	sessionRepo chatRepository.SessionRepository,
	messageRepo chatRepository.MessageRepository,
	attention attentionService.AttentionService,
	monitorSvc monitorService.MonitorService,
	debounce time.Duration,
) *WsHandler {
	return &WsHandler{
		broker:      broker,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		attention:   attention,
		monitorSvc:  monitorSvc,
		debounce:    debounce,
		pingPeriod:  defaultPingPeriod,
		pongWait:    defaultPongWait,
	}
}

// keepAlive 周期性发送 ping，对端的 pong 经 PongHandler 续租读超时。
// 会话消息流上客户端不发业务帧，没有心跳的话静默会话会在读超时处被掐断。
func (h *WsHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(h.pingPeriod)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

type streamFrame struct {
	Type      string                    `json:"type"`
	SessionId string                    `json:"session_id"`
	Messages  []chatRespond.MessageItem `json:"messages,omitempty"`
	Summary   *attentionService.Summary `json:"summary,omitempty"`
	Message   string                    `json:"message,omitempty"`
}

// Connect 处理 GET /wss?session_id=xxx&token=xxx。
// 浏览器原生 WebSocket 无法自定义 Header，令牌走 URL 参数，这里手动校验。
func (h *WsHandler) Connect(c *gin.Context) {
	sessionID := c.Query("session_id")
	token := c.Query("token")

	if sessionID == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	claims, err := myjwt.ParseToken(token)
	if err != nil || claims == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	sess, err := h.sessionRepo.GetByUUID(sessionID)
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	// 仅会话归属者本人或管理员可以订阅
	if claims.Role != userEntity.RoleAdmin && sess.UserId != claims.Uuid {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}
	defer conn.Close()

	// 回调可能与写入并发，gorilla 连接不允许并发写
	var writeMu sync.Mutex
	writeFrame := func(frame streamFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			zlog.Warn("推送消息帧失败", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	syncer := monitorService.NewMessageSynchronizer(monitorService.SynchronizerConfig{
		SessionID: sessionID,
		Broker:    h.broker,
		Snapshot:  h.messageRepo.ListBySession,
		Attention: h.attention,
		OnChange: func(messages []chatEntity.Message, summary attentionService.Summary) {
			items := make([]chatRespond.MessageItem, 0, len(messages))
			for i := range messages {
				m := &messages[i]
				items = append(items, chatRespond.MessageItem{
					Uuid:      m.Uuid,
					SessionId: m.SessionId,
					Role:      m.Role,
					Content:   m.Content,
					CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
				})
			}
			writeFrame(streamFrame{
				Type:      "messages",
				SessionId: sessionID,
				Messages:  items,
				Summary:   &summary,
			})
		},
		OnBroken: func(err error) {
			writeFrame(streamFrame{
				Type:      "error",
				SessionId: sessionID,
				Message:   err.Error(),
			})
		},
	})
	defer syncer.Close()

	if err := syncer.Start(); err != nil {
		zlog.Error("建立会话同步失败", zap.String("session_id", sessionID), zap.Error(err))
		writeFrame(streamFrame{Type: "error", SessionId: sessionID, Message: "同步失败，请重试"})
		return
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	// 只读循环用于感知断连，客户端不通过该连接发送业务数据
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}
}

// listCommand 会话列表流上的客户端指令
type listCommand struct {
	Action string `json:"action"` // search / page / refresh
	Search string `json:"search"`
	Page   int    `json:"page"`
}

type listFrame struct {
	Type    string                             `json:"type"`
	List    *monitorRespond.SessionListRespond `json:"list,omitempty"`
	Message string                             `json:"message,omitempty"`
}

// ConnectList 处理 GET /monitor/wss?token=xxx，仅管理员可用。
// 客户端下发搜索词与页码，服务端经防抖/立即查询后推送列表；
// 任何会话活动（新会话、新消息）也会触发一次按当前参数的刷新。
func (h *WsHandler) ConnectList(c *gin.Context) {
	claims, err := myjwt.ParseToken(c.Query("token"))
	if err != nil || claims == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if claims.Role != userEntity.RoleAdmin {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	writeList := func(frame listFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			zlog.Warn("推送会话列表失败", zap.Error(err))
		}
	}

	coordinator := monitorService.NewSessionListCoordinator(monitorService.CoordinatorConfig{
		Service:  h.monitorSvc,
		Broker:   h.broker,
		Debounce: h.debounce,
		OnUpdate: func(list *monitorRespond.SessionListRespond) {
			writeList(listFrame{Type: "sessions", List: list})
		},
		// 活动订阅被剔除后列表可能滞留旧状态，推错误帧让前端重连
		OnBroken: func(err error) {
			writeList(listFrame{Type: "error", Message: err.Error()})
		},
	})
	defer coordinator.Close()

	coordinator.Refresh(c.Request.Context())

	conn.SetReadLimit(1 << 16)
	for {
		var cmd listCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Action {
		case "search":
			coordinator.SetSearch(cmd.Search)
		case "page":
			coordinator.SetPage(cmd.Page)
		case "refresh":
			coordinator.Refresh(c.Request.Context())
		}
	}
}
