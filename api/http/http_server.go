package http

import (
	"context"
	"time"

	"ChatLens/internal/config"
	"ChatLens/internal/initial"
	jwtMiddleware "ChatLens/internal/middleware/jwt"
	attentionService "ChatLens/internal/modules/attention/application/service"
	attentionPersistence "ChatLens/internal/modules/attention/infrastructure/persistence"
	chatService "ChatLens/internal/modules/chat/application/service"
	"ChatLens/internal/modules/chat/infrastructure/llm"
	"ChatLens/internal/modules/chat/infrastructure/mq"
	"ChatLens/internal/modules/chat/infrastructure/mq/kafka"
	chatPersistence "ChatLens/internal/modules/chat/infrastructure/persistence"
	chatHandler "ChatLens/internal/modules/chat/interface/http"
	monitorService "ChatLens/internal/modules/monitor/application/service"
	monitorHandler "ChatLens/internal/modules/monitor/interface/http"
	"ChatLens/internal/modules/user/application/service"
	"ChatLens/internal/modules/user/infrastructure/persistence"
	userHandler "ChatLens/internal/modules/user/interface/http"
	"ChatLens/pkg/feed"
	"ChatLens/pkg/ssl"
	"ChatLens/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var GE *gin.Engine

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	broker := feed.NewBroker()

	userRepo := persistence.NewUserInfoRepository(initial.GormDB)
	sessionRepo := chatPersistence.NewSessionRepository(initial.GormDB)
	messageRepo := chatPersistence.NewMessageRepository(initial.GormDB)
	matchRepo := attentionPersistence.NewKeywordMatchRepository(initial.GormDB)

	// 模型未配置时服务降级为固定兜底回复，不阻塞启动
	var completer llm.Completer
	if cm, meta, err := llm.NewChatModelFromConfig(context.Background(), conf); err != nil {
		zlog.Warn("聊天模型未就绪", zap.Error(err))
	} else {
		completer = llm.NewCompleter(cm)
		zlog.Info("聊天模型已就绪",
			zap.String("provider", meta.Provider),
			zap.String("model", meta.Model))
	}

	// Kafka 同理：没配 broker 就不投递事件
	var publisher mq.Publisher
	if len(conf.KafkaConfig.Brokers) > 0 {
		p, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Warn("Kafka 生产者未就绪", zap.Error(err))
		} else {
			publisher = p
		}
	}

	attentionSvc := attentionService.NewAttentionService(matchRepo)
	userSvc := service.NewUserInfoService(userRepo)
	chatSvc := chatService.NewChatService(
		sessionRepo, messageRepo, attentionSvc, broker,
		completer, publisher, conf.KafkaConfig.MessageTopic)
	monitorSvc := monitorService.NewMonitorService(
		sessionRepo, messageRepo, attentionSvc, conf.MonitorConfig.DefaultPageSize)

	userH := userHandler.NewUserInfoHandler(userSvc)
	chatH := chatHandler.NewChatHandler(chatSvc)
	monitorH := monitorHandler.NewMonitorHandler(monitorSvc)
	wsH := monitorHandler.NewWsHandler(broker, sessionRepo, messageRepo, attentionSvc,
		monitorSvc, time.Duration(conf.MonitorConfig.SearchDebounceMs)*time.Millisecond)

	GE.POST("/login", userH.Login)
	GE.POST("/register", userH.Register)
	// WebSocket 握手无法携带自定义 Header，令牌走 URL 参数，不挂 jwt 中间件
	GE.GET("/wss", wsH.Connect)
	GE.GET("/monitor/wss", wsH.ConnectList)

	authed := GE.Group("/")
	authed.Use(jwtMiddleware.Auth())
	authed.GET("/auth/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"uuid":     c.GetString("uuid"),
			"username": c.GetString("username"),
			"role":     c.GetString("role"),
		})
	})
	authed.POST("/chat/openSession", chatH.OpenSession)
	authed.POST("/chat/send", chatH.SendMessage)
	authed.POST("/chat/getMessageList", chatH.GetMessageList)

	admin := authed.Group("/monitor")
	admin.Use(jwtMiddleware.AdminOnly())
	admin.POST("/listSessions", monitorH.ListSessions)
	admin.GET("/activeCount", monitorH.ActiveCount)
	admin.POST("/updateNotes", monitorH.UpdateNotes)
}
