package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	http_server "ChatLens/api/http"
	"ChatLens/internal/config"
	"ChatLens/pkg/redis"
	"ChatLens/pkg/zlog"
)

func main() {
	conf := config.GetConfig()
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		zlog.Info(fmt.Sprintf("服务器正在启动，监听地址: %s", addr))
		// 目前使用 HTTP 启动。如果需要 HTTPS，请配置证书并使用 GE.RunTLS
		if err := http_server.GE.Run(addr); err != nil {
			zlog.Fatal("服务器启动失败: " + err.Error())
			return
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("正在关闭服务器...")
	if err := redis.Close(); err != nil {
		zlog.Warn("关闭 Redis 连接失败: " + err.Error())
	}
	zlog.Info("服务器已关闭")
}
