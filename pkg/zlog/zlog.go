package zlog

import (
	"os"
	"path/filepath"
	"sync"

	"ChatLens/internal/config"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// getLogger 懒加载全局 logger，日志同时输出到控制台和滚动文件
func getLogger() *zap.Logger {
	once.Do(func() {
		conf := config.GetConfig()
		logPath := conf.LogConfig.LogPath
		if logPath == "" {
			logPath = "logs"
		}

		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder := zapcore.NewJSONEncoder(encoderConfig)

		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logPath, "chatlens.log"),
			MaxSize:    64, // MB
			MaxBackups: 7,
			MaxAge:     30, // days
			Compress:   true,
		})
		consoleWriter := zapcore.AddSync(os.Stdout)

		core := zapcore.NewCore(
			encoder,
			zapcore.NewMultiWriteSyncer(fileWriter, consoleWriter),
			zap.NewAtomicLevelAt(zapcore.InfoLevel),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	})
	return logger
}

func Debug(msg string, fields ...zap.Field) {
	getLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	getLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	getLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	getLogger().Error(msg, fields...)
}

// Fatal 记录日志后退出进程
func Fatal(msg string, fields ...zap.Field) {
	getLogger().Fatal(msg, fields...)
}
