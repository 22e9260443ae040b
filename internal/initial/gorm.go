package initial

import (
	"fmt"
	"log"
	"os"
	"time"

	"ChatLens/internal/config"
	attentionEntity "ChatLens/internal/modules/attention/domain/entity"
	chatEntity "ChatLens/internal/modules/chat/domain/entity"
	userEntity "ChatLens/internal/modules/user/domain/entity"
	"ChatLens/pkg/zlog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var GormDB *gorm.DB

func init() {
	conf := config.GetConfig()
	user := conf.MysqlConfig.User
	password := conf.MysqlConfig.Password
	host := conf.MysqlConfig.Host
	port := conf.MysqlConfig.Port
	dbName := conf.MysqlConfig.DatabaseName
	if dbName == "" {
		dbName = conf.AppName
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local", user, password, host, port, dbName)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		zlog.Fatal(err.Error())
	}

	// 自动迁移，如果没有建表，会自动创建对应的表
	err = GormDB.AutoMigrate(
		&userEntity.UserInfo{},
		&chatEntity.Session{},
		&chatEntity.Message{},
		&attentionEntity.KeywordMatch{},
	)
	if err != nil {
		zlog.Fatal(err.Error())
	}
}
