package entity

import (
	"time"
)

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserInfo 用户表
type UserInfo struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid      string    `gorm:"column:uuid;type:char(20);not null;uniqueIndex:uniq_user_uuid"`
	Username  string    `gorm:"column:username;type:varchar(32);not null;uniqueIndex:uniq_user_username"`
	Password  string    `gorm:"column:password;type:varchar(64);not null"`
	Nickname  string    `gorm:"column:nickname;type:varchar(32);not null"`
	Email     string    `gorm:"column:email;type:varchar(64);not null;index:idx_user_email"`
	IsAdmin   int8      `gorm:"column:is_admin;type:tinyint;not null;default:0;comment:0.普通用户，1.管理员"`
	Status    int8      `gorm:"column:status;type:tinyint;not null;default:0;comment:0.正常，1.停用"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime;not null"`
}

func (UserInfo) TableName() string {
	return "user_info"
}

// Role 返回用户角色标识
func (u *UserInfo) Role() string {
	if u.IsAdmin == 1 {
		return RoleAdmin
	}
	return RoleUser
}
