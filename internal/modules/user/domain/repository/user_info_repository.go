package repository

import (
	"ChatLens/internal/modules/user/domain/entity"
)

type UserInfoRepository interface {
	GetByUsername(username string) (*entity.UserInfo, error)
	GetByUUID(uuid string) (*entity.UserInfo, error)
	Create(user *entity.UserInfo) error
}
