package persistence

import (
	userEntity "ChatLens/internal/modules/user/domain/entity"
	userRepository "ChatLens/internal/modules/user/domain/repository"

	"gorm.io/gorm"
)

type userInfoRepositoryImpl struct {
	db *gorm.DB
}

func NewUserInfoRepository(db *gorm.DB) userRepository.UserInfoRepository {
	return &userInfoRepositoryImpl{db: db}
}

func (r *userInfoRepositoryImpl) GetByUsername(username string) (*userEntity.UserInfo, error) {
	var user userEntity.UserInfo
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userInfoRepositoryImpl) GetByUUID(uuid string) (*userEntity.UserInfo, error) {
	var user userEntity.UserInfo
	if err := r.db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userInfoRepositoryImpl) Create(user *userEntity.UserInfo) error {
	return r.db.Create(user).Error
}
