package service

import (
	"errors"
	"strings"
	"time"

	"ChatLens/internal/modules/user/application/dto/request"
	"ChatLens/internal/modules/user/application/dto/respond"
	"ChatLens/internal/modules/user/domain/entity"
	"ChatLens/internal/modules/user/domain/repository"
	"ChatLens/pkg/util"
	"ChatLens/pkg/util/myjwt"
	"ChatLens/pkg/xerr"
	"ChatLens/pkg/zlog"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserInfoService interface {
	Register(req request.RegisterRequest) (*respond.RegisterRespond, error)
	Login(req request.LoginRequest) (*respond.LoginRespond, error)
}

type userInfoServiceImpl struct {
	repo repository.UserInfoRepository
}

func NewUserInfoService(repo repository.UserInfoRepository) UserInfoService {
	return &userInfoServiceImpl{repo: repo}
}

func (s *userInfoServiceImpl) Register(req request.RegisterRequest) (*respond.RegisterRespond, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	_, err := s.repo.GetByUsername(username)
	if err == nil {
		return nil, xerr.New(xerr.BadRequest, "用户已存在")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zlog.Error("查询用户失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zlog.Error("密码加密失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		nickname = username
	}

	user := entity.UserInfo{
		Uuid:      util.GenerateUserID(),
		Username:  username,
		Password:  string(hashed),
		Nickname:  nickname,
		Email:     strings.TrimSpace(req.Email),
		IsAdmin:   0,
		Status:    0,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(&user); err != nil {
		zlog.Error("创建用户失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	return &respond.RegisterRespond{
		Uuid:     user.Uuid,
		Username: user.Username,
		Nickname: user.Nickname,
		Email:    user.Email,
	}, nil
}

func (s *userInfoServiceImpl) Login(req request.LoginRequest) (*respond.LoginRespond, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	user, err := s.repo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.New(xerr.Unauthorized, "用户名或密码错误")
		}
		zlog.Error("查询用户失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if user.Status != 0 {
		return nil, xerr.New(xerr.Forbidden, "账号已停用")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, xerr.New(xerr.Unauthorized, "用户名或密码错误")
	}

	token, err := myjwt.GenerateToken(user.Uuid, user.Username, user.Role())
	if err != nil {
		zlog.Error("签发令牌失败", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	return &respond.LoginRespond{
		Uuid:     user.Uuid,
		Username: user.Username,
		Nickname: user.Nickname,
		Email:    user.Email,
		Role:     user.Role(),
		Token:    token,
	}, nil
}
