package handler

import (
	chatRequest "ChatLens/internal/modules/chat/application/dto/request"
	"ChatLens/internal/modules/chat/application/service"
	userEntity "ChatLens/internal/modules/user/domain/entity"
	"ChatLens/pkg/back"
	"ChatLens/pkg/xerr"
	"ChatLens/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	svc service.ChatService
}

func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func (h *ChatHandler) OpenSession(c *gin.Context) {
	data, err := h.svc.OpenCurrentSession(c.Request.Context(), c.GetString("uuid"))
	back.Result(c, data, err)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req chatRequest.SendMessageRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.SendMessage(c.Request.Context(), c.GetString("uuid"), req)
	back.Result(c, data, err)
}

func (h *ChatHandler) GetMessageList(c *gin.Context) {
	var req chatRequest.GetMessageListRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	isAdmin := c.GetString("role") == userEntity.RoleAdmin
	data, err := h.svc.GetMessageList(c.Request.Context(), c.GetString("uuid"), isAdmin, req)
	back.Result(c, data, err)
}
