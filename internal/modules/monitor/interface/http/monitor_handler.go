package handler

import (
	monitorRequest "ChatLens/internal/modules/monitor/application/dto/request"
	"ChatLens/internal/modules/monitor/application/service"
	"ChatLens/pkg/back"
	"ChatLens/pkg/xerr"
	"ChatLens/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type MonitorHandler struct {
	svc service.MonitorService
}

func NewMonitorHandler(svc service.MonitorService) *MonitorHandler {
	return &MonitorHandler{svc: svc}
}

func (h *MonitorHandler) ListSessions(c *gin.Context) {
	var req monitorRequest.ListSessionsRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.ListSessions(c.Request.Context(), req)
	back.Result(c, data, err)
}

func (h *MonitorHandler) ActiveCount(c *gin.Context) {
	data, err := h.svc.ActiveSessionCount(c.Request.Context())
	back.Result(c, data, err)
}

func (h *MonitorHandler) UpdateNotes(c *gin.Context) {
	var req monitorRequest.UpdateNotesRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	err := h.svc.UpdateNotes(c.Request.Context(), req)
	back.Result(c, nil, err)
}
