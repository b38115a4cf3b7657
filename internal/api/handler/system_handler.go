package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dorm-repair/internal/service"
	"dorm-repair/pkg/response"
)

// SystemHandler 系统模块 HTTP 处理器
type SystemHandler struct {
	systemSvc service.SystemService
}

// NewSystemHandler 创建 SystemHandler
func NewSystemHandler(systemSvc service.SystemService) *SystemHandler {
	return &SystemHandler{systemSvc: systemSvc}
}

// Health 健康检查
// GET /health, GET /api/health
func (h *SystemHandler) Health(c *gin.Context) {
	response.OK(c, h.systemSvc.Health())
}

// Info 系统信息与概况统计
// GET /api/system/info
func (h *SystemHandler) Info(c *gin.Context) {
	info, err := h.systemSvc.Info(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, info)
}

// Choices 枚举选项
// GET /api/system/choices/:type
func (h *SystemHandler) Choices(c *gin.Context) {
	choices, err := h.systemSvc.Choices(c.Param("type"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownChoiceType) {
			response.NotFound(c, 17001, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, choices)
}
