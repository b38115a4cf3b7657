package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/service"
	"dorm-repair/pkg/response"
)

// DormitoryHandler 宿舍模块 HTTP 处理器
type DormitoryHandler struct {
	dormSvc service.DormitoryService
}

// NewDormitoryHandler 创建 DormitoryHandler
func NewDormitoryHandler(dormSvc service.DormitoryService) *DormitoryHandler {
	return &DormitoryHandler{dormSvc: dormSvc}
}

// ListDormitories 获取宿舍列表
// GET /api/dormitories
func (h *DormitoryHandler) ListDormitories(c *gin.Context) {
	var req dto.DormitoryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	dorms, total, err := h.dormSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, dorms, total, req.GetPage(), req.GetPageSize(service.DefaultDormitoryPageSize))
}

// GetDormitory 获取宿舍详情
// GET /api/dormitories/:id
func (h *DormitoryHandler) GetDormitory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	dorm, err := h.dormSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleDormitoryError(c, err)
		return
	}

	response.OK(c, dorm)
}

// CreateDormitory 创建宿舍
// POST /api/dormitories
func (h *DormitoryHandler) CreateDormitory(c *gin.Context) {
	var req dto.CreateDormitoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	dorm, err := h.dormSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleDormitoryError(c, err)
		return
	}

	response.Created(c, "宿舍创建成功", dorm)
}

// UpdateDormitory 更新宿舍（PUT 与 PATCH 均为部分更新）
// PUT /api/dormitories/:id
func (h *DormitoryHandler) UpdateDormitory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateDormitoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	dorm, err := h.dormSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleDormitoryError(c, err)
		return
	}

	response.OK(c, dorm)
}

// DeleteDormitory 删除宿舍
// DELETE /api/dormitories/:id
func (h *DormitoryHandler) DeleteDormitory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.dormSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleDormitoryError(c, err)
		return
	}

	response.OKMessage(c, "宿舍已删除", nil)
}

// Statistics 宿舍统计
// GET /api/dormitories/statistics
func (h *DormitoryHandler) Statistics(c *gin.Context) {
	stats, err := h.dormSvc.Statistics(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// handleDormitoryError 统一处理宿舍模块业务错误
func (h *DormitoryHandler) handleDormitoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDormitoryNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrDormitoryExists):
		response.BadRequest(c, 14002, err.Error())
	case errors.Is(err, service.ErrDormitoryHasOpenOrders):
		response.BadRequest(c, 14003, err.Error())
	case errors.Is(err, service.ErrDormitoryOccupied):
		response.BadRequest(c, 14004, err.Error())
	case errors.Is(err, service.ErrDormitoryFieldsBlank):
		response.BadRequest(c, 14005, err.Error())
	default:
		response.InternalError(c)
	}
}
