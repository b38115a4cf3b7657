package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/service"
	"dorm-repair/pkg/response"
)

// RepairOrderHandler 报修工单模块 HTTP 处理器
type RepairOrderHandler struct {
	orderSvc service.RepairOrderService
}

// NewRepairOrderHandler 创建 RepairOrderHandler
func NewRepairOrderHandler(orderSvc service.RepairOrderService) *RepairOrderHandler {
	return &RepairOrderHandler{orderSvc: orderSvc}
}

// ListOrders 工单列表
// GET /api/repair-orders
func (h *RepairOrderHandler) ListOrders(c *gin.Context) {
	var req dto.RepairOrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	orders, total, err := h.orderSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OKPage(c, orders, total, req.GetPage(), req.GetPageSize(service.DefaultRepairOrderPageSize))
}

// GetOrder 工单详情
// GET /api/repair-orders/:id
func (h *RepairOrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orderSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// CreateOrder 提交报修
// POST /api/repair-orders
func (h *RepairOrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateRepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.orderSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.Created(c, "报修提交成功", order)
}

// UpdateOrder 更新工单（PUT 与 PATCH 均为部分更新）
// PUT /api/repair-orders/:id
func (h *RepairOrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateRepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.orderSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// DeleteOrder 删除工单
// DELETE /api/repair-orders/:id
func (h *RepairOrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.orderSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OKMessage(c, "工单已删除", nil)
}

// AssignWorker 分配维修人员
// POST /api/repair-orders/:id/assign-worker
func (h *RepairOrderHandler) AssignWorker(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.AssignWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.orderSvc.AssignWorker(c.Request.Context(), id, req.WorkerID)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OKMessage(c, "维修人员分配成功", order)
}

// AddNotes 填写维修说明
// POST /api/repair-orders/:id/add-notes
func (h *RepairOrderHandler) AddNotes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.AddNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.orderSvc.AddNotes(c.Request.Context(), id, req.RepairNotes)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// Rate 评价工单
// POST /api/repair-orders/:id/rate
func (h *RepairOrderHandler) Rate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.orderSvc.Rate(c.Request.Context(), id, &req)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OKMessage(c, "评价成功", order)
}

// BatchUpdate 批量更新工单状态
// POST /api/repair-orders/batch-update
func (h *RepairOrderHandler) BatchUpdate(c *gin.Context) {
	var req dto.BatchUpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.orderSvc.BatchUpdateStatus(c.Request.Context(), &req)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OK(c, result)
}

// Statistics 工单统计
// GET /api/repair-orders/statistics?start_date=&end_date=
func (h *RepairOrderHandler) Statistics(c *gin.Context) {
	var req dto.RepairStatisticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	stats, err := h.orderSvc.Statistics(c.Request.Context(), &req)
	if err != nil {
		h.handleRepairOrderError(c, err)
		return
	}

	response.OK(c, stats)
}

// handleRepairOrderError 统一处理工单模块业务错误
func (h *RepairOrderHandler) handleRepairOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRepairOrderNotFound):
		response.NotFound(c, 15001, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 15002, err.Error())
	case errors.Is(err, service.ErrDormitoryNotFound):
		response.NotFound(c, 15003, err.Error())
	case errors.Is(err, service.ErrWorkerNotFound):
		response.NotFound(c, 15004, err.Error())
	case errors.Is(err, service.ErrWorkerNotStaff):
		response.BadRequest(c, 15005, err.Error())
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrInvalidFaultType):
		response.BadRequest(c, 15006, err.Error())
	case errors.Is(err, service.ErrInvalidRating):
		response.BadRequest(c, 15007, err.Error())
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 15008, err.Error())
	case errors.Is(err, service.ErrRepairFieldsBlank):
		response.BadRequest(c, 15009, err.Error())
	default:
		response.InternalError(c)
	}
}
