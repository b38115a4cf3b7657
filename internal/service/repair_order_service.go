package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
	"dorm-repair/internal/repository"
)

// ── 报修工单模块业务错误 ──

var (
	ErrRepairOrderNotFound = errors.New("工单不存在")
	ErrInvalidStatus       = errors.New("无效的工单状态")
	ErrInvalidPriority     = errors.New("无效的优先级")
	ErrInvalidFaultType    = errors.New("无效的故障类型")
	ErrInvalidRating       = errors.New("评分必须在1到5之间")
	ErrWorkerNotFound      = errors.New("维修人员不存在")
	ErrWorkerNotStaff      = errors.New("维修人员必须是工作人员账号")
	ErrInvalidDate         = errors.New("日期格式应为 YYYY-MM-DD")
	ErrRepairFieldsBlank   = errors.New("标题和描述不能为空")
)

const (
	DefaultRepairOrderPageSize = 10
	// orderNumberAttempts 工单号冲突时的最大生成次数
	orderNumberAttempts = 3
	dateLayout          = "2006-01-02"
)

// RepairOrderService 报修工单业务接口
type RepairOrderService interface {
	List(ctx context.Context, req *dto.RepairOrderListRequest) ([]dto.RepairOrderListItem, int64, error)
	Create(ctx context.Context, req *dto.CreateRepairOrderRequest) (*dto.RepairOrderBrief, error)
	GetByID(ctx context.Context, id uint) (*dto.RepairOrderDetailResponse, error)
	// Update 仅覆盖请求中出现的字段，工单号不可修改
	Update(ctx context.Context, id uint, req *dto.UpdateRepairOrderRequest) (*dto.RepairOrderDetailResponse, error)
	Delete(ctx context.Context, id uint) error
	AssignWorker(ctx context.Context, id, workerID uint) (*dto.RepairOrderDetailResponse, error)
	AddNotes(ctx context.Context, id uint, notes string) (*dto.RepairOrderDetailResponse, error)
	Rate(ctx context.Context, id uint, req *dto.RateRequest) (*dto.RepairOrderDetailResponse, error)
	BatchUpdateStatus(ctx context.Context, req *dto.BatchUpdateStatusRequest) (*dto.BatchUpdateResponse, error)
	Statistics(ctx context.Context, req *dto.RepairStatisticsRequest) (*dto.RepairStatisticsResponse, error)
}

type repairOrderService struct {
	repo    *repository.Repository
	numbers *orderNumberGenerator
	now     func() time.Time
	logger  *zap.Logger
}

// NewRepairOrderService 创建 RepairOrderService 实例
func NewRepairOrderService(repo *repository.Repository, logger *zap.Logger) RepairOrderService {
	return &repairOrderService{
		repo:    repo,
		numbers: newOrderNumberGenerator(),
		now:     time.Now,
		logger:  logger,
	}
}

// ────────────────────── List ──────────────────────

func (s *repairOrderService) List(ctx context.Context, req *dto.RepairOrderListRequest) ([]dto.RepairOrderListItem, int64, error) {
	filter, err := buildRepairOrderFilter(req)
	if err != nil {
		return nil, 0, err
	}
	filter.Offset = req.GetOffset(DefaultRepairOrderPageSize)
	filter.Limit = req.GetPageSize(DefaultRepairOrderPageSize)

	orders, total, err := s.repo.RepairOrder.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询工单列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.RepairOrderListItem, 0, len(orders))
	for i := range orders {
		result = append(result, toRepairOrderListItem(&orders[i]))
	}
	return result, total, nil
}

// buildRepairOrderFilter 校验枚举筛选值，列表与导出共用
func buildRepairOrderFilter(req *dto.RepairOrderListRequest) (repository.RepairOrderFilter, error) {
	f := repository.RepairOrderFilter{
		Search:      strings.TrimSpace(req.Search),
		Status:      req.Status,
		Priority:    req.Priority,
		FaultType:   req.FaultType,
		DormitoryID: req.DormitoryID,
		RequesterID: req.RequesterID,
	}
	if f.Status != "" && !model.IsValidChoice(model.StatusChoices, f.Status) {
		return f, ErrInvalidStatus
	}
	if f.Priority != "" && !model.IsValidChoice(model.PriorityChoices, f.Priority) {
		return f, ErrInvalidPriority
	}
	if f.FaultType != "" && !model.IsValidChoice(model.FaultTypeChoices, f.FaultType) {
		return f, ErrInvalidFaultType
	}
	return f, nil
}

// ────────────────────── Create ──────────────────────

func (s *repairOrderService) Create(ctx context.Context, req *dto.CreateRepairOrderRequest) (*dto.RepairOrderBrief, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, ErrRepairFieldsBlank
	}

	faultType := req.FaultType
	if faultType == "" {
		faultType = model.FaultOther
	}
	if !model.IsValidChoice(model.FaultTypeChoices, faultType) {
		return nil, ErrInvalidFaultType
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.IsValidChoice(model.PriorityChoices, priority) {
		return nil, ErrInvalidPriority
	}

	// 1. 报修人与宿舍必须存在
	requesterID := req.RequesterID()
	if requesterID == 0 {
		return nil, ErrUserNotFound
	}
	if _, err := s.repo.User.GetByID(ctx, requesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询报修人失败", zap.Uint("user_id", requesterID), zap.Error(err))
		return nil, err
	}
	if req.DormitoryID == 0 {
		return nil, ErrDormitoryNotFound
	}
	if _, err := s.repo.Dormitory.GetByID(ctx, req.DormitoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDormitoryNotFound
		}
		s.logger.Error("查询宿舍失败", zap.Uint("dormitory_id", req.DormitoryID), zap.Error(err))
		return nil, err
	}

	order := &model.RepairOrder{
		RequesterID: requesterID,
		DormitoryID: req.DormitoryID,
		FaultType:   faultType,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      model.StatusPending,
	}

	// 2. 生成工单号并写入，唯一索引冲突时重新生成
	var err error
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.OrderNumber = s.numbers.Next()
		err = s.repo.RepairOrder.Create(ctx, order)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.logger.Warn("工单号冲突，重新生成",
			zap.String("order_number", order.OrderNumber), zap.Int("attempt", attempt))
	}
	if err != nil {
		s.logger.Error("创建工单失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("工单已创建",
		zap.Uint("id", order.ID), zap.String("order_number", order.OrderNumber))
	return toRepairOrderBrief(order), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *repairOrderService) GetByID(ctx context.Context, id uint) (*dto.RepairOrderDetailResponse, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRepairOrderDetail(order), nil
}

// ────────────────────── Update ──────────────────────

func (s *repairOrderService) Update(ctx context.Context, id uint, req *dto.UpdateRepairOrderRequest) (*dto.RepairOrderDetailResponse, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := trimPtr(req.Title); v != nil {
		if *v == "" {
			return nil, ErrRepairFieldsBlank
		}
		order.Title = *v
	}
	if v := trimPtr(req.Description); v != nil {
		if *v == "" {
			return nil, ErrRepairFieldsBlank
		}
		order.Description = *v
	}
	if req.Priority != nil {
		if !model.IsValidChoice(model.PriorityChoices, *req.Priority) {
			return nil, ErrInvalidPriority
		}
		order.Priority = *req.Priority
	}
	if req.FaultType != nil {
		if !model.IsValidChoice(model.FaultTypeChoices, *req.FaultType) {
			return nil, ErrInvalidFaultType
		}
		order.FaultType = *req.FaultType
	}
	if req.RepairNotes != nil {
		order.RepairNotes = *req.RepairNotes
	}
	if req.Status != nil {
		if !model.IsValidChoice(model.StatusChoices, *req.Status) {
			return nil, ErrInvalidStatus
		}
		s.applyStatus(order, *req.Status)
	}

	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return toRepairOrderDetail(order), nil
}

// applyStatus 进入 completed 时记录完成时间，离开时清空
func (s *repairOrderService) applyStatus(order *model.RepairOrder, status string) {
	order.Status = status
	if status == model.StatusCompleted {
		if order.CompletedAt == nil {
			now := s.now()
			order.CompletedAt = &now
		}
		return
	}
	order.CompletedAt = nil
}

// ────────────────────── Delete ──────────────────────

func (s *repairOrderService) Delete(ctx context.Context, id uint) error {
	if _, err := s.getOrder(ctx, id); err != nil {
		return err
	}
	if err := s.repo.RepairOrder.Delete(ctx, id); err != nil {
		s.logger.Error("删除工单失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("工单已删除", zap.Uint("id", id))
	return nil
}

// ────────────────────── AssignWorker ──────────────────────

func (s *repairOrderService) AssignWorker(ctx context.Context, id, workerID uint) (*dto.RepairOrderDetailResponse, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	worker, err := s.repo.User.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		s.logger.Error("查询维修人员失败", zap.Uint("worker_id", workerID), zap.Error(err))
		return nil, err
	}
	if !worker.IsStaff || !worker.IsActive {
		return nil, ErrWorkerNotStaff
	}

	order.RepairWorkerID = &worker.ID
	order.RepairWorker = worker
	if order.Status == model.StatusPending {
		s.applyStatus(order, model.StatusProcessing)
	}

	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return toRepairOrderDetail(order), nil
}

// ────────────────────── AddNotes ──────────────────────

func (s *repairOrderService) AddNotes(ctx context.Context, id uint, notes string) (*dto.RepairOrderDetailResponse, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.RepairNotes = notes
	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return toRepairOrderDetail(order), nil
}

// ────────────────────── Rate ──────────────────────

func (s *repairOrderService) Rate(ctx context.Context, id uint, req *dto.RateRequest) (*dto.RepairOrderDetailResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	rating := req.Rating
	order.Rating = &rating
	order.Comment = strings.TrimSpace(req.Comment)
	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return toRepairOrderDetail(order), nil
}

// ────────────────────── BatchUpdateStatus ──────────────────────

func (s *repairOrderService) BatchUpdateStatus(ctx context.Context, req *dto.BatchUpdateStatusRequest) (*dto.BatchUpdateResponse, error) {
	if !model.IsValidChoice(model.StatusChoices, req.Status) {
		return nil, ErrInvalidStatus
	}

	var completedAt *time.Time
	if req.Status == model.StatusCompleted {
		now := s.now()
		completedAt = &now
	}

	n, err := s.repo.RepairOrder.UpdateStatusBatch(ctx, req.IDs, req.Status, completedAt)
	if err != nil {
		s.logger.Error("批量更新工单状态失败", zap.Int("count", len(req.IDs)), zap.Error(err))
		return nil, err
	}
	s.logger.Info("批量更新工单状态", zap.String("status", req.Status), zap.Int64("updated", n))
	return &dto.BatchUpdateResponse{Updated: n}, nil
}

// ────────────────────── Statistics ──────────────────────

func (s *repairOrderService) Statistics(ctx context.Context, req *dto.RepairStatisticsRequest) (*dto.RepairStatisticsResponse, error) {
	var tr repository.TimeRange
	if req.StartDate != "" {
		t, err := time.ParseInLocation(dateLayout, req.StartDate, time.Local)
		if err != nil {
			return nil, ErrInvalidDate
		}
		tr.From = t
	}
	if req.EndDate != "" {
		t, err := time.ParseInLocation(dateLayout, req.EndDate, time.Local)
		if err != nil {
			return nil, ErrInvalidDate
		}
		// 结束日期当天包含在内
		tr.To = t.AddDate(0, 0, 1)
	}

	resp := &dto.RepairStatisticsResponse{}
	groups := []struct {
		column string
		target *map[string]int64
	}{
		{"status", &resp.ByStatus},
		{"priority", &resp.ByPriority},
		{"fault_type", &resp.ByFaultType},
	}
	for _, g := range groups {
		counts, err := s.repo.RepairOrder.GroupCount(ctx, g.column, tr)
		if err != nil {
			s.logger.Error("工单分组统计失败", zap.String("column", g.column), zap.Error(err))
			return nil, err
		}
		*g.target = counts
	}
	for _, n := range resp.ByStatus {
		resp.Total += n
	}

	avg, err := s.repo.RepairOrder.AverageRating(ctx, tr)
	if err != nil {
		s.logger.Error("统计平均评分失败", zap.Error(err))
		return nil, err
	}
	resp.AverageRating = avg
	return resp, nil
}

// ── 辅助 ──

func (s *repairOrderService) getOrder(ctx context.Context, id uint) (*model.RepairOrder, error) {
	order, err := s.repo.RepairOrder.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRepairOrderNotFound
		}
		s.logger.Error("查询工单失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (s *repairOrderService) save(ctx context.Context, order *model.RepairOrder) error {
	if err := s.repo.RepairOrder.Update(ctx, order); err != nil {
		s.logger.Error("更新工单失败", zap.Uint("id", order.ID), zap.Error(err))
		return err
	}
	return nil
}

func toRepairOrderBrief(o *model.RepairOrder) *dto.RepairOrderBrief {
	return &dto.RepairOrderBrief{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Title:       o.Title,
		Status:      o.Status,
	}
}

func toRepairOrderListItem(o *model.RepairOrder) dto.RepairOrderListItem {
	item := dto.RepairOrderListItem{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Title:          o.Title,
		Description:    o.Description,
		Status:         o.Status,
		Priority:       o.Priority,
		FaultType:      o.FaultType,
		StudentID:      o.RequesterID,
		DormitoryID:    o.DormitoryID,
		RepairWorkerID: o.RepairWorkerID,
		Rating:         o.Rating,
		CreatedAt:      dto.FormatTime(o.CreatedAt),
		UpdatedAt:      dto.FormatTime(o.UpdatedAt),
		CompletedAt:    dto.FormatTimePtr(o.CompletedAt),
	}
	if o.Requester != nil {
		item.StudentName = o.Requester.DisplayName()
	}
	if o.Dormitory != nil {
		item.DormitoryName = o.Dormitory.DisplayName()
	}
	return item
}

func toRepairOrderDetail(o *model.RepairOrder) *dto.RepairOrderDetailResponse {
	resp := &dto.RepairOrderDetailResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Title:       o.Title,
		Description: o.Description,
		Status:      o.Status,
		Priority:    o.Priority,
		FaultType:   o.FaultType,
		Student:     toUserBrief(o.Requester),
		Dormitory:   toDormitoryBrief(o.Dormitory),
		RepairNotes: o.RepairNotes,
		Rating:      o.Rating,
		Comment:     o.Comment,
		CreatedAt:   dto.FormatTime(o.CreatedAt),
		UpdatedAt:   dto.FormatTime(o.UpdatedAt),
		CompletedAt: dto.FormatTimePtr(o.CompletedAt),
	}
	if o.RepairWorker != nil {
		resp.RepairWorker = &dto.UserBrief{
			ID:       o.RepairWorker.ID,
			Name:     o.RepairWorker.DisplayName(),
			Username: o.RepairWorker.Username,
		}
	}
	return resp
}
