package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
	"dorm-repair/internal/repository"
)

// ── 宿舍模块业务错误 ──

var (
	ErrDormitoryExists        = errors.New("宿舍已存在")
	ErrDormitoryHasOpenOrders = errors.New("宿舍有未完成的报修工单，无法删除")
	ErrDormitoryOccupied      = errors.New("宿舍仍有学生入住，无法删除")
	ErrDormitoryFieldsBlank   = errors.New("楼栋名称和房间号不能为空")
)

const (
	DefaultDormitoryPageSize = 12
	recentRepairLimit        = 10
)

// DormitoryService 宿舍业务接口
type DormitoryService interface {
	List(ctx context.Context, req *dto.DormitoryListRequest) ([]dto.DormitoryListItem, int64, error)
	Create(ctx context.Context, req *dto.CreateDormitoryRequest) (*dto.DormitoryResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.DormitoryDetailResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdateDormitoryRequest) (*dto.DormitoryResponse, error)
	// Delete 存在未完结工单或仍有学生入住时拒绝删除
	Delete(ctx context.Context, id uint) error
	Statistics(ctx context.Context) (*dto.DormitoryStatisticsResponse, error)
}

type dormitoryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDormitoryService 创建 DormitoryService 实例
func NewDormitoryService(repo *repository.Repository, logger *zap.Logger) DormitoryService {
	return &dormitoryService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *dormitoryService) List(ctx context.Context, req *dto.DormitoryListRequest) ([]dto.DormitoryListItem, int64, error) {
	dorms, total, err := s.repo.Dormitory.List(ctx, repository.DormitoryFilter{
		Search:       strings.TrimSpace(req.Search),
		BuildingName: strings.TrimSpace(req.BuildingName),
		Floor:        req.Floor,
		Offset:       req.GetOffset(DefaultDormitoryPageSize),
		Limit:        req.GetPageSize(DefaultDormitoryPageSize),
	})
	if err != nil {
		s.logger.Error("查询宿舍列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.DormitoryListItem, 0, len(dorms))
	for i := range dorms {
		d := &dorms[i]
		repairCount, err := s.repo.RepairOrder.CountByDormitory(ctx, d.ID)
		if err != nil {
			s.logger.Error("统计宿舍报修数失败", zap.Uint("dormitory_id", d.ID), zap.Error(err))
			return nil, 0, err
		}
		studentCount, err := s.repo.Student.CountByDormitory(ctx, d.ID)
		if err != nil {
			s.logger.Error("统计宿舍人数失败", zap.Uint("dormitory_id", d.ID), zap.Error(err))
			return nil, 0, err
		}
		result = append(result, dto.DormitoryListItem{
			DormitoryResponse: toDormitoryResponse(d),
			RepairCount:       repairCount,
			StudentCount:      studentCount,
		})
	}
	return result, total, nil
}

// ────────────────────── Create ──────────────────────

func (s *dormitoryService) Create(ctx context.Context, req *dto.CreateDormitoryRequest) (*dto.DormitoryResponse, error) {
	building := strings.TrimSpace(req.BuildingName)
	room := strings.TrimSpace(req.RoomNumber)
	if building == "" || room == "" {
		return nil, ErrDormitoryFieldsBlank
	}

	exists, err := s.repo.Dormitory.ExistsByBuildingRoom(ctx, building, room, 0)
	if err != nil {
		s.logger.Error("检查宿舍唯一性失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrDormitoryExists
	}

	dorm := &model.Dormitory{
		BuildingName: building,
		RoomNumber:   room,
		Floor:        *req.Floor,
	}
	if err := s.repo.Dormitory.Create(ctx, dorm); err != nil {
		// 并发创建同一宿舍时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDormitoryExists
		}
		s.logger.Error("创建宿舍失败", zap.Error(err))
		return nil, err
	}

	resp := toDormitoryResponse(dorm)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *dormitoryService) GetByID(ctx context.Context, id uint) (*dto.DormitoryDetailResponse, error) {
	dorm, err := s.getDormitory(ctx, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.RepairOrder.RecentByDormitory(ctx, id, recentRepairLimit)
	if err != nil {
		s.logger.Error("查询宿舍近期报修失败", zap.Uint("dormitory_id", id), zap.Error(err))
		return nil, err
	}
	repairCount, err := s.repo.RepairOrder.CountByDormitory(ctx, id)
	if err != nil {
		s.logger.Error("统计宿舍报修数失败", zap.Uint("dormitory_id", id), zap.Error(err))
		return nil, err
	}
	students, err := s.repo.Student.ListByDormitory(ctx, id)
	if err != nil {
		s.logger.Error("查询宿舍学生失败", zap.Uint("dormitory_id", id), zap.Error(err))
		return nil, err
	}

	resp := &dto.DormitoryDetailResponse{
		DormitoryResponse: toDormitoryResponse(dorm),
		RecentRepairs:     make([]dto.RecentRepairItem, 0, len(recent)),
		RepairCount:       repairCount,
		Students:          make([]dto.StudentBrief, 0, len(students)),
		CreatedAt:         dto.FormatTime(dorm.CreatedAt),
		UpdatedAt:         dto.FormatTime(dorm.UpdatedAt),
	}
	for i := range recent {
		o := &recent[i]
		item := dto.RecentRepairItem{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Title:       o.Title,
			Status:      o.Status,
			CreatedAt:   dto.FormatTime(o.CreatedAt),
		}
		if o.Requester != nil {
			item.StudentName = o.Requester.DisplayName()
		}
		resp.RecentRepairs = append(resp.RecentRepairs, item)
	}
	for i := range students {
		resp.Students = append(resp.Students, toStudentBrief(&students[i]))
	}
	return resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *dormitoryService) Update(ctx context.Context, id uint, req *dto.UpdateDormitoryRequest) (*dto.DormitoryResponse, error) {
	dorm, err := s.getDormitory(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := trimPtr(req.BuildingName); v != nil {
		dorm.BuildingName = *v
	}
	if v := trimPtr(req.RoomNumber); v != nil {
		dorm.RoomNumber = *v
	}
	if req.Floor != nil {
		dorm.Floor = *req.Floor
	}
	if dorm.BuildingName == "" || dorm.RoomNumber == "" {
		return nil, ErrDormitoryFieldsBlank
	}

	if req.BuildingName != nil || req.RoomNumber != nil {
		exists, err := s.repo.Dormitory.ExistsByBuildingRoom(ctx, dorm.BuildingName, dorm.RoomNumber, id)
		if err != nil {
			s.logger.Error("检查宿舍唯一性失败", zap.Error(err))
			return nil, err
		}
		if exists {
			return nil, ErrDormitoryExists
		}
	}

	if err := s.repo.Dormitory.Update(ctx, dorm); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDormitoryExists
		}
		s.logger.Error("更新宿舍失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	resp := toDormitoryResponse(dorm)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *dormitoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.getDormitory(ctx, id); err != nil {
		return err
	}

	hasOpen, err := s.repo.RepairOrder.ExistsOpenByDormitory(ctx, id)
	if err != nil {
		s.logger.Error("检查宿舍未完成工单失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	if hasOpen {
		return ErrDormitoryHasOpenOrders
	}

	occupants, err := s.repo.Student.CountByDormitory(ctx, id)
	if err != nil {
		s.logger.Error("统计宿舍人数失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	if occupants > 0 {
		return ErrDormitoryOccupied
	}

	if err := s.repo.Dormitory.Delete(ctx, id); err != nil {
		s.logger.Error("删除宿舍失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("宿舍已删除", zap.Uint("id", id))
	return nil
}

// ────────────────────── Statistics ──────────────────────

func (s *dormitoryService) Statistics(ctx context.Context) (*dto.DormitoryStatisticsResponse, error) {
	total, err := s.repo.Dormitory.Count(ctx)
	if err != nil {
		s.logger.Error("统计宿舍总数失败", zap.Error(err))
		return nil, err
	}
	occupied, err := s.repo.Student.CountOccupiedDormitories(ctx)
	if err != nil {
		s.logger.Error("统计已入住宿舍失败", zap.Error(err))
		return nil, err
	}
	buildings, err := s.repo.Dormitory.CountByBuilding(ctx)
	if err != nil {
		s.logger.Error("按楼栋统计宿舍失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.DormitoryStatisticsResponse{
		Total:     total,
		Occupied:  occupied,
		Empty:     total - occupied,
		Buildings: make([]dto.BuildingCount, 0, len(buildings)),
	}
	for _, b := range buildings {
		resp.Buildings = append(resp.Buildings, dto.BuildingCount{
			BuildingName: b.BuildingName,
			Rooms:        b.Rooms,
		})
	}
	return resp, nil
}

// ── 辅助 ──

func (s *dormitoryService) getDormitory(ctx context.Context, id uint) (*model.Dormitory, error) {
	dorm, err := s.repo.Dormitory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDormitoryNotFound
		}
		s.logger.Error("查询宿舍失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return dorm, nil
}

func toDormitoryResponse(d *model.Dormitory) dto.DormitoryResponse {
	return dto.DormitoryResponse{
		ID:           d.ID,
		BuildingName: d.BuildingName,
		RoomNumber:   d.RoomNumber,
		Floor:        d.Floor,
	}
}
