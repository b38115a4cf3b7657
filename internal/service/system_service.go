package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"dorm-repair/config"
	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
	"dorm-repair/internal/repository"
)

// 应用元信息
const (
	AppName    = "宿舍报修管理系统"
	AppVersion = "1.0.0"
	AppBackend = "Go + Gin"
)

// ErrUnknownChoiceType 选项类型不存在
var ErrUnknownChoiceType = errors.New("未知的选项类型")

// choiceSets 可查询的枚举集合
var choiceSets = map[string][]model.Choice{
	"status":     model.StatusChoices,
	"priority":   model.PriorityChoices,
	"fault_type": model.FaultTypeChoices,
}

// SystemService 系统信息业务接口
type SystemService interface {
	Health() *dto.HealthResponse
	Info(ctx context.Context) (*dto.SystemInfoResponse, error)
	Choices(kind string) ([]model.Choice, error)
}

type systemService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemService 创建 SystemService 实例
func NewSystemService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) SystemService {
	return &systemService{cfg: cfg, repo: repo, logger: logger}
}

func (s *systemService) Health() *dto.HealthResponse {
	return &dto.HealthResponse{
		Server:    "running",
		Version:   AppVersion,
		App:       AppName,
		Timestamp: dto.FormatTime(time.Now()),
	}
}

func (s *systemService) Info(ctx context.Context) (*dto.SystemInfoResponse, error) {
	var stats dto.SystemStatistics
	counters := []struct {
		name   string
		target *int64
		fn     func(context.Context) (int64, error)
	}{
		{"total_orders", &stats.TotalOrders, s.repo.RepairOrder.Count},
		{"pending_orders", &stats.PendingOrders, func(ctx context.Context) (int64, error) {
			return s.repo.RepairOrder.CountByStatus(ctx, model.StatusPending)
		}},
		{"completed_orders", &stats.CompletedOrders, func(ctx context.Context) (int64, error) {
			return s.repo.RepairOrder.CountByStatus(ctx, model.StatusCompleted)
		}},
		{"total_dormitories", &stats.TotalDormitories, s.repo.Dormitory.Count},
		{"total_users", &stats.TotalUsers, s.repo.User.Count},
		{"total_students", &stats.TotalStudents, s.repo.Student.Count},
	}
	for _, c := range counters {
		n, err := c.fn(ctx)
		if err != nil {
			s.logger.Error("系统统计失败", zap.String("item", c.name), zap.Error(err))
			return nil, err
		}
		*c.target = n
	}

	return &dto.SystemInfoResponse{
		Statistics: stats,
		System: dto.SystemMeta{
			Name:    AppName,
			Version: AppVersion,
			Backend: AppBackend,
		},
		Site: dto.SiteMeta{
			Header: s.cfg.Site.Header,
			Title:  s.cfg.Site.Title,
		},
	}, nil
}

func (s *systemService) Choices(kind string) ([]model.Choice, error) {
	choices, ok := choiceSets[kind]
	if !ok {
		return nil, ErrUnknownChoiceType
	}
	return choices, nil
}
