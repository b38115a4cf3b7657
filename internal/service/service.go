package service

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"dorm-repair/config"
	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
	"dorm-repair/internal/repository"
	"dorm-repair/pkg/session"
)

// ── 跨模块共用的业务错误 ──

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrDormitoryNotFound = errors.New("宿舍不存在")
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Dormitory   DormitoryService
	Student     StudentService
	RepairOrder RepairOrderService
	Export      ExportService
	System      SystemService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	store session.Store,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:        NewAuthService(cfg, repo, store, logger),
		User:        NewUserService(repo, logger),
		Dormitory:   NewDormitoryService(repo, logger),
		Student:     NewStudentService(repo, logger),
		RepairOrder: NewRepairOrderService(repo, logger),
		Export:      NewExportService(repo, logger),
		System:      NewSystemService(cfg, repo, logger),
	}
}

// ── 响应转换辅助 ──

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{
		ID:       u.ID,
		Name:     u.DisplayName(),
		Username: u.Username,
		Email:    u.Email,
	}
}

func toDormitoryBrief(d *model.Dormitory) *dto.DormitoryBrief {
	if d == nil {
		return nil
	}
	return &dto.DormitoryBrief{
		ID:           d.ID,
		BuildingName: d.BuildingName,
		RoomNumber:   d.RoomNumber,
		Floor:        d.Floor,
	}
}

func toStudentBrief(s *model.Student) dto.StudentBrief {
	return dto.StudentBrief{
		ID:        s.ID,
		StudentID: s.StudentID,
		Name:      s.Name,
		Phone:     s.Phone,
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

// trimPtr 去除可选字符串字段首尾空白
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
