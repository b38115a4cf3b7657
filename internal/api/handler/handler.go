package handler

import (
	"dorm-repair/config"
	"dorm-repair/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Dormitory   *DormitoryHandler
	Student     *StudentHandler
	RepairOrder *RepairOrderHandler
	Export      *ExportHandler
	System      *SystemHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth, &cfg.Auth),
		User:        NewUserHandler(svc.User),
		Dormitory:   NewDormitoryHandler(svc.Dormitory),
		Student:     NewStudentHandler(svc.Student),
		RepairOrder: NewRepairOrderHandler(svc.RepairOrder),
		Export:      NewExportHandler(svc.Export),
		System:      NewSystemHandler(svc.System),
	}
}
