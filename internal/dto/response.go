package dto

import "time"

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量，未传时使用各模块自己的默认值
func (p *PaginationRequest) GetPageSize(def int) int {
	if p.PageSize <= 0 {
		return def
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset(def int) int {
	return (p.GetPage() - 1) * p.GetPageSize(def)
}

// ── 公共片段 ──

// UserBrief 用户简要信息
type UserBrief struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// DormitoryBrief 宿舍简要信息
type DormitoryBrief struct {
	ID           uint   `json:"id"`
	BuildingName string `json:"building_name"`
	RoomNumber   string `json:"room_number"`
	Floor        int    `json:"floor"`
}

// StudentBrief 学生简要信息
type StudentBrief struct {
	ID        uint   `json:"id"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

// FormatTime 统一时间格式（RFC3339）
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// FormatTimePtr 可空时间
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
