package dto

// ── 学生模块 DTO ──

// CreateStudentRequest 创建学生请求
type CreateStudentRequest struct {
	StudentID   string `json:"student_id"   binding:"required,max=20"`
	Name        string `json:"name"         binding:"required,max=50"`
	Phone       string `json:"phone"`
	DormitoryID *uint  `json:"dormitory_id"`
	UserID      *uint  `json:"user_id"`
}

// UpdateStudentRequest 更新学生请求
// dormitory_id 为 0 表示取消分配；指向不存在的宿舍时忽略
type UpdateStudentRequest struct {
	StudentID   *string `json:"student_id"   binding:"omitempty,min=1,max=20"`
	Name        *string `json:"name"         binding:"omitempty,min=1,max=50"`
	Phone       *string `json:"phone"`
	DormitoryID *uint   `json:"dormitory_id"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	Search       string `form:"search"        binding:"omitempty,max=50"`
	Building     string `form:"building"      binding:"omitempty,max=50"`
	HasDormitory *bool  `form:"has_dormitory"`
}

// AssignDormitoryRequest 分配宿舍请求
type AssignDormitoryRequest struct {
	DormitoryID uint `json:"dormitory_id" binding:"required"`
}

// RepairSummary 学生报修汇总
type RepairSummary struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
}

// StudentResponse 学生列表行
type StudentResponse struct {
	StudentBrief
	UserID       *uint           `json:"user_id"`
	Dormitory    *DormitoryBrief `json:"dormitory"`
	RepairCount  int64           `json:"repair_count"`
	PendingCount int64           `json:"pending_count"`
}

// StudentDetailResponse 学生详情
type StudentDetailResponse struct {
	StudentBrief
	UserID        *uint           `json:"user_id"`
	Dormitory     *DormitoryBrief `json:"dormitory"`
	RepairSummary RepairSummary   `json:"repair_summary"`
	Roommates     []StudentBrief  `json:"roommates"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// StudentStatisticsResponse 学生统计
type StudentStatisticsResponse struct {
	Total            int64 `json:"total"`
	WithDormitory    int64 `json:"with_dormitory"`
	WithoutDormitory int64 `json:"without_dormitory"`
}

// ImportStudentsResponse 批量导入结果
type ImportStudentsResponse struct {
	Total   int                `json:"total"`
	Created int                `json:"created"`
	Skipped []ImportSkippedRow `json:"skipped"`
}

// ImportSkippedRow 未导入的行（行号从 1 开始，含表头）
type ImportSkippedRow struct {
	Row       int    `json:"row"`
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}
