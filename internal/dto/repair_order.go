package dto

// ── 报修工单模块 DTO ──

// CreateRepairOrderRequest 创建工单请求
// 报修人优先取 user_id，兼容前端传 student_id
type CreateRepairOrderRequest struct {
	UserID      uint   `json:"user_id"`
	StudentID   uint   `json:"student_id"`
	DormitoryID uint   `json:"dormitory_id"`
	Title       string `json:"title"       binding:"required,max=100"`
	Description string `json:"description" binding:"required"`
	FaultType   string `json:"fault_type"`
	Priority    string `json:"priority"`
}

// RequesterID 报修人 ID
func (r *CreateRepairOrderRequest) RequesterID() uint {
	if r.UserID != 0 {
		return r.UserID
	}
	return r.StudentID
}

// UpdateRepairOrderRequest 部分更新工单，仅覆盖出现的字段
type UpdateRepairOrderRequest struct {
	Title       *string `json:"title"        binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	FaultType   *string `json:"fault_type"`
	RepairNotes *string `json:"repair_notes"`
}

// RepairOrderListRequest 工单列表查询参数（导出复用）
type RepairOrderListRequest struct {
	PaginationRequest
	Search      string `form:"search"       binding:"omitempty,max=100"`
	Status      string `form:"status"`
	Priority    string `form:"priority"`
	FaultType   string `form:"fault_type"`
	DormitoryID uint   `form:"dormitory_id"`
	RequesterID uint   `form:"requester_id"`
}

// AssignWorkerRequest 分配维修员
type AssignWorkerRequest struct {
	WorkerID uint `json:"worker_id" binding:"required"`
}

// AddNotesRequest 维修说明
type AddNotesRequest struct {
	RepairNotes string `json:"repair_notes"`
}

// RateRequest 工单评价
type RateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// BatchUpdateStatusRequest 批量更新状态
type BatchUpdateStatusRequest struct {
	IDs    []uint `json:"ids"    binding:"required,min=1,max=500"`
	Status string `json:"status" binding:"required"`
}

// BatchUpdateResponse 批量更新结果
type BatchUpdateResponse struct {
	Updated int64 `json:"updated"`
}

// RepairStatisticsRequest 工单统计参数（YYYY-MM-DD）
type RepairStatisticsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// RepairOrderBrief 创建/更新后返回的摘要
type RepairOrderBrief struct {
	ID          uint   `json:"id"`
	OrderNumber string `json:"order_number"`
	Title       string `json:"title"`
	Status      string `json:"status"`
}

// RepairOrderListItem 工单列表行
type RepairOrderListItem struct {
	ID             uint    `json:"id"`
	OrderNumber    string  `json:"order_number"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	FaultType      string  `json:"fault_type"`
	StudentName    string  `json:"student_name"`
	StudentID      uint    `json:"student_id"`
	DormitoryName  string  `json:"dormitory_name"`
	DormitoryID    uint    `json:"dormitory_id"`
	RepairWorkerID *uint   `json:"repair_worker_id"`
	Rating         *int    `json:"rating"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	CompletedAt    *string `json:"completed_at"`
}

// RepairOrderDetailResponse 工单详情
type RepairOrderDetailResponse struct {
	ID           uint            `json:"id"`
	OrderNumber  string          `json:"order_number"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
	Priority     string          `json:"priority"`
	FaultType    string          `json:"fault_type"`
	Student      *UserBrief      `json:"student"`
	Dormitory    *DormitoryBrief `json:"dormitory"`
	RepairWorker *UserBrief      `json:"repair_worker"`
	RepairNotes  string          `json:"repair_notes"`
	Rating       *int            `json:"rating"`
	Comment      string          `json:"comment"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
	CompletedAt  *string         `json:"completed_at"`
}

// RepairStatisticsResponse 工单统计
type RepairStatisticsResponse struct {
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"by_status"`
	ByPriority    map[string]int64 `json:"by_priority"`
	ByFaultType   map[string]int64 `json:"by_fault_type"`
	AverageRating *float64         `json:"average_rating"`
}
