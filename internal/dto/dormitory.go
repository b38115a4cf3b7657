package dto

// ── 宿舍模块 DTO ──

// CreateDormitoryRequest 创建宿舍请求
type CreateDormitoryRequest struct {
	BuildingName string `json:"building_name" binding:"required,max=50"`
	RoomNumber   string `json:"room_number"   binding:"required,max=20"`
	Floor        *int   `json:"floor"         binding:"required"`
}

// UpdateDormitoryRequest 更新宿舍请求
type UpdateDormitoryRequest struct {
	BuildingName *string `json:"building_name" binding:"omitempty,min=1,max=50"`
	RoomNumber   *string `json:"room_number"   binding:"omitempty,min=1,max=20"`
	Floor        *int    `json:"floor"`
}

// DormitoryListRequest 宿舍列表查询参数
type DormitoryListRequest struct {
	PaginationRequest
	Search       string `form:"search"        binding:"omitempty,max=50"`
	BuildingName string `form:"building_name" binding:"omitempty,max=50"`
	Floor        *int   `form:"floor"`
}

// DormitoryResponse 宿舍基础信息
type DormitoryResponse struct {
	ID           uint   `json:"id"`
	BuildingName string `json:"building_name"`
	RoomNumber   string `json:"room_number"`
	Floor        int    `json:"floor"`
}

// DormitoryListItem 宿舍列表行
type DormitoryListItem struct {
	DormitoryResponse
	RepairCount  int64 `json:"repair_count"`
	StudentCount int64 `json:"student_count"`
}

// RecentRepairItem 宿舍详情中的近期报修
type RecentRepairItem struct {
	ID          uint   `json:"id"`
	OrderNumber string `json:"order_number"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	StudentName string `json:"student_name"`
	CreatedAt   string `json:"created_at"`
}

// DormitoryDetailResponse 宿舍详情
type DormitoryDetailResponse struct {
	DormitoryResponse
	RecentRepairs []RecentRepairItem `json:"recent_repairs"`
	RepairCount   int64              `json:"repair_count"`
	Students      []StudentBrief     `json:"students"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at"`
}

// BuildingCount 楼栋房间数
type BuildingCount struct {
	BuildingName string `json:"building_name"`
	Rooms        int64  `json:"rooms"`
}

// DormitoryStatisticsResponse 宿舍统计
type DormitoryStatisticsResponse struct {
	Total     int64           `json:"total"`
	Occupied  int64           `json:"occupied"`
	Empty     int64           `json:"empty"`
	Buildings []BuildingCount `json:"buildings"`
}
