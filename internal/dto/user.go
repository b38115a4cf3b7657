package dto

// ── 用户模块 DTO ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// UserDetailResponse 管理端用户信息
type UserDetailResponse struct {
	UserResponse
	IsActive  bool    `json:"is_active"`
	LastLogin *string `json:"last_login"`
	CreatedAt string  `json:"created_at"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Search  string `form:"search"   binding:"omitempty,max=50"`
	IsStaff *bool  `form:"is_staff"`
}

// CreateUserRequest 创建账号请求
type CreateUserRequest struct {
	Username  string `json:"username"   binding:"required,max=150"`
	Password  string `json:"password"   binding:"required,min=8,max=128"`
	Email     string `json:"email"      binding:"omitempty,email,max=254"`
	FirstName string `json:"first_name" binding:"omitempty,max=150"`
	LastName  string `json:"last_name"  binding:"omitempty,max=150"`
	IsStaff   bool   `json:"is_staff"`
}

// UpdateUserRequest 更新账号请求，仅更新出现的字段
type UpdateUserRequest struct {
	Email     *string `json:"email"      binding:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name"  binding:"omitempty,max=150"`
	IsActive  *bool   `json:"is_active"`
	IsStaff   *bool   `json:"is_staff"`
}
