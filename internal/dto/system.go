package dto

// ── 系统模块 DTO ──

// HealthResponse 健康检查
type HealthResponse struct {
	Server    string `json:"server"`
	Version   string `json:"version"`
	App       string `json:"app"`
	Timestamp string `json:"timestamp"`
}

// SystemStatistics 系统概况统计
type SystemStatistics struct {
	TotalOrders      int64 `json:"total_orders"`
	PendingOrders    int64 `json:"pending_orders"`
	CompletedOrders  int64 `json:"completed_orders"`
	TotalDormitories int64 `json:"total_dormitories"`
	TotalUsers       int64 `json:"total_users"`
	TotalStudents    int64 `json:"total_students"`
}

// SystemMeta 系统元信息
type SystemMeta struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Backend string `json:"backend"`
}

// SiteMeta 站点标题配置
type SiteMeta struct {
	Header string `json:"header"`
	Title  string `json:"title"`
}

// SystemInfoResponse 系统信息
type SystemInfoResponse struct {
	Statistics SystemStatistics `json:"statistics"`
	System     SystemMeta       `json:"system"`
	Site       SiteMeta         `json:"site"`
}
