package model

import "time"

// 工单状态。状态之间没有强制的流转图，任何更新都可以设置任意状态
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// 故障类型
const (
	FaultWater      = "water"
	FaultFurniture  = "furniture"
	FaultDoorWindow = "door_window"
	FaultNetwork    = "network"
	FaultOther      = "other"
)

// 优先级
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Choice 枚举值及其中文标签
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// StatusChoices 工单状态选项（有序）
var StatusChoices = []Choice{
	{StatusPending, "待处理"},
	{StatusProcessing, "维修中"},
	{StatusCompleted, "已完成"},
	{StatusCancelled, "已取消"},
}

// FaultTypeChoices 故障类型选项
var FaultTypeChoices = []Choice{
	{FaultWater, "水电故障"},
	{FaultFurniture, "家具损坏"},
	{FaultDoorWindow, "门窗问题"},
	{FaultNetwork, "网络故障"},
	{FaultOther, "其他问题"},
}

// PriorityChoices 优先级选项
var PriorityChoices = []Choice{
	{PriorityLow, "低"},
	{PriorityMedium, "中"},
	{PriorityHigh, "高"},
	{PriorityUrgent, "紧急"},
}

// OpenStatuses 未完结状态，宿舍存在此类工单时不可删除
var OpenStatuses = []string{StatusPending, StatusProcessing}

// IsValidChoice 判断 value 是否属于 choices
func IsValidChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// ChoiceLabel 返回枚举值对应的标签，未知值原样返回
func ChoiceLabel(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// RepairOrder 报修工单表 — 对应 repair_orders
type RepairOrder struct {
	BaseModel
	OrderNumber    string     `gorm:"type:varchar(20);not null;uniqueIndex;<-:create" json:"order_number"`
	RequesterID    uint       `gorm:"not null;index"                                  json:"requester_id"`
	DormitoryID    uint       `gorm:"not null;index"                                  json:"dormitory_id"`
	FaultType      string     `gorm:"type:varchar(20);not null;default:'other'"       json:"fault_type"`
	Title          string     `gorm:"type:varchar(100);not null"                      json:"title"`
	Description    string     `gorm:"type:text;not null"                              json:"description"`
	Priority       string     `gorm:"type:varchar(10);not null;default:'medium'"      json:"priority"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CompletedAt    *time.Time `                                                       json:"completed_at,omitempty"`
	RepairWorkerID *uint      `gorm:"index"                                           json:"repair_worker_id,omitempty"`
	RepairNotes    string     `gorm:"type:text;not null;default:''"                   json:"repair_notes"`
	Rating         *int       `                                                       json:"rating,omitempty"`
	Comment        string     `gorm:"type:text;not null;default:''"                   json:"comment"`

	// 关联
	Requester    *User      `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE"    json:"requester,omitempty"`
	Dormitory    *Dormitory `gorm:"foreignKey:DormitoryID;constraint:OnDelete:CASCADE"    json:"dormitory,omitempty"`
	RepairWorker *User      `gorm:"foreignKey:RepairWorkerID;constraint:OnDelete:SET NULL" json:"repair_worker,omitempty"`
}

// TableName 指定表名
func (RepairOrder) TableName() string { return "repair_orders" }
