package model

import "fmt"

// Dormitory 宿舍表 — 对应 dormitories
// (building_name, room_number) 联合唯一
type Dormitory struct {
	BaseModel
	BuildingName string `gorm:"type:varchar(50);not null;uniqueIndex:uk_dormitory_building_room,priority:1" json:"building_name"`
	RoomNumber   string `gorm:"type:varchar(20);not null;uniqueIndex:uk_dormitory_building_room,priority:2" json:"room_number"`
	Floor        int    `gorm:"not null"                                                                    json:"floor"`
}

// TableName 指定表名
func (Dormitory) TableName() string { return "dormitories" }

// DisplayName 形如 "1号楼-101"
func (d *Dormitory) DisplayName() string {
	return fmt.Sprintf("%s-%s", d.BuildingName, d.RoomNumber)
}
