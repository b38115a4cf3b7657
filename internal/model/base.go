package model

import "time"

// BaseModel 通用主键与时间字段（所有业务模型嵌入）
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"                    json:"id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;<-:create" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"       json:"updated_at"`
}

// AllModels 返回需要建表的全部模型，供 AutoMigrate 与测试使用
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Dormitory{},
		&Student{},
		&RepairOrder{},
	}
}
