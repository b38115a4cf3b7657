package model

import (
	"strings"
	"time"
)

// User 平台账号表 — 对应 users
// 报修人与维修员都是 User；学生档案通过 Student.UserID 一对一关联
type User struct {
	BaseModel
	Username     string     `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null"             json:"-"`
	Email        string     `gorm:"type:varchar(254);not null;default:''"  json:"email"`
	FirstName    string     `gorm:"type:varchar(150);not null;default:''"  json:"first_name"`
	LastName     string     `gorm:"type:varchar(150);not null;default:''"  json:"last_name"`
	IsActive     bool       `gorm:"not null;default:true"                  json:"is_active"`
	IsStaff      bool       `gorm:"not null;default:false"                 json:"is_staff"`
	IsSuperuser  bool       `gorm:"not null;default:false"                 json:"is_superuser"`
	LastLogin    *time.Time `                                              json:"last_login,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// DisplayName 姓名为空时回退到用户名
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
