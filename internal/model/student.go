package model

// Student 学生档案表 — 对应 students
type Student struct {
	BaseModel
	UserID      *uint  `gorm:"uniqueIndex"                           json:"user_id,omitempty"`
	StudentID   string `gorm:"type:varchar(20);not null;uniqueIndex" json:"student_id"`
	Name        string `gorm:"type:varchar(50);not null"             json:"name"`
	Phone       string `gorm:"type:varchar(11);not null;default:''"  json:"phone"`
	DormitoryID *uint  `gorm:"index"                                 json:"dormitory_id,omitempty"`

	// 关联
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"      json:"user,omitempty"`
	Dormitory *Dormitory `gorm:"foreignKey:DormitoryID;constraint:OnDelete:SET NULL" json:"dormitory,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
