package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dorm-repair/internal/model"
)

// StudentFilter 学生列表筛选
type StudentFilter struct {
	Search       string
	Building     string
	HasDormitory *bool
	Offset       int
	Limit        int
}

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, s *model.Student) error
	GetByID(ctx context.Context, id uint) (*model.Student, error)
	GetByStudentID(ctx context.Context, studentID string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID uint) (*model.Student, error)
	List(ctx context.Context, f StudentFilter) ([]model.Student, int64, error)
	ListByDormitory(ctx context.Context, dormitoryID uint) ([]model.Student, error)
	Update(ctx context.Context, s *model.Student) error
	SetDormitory(ctx context.Context, id uint, dormitoryID *uint) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountByDormitory(ctx context.Context, dormitoryID uint) (int64, error)
	CountWithDormitory(ctx context.Context) (int64, error)
	CountOccupiedDormitories(ctx context.Context) (int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, s *model.Student) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id uint) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		Preload("Dormitory").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByStudentID(ctx context.Context, studentID string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID uint) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) List(ctx context.Context, f StudentFilter) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{})
	if f.Search != "" {
		cond, args := matchAny(f.Search, "students.name", "students.student_id", "students.phone")
		db = db.Where(cond, args...)
	}
	if f.Building != "" {
		db = db.Joins("JOIN dormitories ON dormitories.id = students.dormitory_id").
			Where("dormitories.building_name = ?", f.Building)
	}
	if f.HasDormitory != nil {
		if *f.HasDormitory {
			db = db.Where("students.dormitory_id IS NOT NULL")
		} else {
			db = db.Where("students.dormitory_id IS NULL")
		}
	}
	db = db.Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Select("students.*").
		Preload("Dormitory").
		Offset(f.Offset).Limit(f.Limit).
		Order("students.student_id ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) ListByDormitory(ctx context.Context, dormitoryID uint) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("dormitory_id = ?", dormitoryID).
		Order("student_id ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) Update(ctx context.Context, s *model.Student) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

// SetDormitory dormitoryID 为 nil 时取消分配
func (r *studentRepo) SetDormitory(ctx context.Context, id uint, dormitoryID *uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("id = ?", id).
		Update("dormitory_id", dormitoryID).Error
}

func (r *studentRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Student{}, id).Error
}

func (r *studentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).Count(&n).Error
	return n, err
}

func (r *studentRepo) CountByDormitory(ctx context.Context, dormitoryID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("dormitory_id = ?", dormitoryID).
		Count(&n).Error
	return n, err
}

func (r *studentRepo) CountWithDormitory(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("dormitory_id IS NOT NULL").
		Count(&n).Error
	return n, err
}

func (r *studentRepo) CountOccupiedDormitories(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("dormitory_id IS NOT NULL").
		Distinct("dormitory_id").
		Count(&n).Error
	return n, err
}
