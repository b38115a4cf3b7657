package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dorm-repair/internal/model"
)

// DormitoryFilter 宿舍列表筛选
type DormitoryFilter struct {
	Search       string
	BuildingName string
	Floor        *int
	Offset       int
	Limit        int
}

// BuildingRooms 楼栋房间数
type BuildingRooms struct {
	BuildingName string
	Rooms        int64
}

// DormitoryRepository 宿舍数据访问接口
type DormitoryRepository interface {
	Create(ctx context.Context, d *model.Dormitory) error
	GetByID(ctx context.Context, id uint) (*model.Dormitory, error)
	GetByBuildingRoom(ctx context.Context, building, room string) (*model.Dormitory, error)
	ExistsByBuildingRoom(ctx context.Context, building, room string, excludeID uint) (bool, error)
	List(ctx context.Context, f DormitoryFilter) ([]model.Dormitory, int64, error)
	Update(ctx context.Context, d *model.Dormitory) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountByBuilding(ctx context.Context) ([]BuildingRooms, error)
}

type dormitoryRepo struct {
	db *gorm.DB
}

// NewDormitoryRepo 创建 DormitoryRepository 实例
func NewDormitoryRepo(db *gorm.DB) DormitoryRepository {
	return &dormitoryRepo{db: db}
}

func (r *dormitoryRepo) Create(ctx context.Context, d *model.Dormitory) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *dormitoryRepo) GetByID(ctx context.Context, id uint) (*model.Dormitory, error) {
	var d model.Dormitory
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dormitoryRepo) GetByBuildingRoom(ctx context.Context, building, room string) (*model.Dormitory, error) {
	var d model.Dormitory
	err := r.db.WithContext(ctx).
		Where("building_name = ? AND room_number = ?", building, room).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ExistsByBuildingRoom excludeID 非 0 时排除自身（用于更新）
func (r *dormitoryRepo) ExistsByBuildingRoom(ctx context.Context, building, room string, excludeID uint) (bool, error) {
	var n int64
	db := r.db.WithContext(ctx).
		Model(&model.Dormitory{}).
		Where("building_name = ? AND room_number = ?", building, room)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *dormitoryRepo) List(ctx context.Context, f DormitoryFilter) ([]model.Dormitory, int64, error) {
	var dorms []model.Dormitory
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Dormitory{})
	if f.Search != "" {
		cond, args := matchAny(f.Search, "building_name", "room_number")
		db = db.Where(cond, args...)
	}
	if f.BuildingName != "" {
		db = db.Where("building_name = ?", f.BuildingName)
	}
	if f.Floor != nil {
		db = db.Where("floor = ?", *f.Floor)
	}
	db = db.Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(f.Offset).Limit(f.Limit).
		Order("building_name ASC, room_number ASC").
		Find(&dorms).Error; err != nil {
		return nil, 0, err
	}

	return dorms, total, nil
}

func (r *dormitoryRepo) Update(ctx context.Context, d *model.Dormitory) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(d).Error
}

func (r *dormitoryRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Dormitory{}, id).Error
}

func (r *dormitoryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Dormitory{}).Count(&n).Error
	return n, err
}

func (r *dormitoryRepo) CountByBuilding(ctx context.Context) ([]BuildingRooms, error) {
	var rows []BuildingRooms
	err := r.db.WithContext(ctx).
		Model(&model.Dormitory{}).
		Select("building_name, COUNT(*) AS rooms").
		Group("building_name").
		Order("building_name ASC").
		Scan(&rows).Error
	return rows, err
}
