package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dorm-repair/internal/model"
)

// RepairOrderFilter 工单列表筛选，各条件之间为 AND
type RepairOrderFilter struct {
	Search      string
	Status      string
	Priority    string
	FaultType   string
	DormitoryID uint
	RequesterID uint
	Offset      int
	Limit       int
}

// TimeRange 统计时间范围（左闭右开），零值表示不限
type TimeRange struct {
	From time.Time
	To   time.Time
}

// RepairOrderRepository 工单数据访问接口
type RepairOrderRepository interface {
	Create(ctx context.Context, o *model.RepairOrder) error
	GetByID(ctx context.Context, id uint) (*model.RepairOrder, error)
	List(ctx context.Context, f RepairOrderFilter) ([]model.RepairOrder, int64, error)
	Update(ctx context.Context, o *model.RepairOrder) error
	UpdateStatusBatch(ctx context.Context, ids []uint, status string, completedAt *time.Time) (int64, error)
	Delete(ctx context.Context, id uint) error

	RecentByDormitory(ctx context.Context, dormitoryID uint, limit int) ([]model.RepairOrder, error)
	CountByDormitory(ctx context.Context, dormitoryID uint) (int64, error)
	ExistsOpenByDormitory(ctx context.Context, dormitoryID uint) (bool, error)
	CountByRequester(ctx context.Context, requesterID uint, statuses ...string) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	Count(ctx context.Context) (int64, error)
	GroupCount(ctx context.Context, column string, tr TimeRange) (map[string]int64, error)
	AverageRating(ctx context.Context, tr TimeRange) (*float64, error)
}

type repairOrderRepo struct {
	db *gorm.DB
}

// NewRepairOrderRepo 创建 RepairOrderRepository 实例
func NewRepairOrderRepo(db *gorm.DB) RepairOrderRepository {
	return &repairOrderRepo{db: db}
}

func (r *repairOrderRepo) Create(ctx context.Context, o *model.RepairOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *repairOrderRepo) GetByID(ctx context.Context, id uint) (*model.RepairOrder, error) {
	var o model.RepairOrder
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Dormitory").
		Preload("RepairWorker").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repairOrderRepo) List(ctx context.Context, f RepairOrderFilter) ([]model.RepairOrder, int64, error) {
	var orders []model.RepairOrder
	var total int64

	db := r.db.WithContext(ctx).Model(&model.RepairOrder{})
	if f.Search != "" {
		cond, args := matchAny(f.Search,
			"repair_orders.order_number", "repair_orders.title",
			"users.first_name", "users.last_name", "users.username",
		)
		db = db.Joins("LEFT JOIN users ON users.id = repair_orders.requester_id").
			Where(cond, args...)
	}
	if f.Status != "" {
		db = db.Where("repair_orders.status = ?", f.Status)
	}
	if f.Priority != "" {
		db = db.Where("repair_orders.priority = ?", f.Priority)
	}
	if f.FaultType != "" {
		db = db.Where("repair_orders.fault_type = ?", f.FaultType)
	}
	if f.DormitoryID != 0 {
		db = db.Where("repair_orders.dormitory_id = ?", f.DormitoryID)
	}
	if f.RequesterID != 0 {
		db = db.Where("repair_orders.requester_id = ?", f.RequesterID)
	}
	db = db.Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Select("repair_orders.*").
		Preload("Requester").
		Preload("Dormitory").
		Order("repair_orders.created_at DESC, repair_orders.id DESC").
		Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *repairOrderRepo) Update(ctx context.Context, o *model.RepairOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}

// UpdateStatusBatch 批量设置状态
// completedAt 非空时只填充尚未完成的工单，已有的完成时间保持不变；为空时清除完成时间
func (r *repairOrderRepo) UpdateStatusBatch(ctx context.Context, ids []uint, status string, completedAt *time.Time) (int64, error) {
	var completed interface{}
	if completedAt != nil {
		completed = gorm.Expr("COALESCE(completed_at, ?)", *completedAt)
	}
	res := r.db.WithContext(ctx).
		Model(&model.RepairOrder{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": completed,
			"updated_at":   time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *repairOrderRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.RepairOrder{}, id).Error
}

func (r *repairOrderRepo) RecentByDormitory(ctx context.Context, dormitoryID uint, limit int) ([]model.RepairOrder, error) {
	var orders []model.RepairOrder
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("dormitory_id = ?", dormitoryID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *repairOrderRepo) CountByDormitory(ctx context.Context, dormitoryID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.RepairOrder{}).
		Where("dormitory_id = ?", dormitoryID).
		Count(&n).Error
	return n, err
}

func (r *repairOrderRepo) ExistsOpenByDormitory(ctx context.Context, dormitoryID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.RepairOrder{}).
		Where("dormitory_id = ? AND status IN ?", dormitoryID, model.OpenStatuses).
		Count(&n).Error
	return n > 0, err
}

// CountByRequester statuses 为空时统计全部状态
func (r *repairOrderRepo) CountByRequester(ctx context.Context, requesterID uint, statuses ...string) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx).
		Model(&model.RepairOrder{}).
		Where("requester_id = ?", requesterID)
	if len(statuses) > 0 {
		db = db.Where("status IN ?", statuses)
	}
	err := db.Count(&n).Error
	return n, err
}

func (r *repairOrderRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.RepairOrder{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}

func (r *repairOrderRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.RepairOrder{}).Count(&n).Error
	return n, err
}

// groupableColumns 允许分组统计的列，防止拼接任意 SQL
var groupableColumns = map[string]bool{
	"status":     true,
	"priority":   true,
	"fault_type": true,
}

func (r *repairOrderRepo) GroupCount(ctx context.Context, column string, tr TimeRange) (map[string]int64, error) {
	if !groupableColumns[column] {
		return nil, fmt.Errorf("不支持的分组列: %s", column)
	}

	var rows []struct {
		K string
		N int64
	}
	err := r.withTimeRange(ctx, tr).
		Select(column + " AS k, COUNT(*) AS n").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.K] = row.N
	}
	return result, nil
}

func (r *repairOrderRepo) AverageRating(ctx context.Context, tr TimeRange) (*float64, error) {
	var avg sql.NullFloat64
	err := r.withTimeRange(ctx, tr).
		Select("AVG(rating)").
		Where("rating IS NOT NULL").
		Row().Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *repairOrderRepo) withTimeRange(ctx context.Context, tr TimeRange) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.RepairOrder{})
	if !tr.From.IsZero() {
		db = db.Where("created_at >= ?", tr.From)
	}
	if !tr.To.IsZero() {
		db = db.Where("created_at < ?", tr.To)
	}
	return db
}
