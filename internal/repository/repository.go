package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User        UserRepository
	Dormitory   DormitoryRepository
	Student     StudentRepository
	RepairOrder RepairOrderRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Dormitory:   NewDormitoryRepo(db),
		Student:     NewStudentRepo(db),
		RepairOrder: NewRepairOrderRepo(db),
		db:          db,
	}
}

// BeginTx 开启事务；未绑定数据库（单元测试中的 mock 聚合）时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository 副本；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// matchAny 生成“任一列包含关键字”的条件（大小写不敏感，转义 LIKE 通配符）
// 使用 LOWER(col) LIKE 以兼容 postgres 与 sqlite
func matchAny(keyword string, cols ...string) (string, []interface{}) {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	pattern := "%" + strings.ToLower(r.Replace(keyword)) + "%"

	conds := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, c := range cols {
		conds = append(conds, "LOWER("+c+") LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}
