package service

import (
	"fmt"
	"sync"
	"time"
)

// orderNumberLayout 工单号中的时间部分，精确到秒
const orderNumberLayout = "20060102150405"

// orderNumberGenerator 生成形如 R + YYYYMMDDHHMMSS + 4 位序号 的工单号
//
// 序号为进程内计数，每秒重新从 0001 开始；跨进程冲突由数据库唯一索引兜底，
// 调用方遇到 gorm.ErrDuplicatedKey 时重新生成。
type orderNumberGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last string
	seq  int
}

func newOrderNumberGenerator() *orderNumberGenerator {
	return &orderNumberGenerator{now: time.Now}
}

// Next 返回下一个工单号
func (g *orderNumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	stamp := g.now().Format(orderNumberLayout)
	if stamp != g.last {
		g.last = stamp
		g.seq = 0
	}
	g.seq++
	return fmt.Sprintf("R%s%04d", stamp, g.seq%10000)
}
