package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"dorm-repair/internal/model"
	"dorm-repair/internal/repository"
)

// ── 测试辅助：mock 聚合 ──

type mockRepos struct {
	users    *mockUserRepo
	dorms    *mockDormRepo
	students *mockStudentRepo
	orders   *mockRepairOrderRepo
	repo     *repository.Repository
}

func setupMockRepos() *mockRepos {
	users := newMockUserRepo()
	dorms := newMockDormRepo()
	students := newMockStudentRepo(dorms)
	orders := newMockRepairOrderRepo(users, dorms)
	return &mockRepos{
		users:    users,
		dorms:    dorms,
		students: students,
		orders:   orders,
		repo: &repository.Repository{
			User:        users,
			Dormitory:   dorms,
			Student:     students,
			RepairOrder: orders,
		},
	}
}

func paginate(n, offset, limit int) (int, int) {
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id uint, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context, f repository.UserFilter) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if f.Search != "" && !containsFold(u.Username+" "+u.FirstName+" "+u.LastName+" "+u.Email, f.Search) {
			continue
		}
		if f.IsStaff != nil && u.IsStaff != *f.IsStaff {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	start, end := paginate(len(result), f.Offset, f.Limit)
	return result[start:end], int64(len(result)), nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── Mock DormitoryRepository ──

type mockDormRepo struct {
	dorms  map[uint]*model.Dormitory
	nextID uint
}

func newMockDormRepo() *mockDormRepo {
	return &mockDormRepo{dorms: make(map[uint]*model.Dormitory)}
}

func (m *mockDormRepo) Create(_ context.Context, d *model.Dormitory) error {
	for _, x := range m.dorms {
		if x.BuildingName == d.BuildingName && x.RoomNumber == d.RoomNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	d.ID = m.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.dorms[d.ID] = d
	return nil
}

func (m *mockDormRepo) GetByID(_ context.Context, id uint) (*model.Dormitory, error) {
	if d, ok := m.dorms[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDormRepo) GetByBuildingRoom(_ context.Context, building, room string) (*model.Dormitory, error) {
	for _, d := range m.dorms {
		if d.BuildingName == building && d.RoomNumber == room {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDormRepo) ExistsByBuildingRoom(_ context.Context, building, room string, excludeID uint) (bool, error) {
	for _, d := range m.dorms {
		if d.BuildingName == building && d.RoomNumber == room && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDormRepo) List(_ context.Context, f repository.DormitoryFilter) ([]model.Dormitory, int64, error) {
	var result []model.Dormitory
	for _, d := range m.dorms {
		if f.Search != "" && !containsFold(d.BuildingName, f.Search) && !containsFold(d.RoomNumber, f.Search) {
			continue
		}
		if f.BuildingName != "" && d.BuildingName != f.BuildingName {
			continue
		}
		if f.Floor != nil && d.Floor != *f.Floor {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].BuildingName != result[j].BuildingName {
			return result[i].BuildingName < result[j].BuildingName
		}
		return result[i].RoomNumber < result[j].RoomNumber
	})
	start, end := paginate(len(result), f.Offset, f.Limit)
	return result[start:end], int64(len(result)), nil
}

func (m *mockDormRepo) Update(_ context.Context, d *model.Dormitory) error {
	cp := *d
	m.dorms[d.ID] = &cp
	return nil
}

func (m *mockDormRepo) Delete(_ context.Context, id uint) error {
	delete(m.dorms, id)
	return nil
}

func (m *mockDormRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.dorms)), nil
}

func (m *mockDormRepo) CountByBuilding(_ context.Context) ([]repository.BuildingRooms, error) {
	counts := make(map[string]int64)
	for _, d := range m.dorms {
		counts[d.BuildingName]++
	}
	var result []repository.BuildingRooms
	for b, n := range counts {
		result = append(result, repository.BuildingRooms{BuildingName: b, Rooms: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BuildingName < result[j].BuildingName })
	return result, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[uint]*model.Student
	dorms    *mockDormRepo
	nextID   uint
}

func newMockStudentRepo(dorms *mockDormRepo) *mockStudentRepo {
	return &mockStudentRepo{students: make(map[uint]*model.Student), dorms: dorms}
}

func (m *mockStudentRepo) withDormitory(s *model.Student) *model.Student {
	cp := *s
	cp.Dormitory = nil
	if cp.DormitoryID != nil {
		if d, ok := m.dorms.dorms[*cp.DormitoryID]; ok {
			dc := *d
			cp.Dormitory = &dc
		}
	}
	return &cp
}

func (m *mockStudentRepo) Create(_ context.Context, s *model.Student) error {
	for _, x := range m.students {
		if x.StudentID == s.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.students[s.ID] = &cp
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id uint) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return m.withDormitory(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByStudentID(_ context.Context, studentID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.StudentID == studentID {
			return m.withDormitory(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID uint) (*model.Student, error) {
	for _, s := range m.students {
		if s.UserID != nil && *s.UserID == userID {
			return m.withDormitory(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context, f repository.StudentFilter) ([]model.Student, int64, error) {
	var result []model.Student
	for _, s := range m.students {
		full := m.withDormitory(s)
		if f.Search != "" && !containsFold(s.Name+" "+s.StudentID+" "+s.Phone, f.Search) {
			continue
		}
		if f.Building != "" && (full.Dormitory == nil || full.Dormitory.BuildingName != f.Building) {
			continue
		}
		if f.HasDormitory != nil && (s.DormitoryID != nil) != *f.HasDormitory {
			continue
		}
		result = append(result, *full)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	start, end := paginate(len(result), f.Offset, f.Limit)
	return result[start:end], int64(len(result)), nil
}

func (m *mockStudentRepo) ListByDormitory(_ context.Context, dormitoryID uint) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if s.DormitoryID != nil && *s.DormitoryID == dormitoryID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (m *mockStudentRepo) Update(_ context.Context, s *model.Student) error {
	for _, x := range m.students {
		if x.ID != s.ID && x.StudentID == s.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *s
	cp.Dormitory = nil
	m.students[s.ID] = &cp
	return nil
}

func (m *mockStudentRepo) SetDormitory(_ context.Context, id uint, dormitoryID *uint) error {
	if s, ok := m.students[id]; ok {
		s.DormitoryID = dormitoryID
	}
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id uint) error {
	delete(m.students, id)
	return nil
}

func (m *mockStudentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.students)), nil
}

func (m *mockStudentRepo) CountByDormitory(_ context.Context, dormitoryID uint) (int64, error) {
	var n int64
	for _, s := range m.students {
		if s.DormitoryID != nil && *s.DormitoryID == dormitoryID {
			n++
		}
	}
	return n, nil
}

func (m *mockStudentRepo) CountWithDormitory(_ context.Context) (int64, error) {
	var n int64
	for _, s := range m.students {
		if s.DormitoryID != nil {
			n++
		}
	}
	return n, nil
}

func (m *mockStudentRepo) CountOccupiedDormitories(_ context.Context) (int64, error) {
	seen := make(map[uint]bool)
	for _, s := range m.students {
		if s.DormitoryID != nil {
			seen[*s.DormitoryID] = true
		}
	}
	return int64(len(seen)), nil
}

// ── Mock RepairOrderRepository ──

type mockRepairOrderRepo struct {
	orders map[uint]*model.RepairOrder
	users  *mockUserRepo
	dorms  *mockDormRepo
	nextID uint
	// collisions 之后 Create 调用中需模拟唯一索引冲突的次数
	collisions int
}

func newMockRepairOrderRepo(users *mockUserRepo, dorms *mockDormRepo) *mockRepairOrderRepo {
	return &mockRepairOrderRepo{orders: make(map[uint]*model.RepairOrder), users: users, dorms: dorms}
}

func (m *mockRepairOrderRepo) withRelations(o *model.RepairOrder) *model.RepairOrder {
	cp := *o
	cp.Requester = m.users.users[o.RequesterID]
	if d, ok := m.dorms.dorms[o.DormitoryID]; ok {
		dc := *d
		cp.Dormitory = &dc
	} else {
		cp.Dormitory = nil
	}
	cp.RepairWorker = nil
	if o.RepairWorkerID != nil {
		cp.RepairWorker = m.users.users[*o.RepairWorkerID]
	}
	return &cp
}

func (m *mockRepairOrderRepo) Create(_ context.Context, o *model.RepairOrder) error {
	if m.collisions > 0 {
		m.collisions--
		return gorm.ErrDuplicatedKey
	}
	for _, x := range m.orders {
		if x.OrderNumber == o.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	o.ID = m.nextID
	// 保证同一秒内创建的工单仍有先后顺序
	o.CreatedAt = time.Now().Add(time.Duration(o.ID) * time.Microsecond)
	o.UpdatedAt = o.CreatedAt
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockRepairOrderRepo) GetByID(_ context.Context, id uint) (*model.RepairOrder, error) {
	if o, ok := m.orders[id]; ok {
		return m.withRelations(o), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRepairOrderRepo) match(o *model.RepairOrder, f repository.RepairOrderFilter) bool {
	if f.Search != "" {
		text := o.OrderNumber + " " + o.Title
		if u, ok := m.users.users[o.RequesterID]; ok {
			text += " " + u.Username + " " + u.FirstName + " " + u.LastName
		}
		if !containsFold(text, f.Search) {
			return false
		}
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Priority != "" && o.Priority != f.Priority {
		return false
	}
	if f.FaultType != "" && o.FaultType != f.FaultType {
		return false
	}
	if f.DormitoryID != 0 && o.DormitoryID != f.DormitoryID {
		return false
	}
	if f.RequesterID != 0 && o.RequesterID != f.RequesterID {
		return false
	}
	return true
}

func (m *mockRepairOrderRepo) sorted(keep func(*model.RepairOrder) bool) []model.RepairOrder {
	var result []model.RepairOrder
	for _, o := range m.orders {
		if keep(o) {
			result = append(result, *m.withRelations(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (m *mockRepairOrderRepo) List(_ context.Context, f repository.RepairOrderFilter) ([]model.RepairOrder, int64, error) {
	result := m.sorted(func(o *model.RepairOrder) bool { return m.match(o, f) })
	start, end := paginate(len(result), f.Offset, f.Limit)
	return result[start:end], int64(len(result)), nil
}

func (m *mockRepairOrderRepo) Update(_ context.Context, o *model.RepairOrder) error {
	existing, ok := m.orders[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *o
	// 与 gorm 的 <-:create 一致：工单号与创建时间不随更新写入
	cp.OrderNumber = existing.OrderNumber
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockRepairOrderRepo) UpdateStatusBatch(_ context.Context, ids []uint, status string, completedAt *time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		if o, ok := m.orders[id]; ok {
			o.Status = status
			switch {
			case completedAt == nil:
				o.CompletedAt = nil
			case o.CompletedAt == nil:
				t := *completedAt
				o.CompletedAt = &t
			}
			n++
		}
	}
	return n, nil
}

func (m *mockRepairOrderRepo) Delete(_ context.Context, id uint) error {
	delete(m.orders, id)
	return nil
}

func (m *mockRepairOrderRepo) RecentByDormitory(_ context.Context, dormitoryID uint, limit int) ([]model.RepairOrder, error) {
	result := m.sorted(func(o *model.RepairOrder) bool { return o.DormitoryID == dormitoryID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockRepairOrderRepo) CountByDormitory(_ context.Context, dormitoryID uint) (int64, error) {
	var n int64
	for _, o := range m.orders {
		if o.DormitoryID == dormitoryID {
			n++
		}
	}
	return n, nil
}

func (m *mockRepairOrderRepo) ExistsOpenByDormitory(_ context.Context, dormitoryID uint) (bool, error) {
	for _, o := range m.orders {
		if o.DormitoryID == dormitoryID && (o.Status == model.StatusPending || o.Status == model.StatusProcessing) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepairOrderRepo) CountByRequester(_ context.Context, requesterID uint, statuses ...string) (int64, error) {
	var n int64
	for _, o := range m.orders {
		if o.RequesterID != requesterID {
			continue
		}
		if len(statuses) > 0 {
			found := false
			for _, st := range statuses {
				if o.Status == st {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		n++
	}
	return n, nil
}

func (m *mockRepairOrderRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, o := range m.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockRepairOrderRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.orders)), nil
}

func (m *mockRepairOrderRepo) inRange(o *model.RepairOrder, tr repository.TimeRange) bool {
	if !tr.From.IsZero() && o.CreatedAt.Before(tr.From) {
		return false
	}
	if !tr.To.IsZero() && !o.CreatedAt.Before(tr.To) {
		return false
	}
	return true
}

func (m *mockRepairOrderRepo) GroupCount(_ context.Context, column string, tr repository.TimeRange) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, o := range m.orders {
		if !m.inRange(o, tr) {
			continue
		}
		switch column {
		case "status":
			result[o.Status]++
		case "priority":
			result[o.Priority]++
		case "fault_type":
			result[o.FaultType]++
		default:
			return nil, fmt.Errorf("不支持的分组列: %s", column)
		}
	}
	return result, nil
}

func (m *mockRepairOrderRepo) AverageRating(_ context.Context, tr repository.TimeRange) (*float64, error) {
	var sum, n int
	for _, o := range m.orders {
		if o.Rating != nil && m.inRange(o, tr) {
			sum += *o.Rating
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := float64(sum) / float64(n)
	return &avg, nil
}
