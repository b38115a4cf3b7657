package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
	"dorm-repair/internal/repository"
)

// ── 学生模块业务错误 ──

var (
	ErrStudentNotFound    = errors.New("学生不存在")
	ErrStudentExists      = errors.New("学号已存在")
	ErrStudentFieldsBlank = errors.New("学号和姓名不能为空")
	ErrInvalidPhone       = errors.New("手机号格式不正确")
	ErrUserAlreadyLinked  = errors.New("该账号已关联其他学生")
)

// DefaultStudentPageSize 学生列表默认每页数量
const DefaultStudentPageSize = 20

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// StudentService 学生业务接口
type StudentService interface {
	List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentDetailResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.StudentDetailResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdateStudentRequest) (*dto.StudentDetailResponse, error)
	Delete(ctx context.Context, id uint) error
	AssignDormitory(ctx context.Context, id, dormitoryID uint) (*dto.StudentDetailResponse, error)
	UnassignDormitory(ctx context.Context, id uint) (*dto.StudentDetailResponse, error)
	Statistics(ctx context.Context) (*dto.StudentStatisticsResponse, error)
	// ImportStudents 从 .xlsx 批量导入学生，校验不通过的行跳过并报告
	ImportStudents(ctx context.Context, r io.Reader) (*dto.ImportStudentsResponse, error)
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, repository.StudentFilter{
		Search:       strings.TrimSpace(req.Search),
		Building:     strings.TrimSpace(req.Building),
		HasDormitory: req.HasDormitory,
		Offset:       req.GetOffset(DefaultStudentPageSize),
		Limit:        req.GetPageSize(DefaultStudentPageSize),
	})
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		st := &students[i]
		summary, err := s.repairSummary(ctx, st)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, dto.StudentResponse{
			StudentBrief: toStudentBrief(st),
			UserID:       st.UserID,
			Dormitory:    toDormitoryBrief(st.Dormitory),
			RepairCount:  summary.Total,
			PendingCount: summary.Pending,
		})
	}
	return result, total, nil
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentDetailResponse, error) {
	studentID := strings.TrimSpace(req.StudentID)
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if studentID == "" || name == "" {
		return nil, ErrStudentFieldsBlank
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	if err := s.ensureStudentIDFree(ctx, studentID, 0); err != nil {
		return nil, err
	}

	st := &model.Student{
		StudentID: studentID,
		Name:      name,
		Phone:     phone,
	}

	if req.UserID != nil && *req.UserID != 0 {
		if err := s.ensureUserLinkable(ctx, *req.UserID); err != nil {
			return nil, err
		}
		st.UserID = req.UserID
	}

	if req.DormitoryID != nil && *req.DormitoryID != 0 {
		dormID, err := s.resolveDormitory(ctx, *req.DormitoryID)
		if err != nil {
			return nil, err
		}
		st.DormitoryID = dormID
	}

	if err := s.repo.Student.Create(ctx, st); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStudentExists
		}
		s.logger.Error("创建学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, st.ID)
}

// ────────────────────── GetByID ──────────────────────

func (s *studentService) GetByID(ctx context.Context, id uint) (*dto.StudentDetailResponse, error) {
	st, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.repairSummary(ctx, st)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentDetailResponse{
		StudentBrief:  toStudentBrief(st),
		UserID:        st.UserID,
		Dormitory:     toDormitoryBrief(st.Dormitory),
		RepairSummary: summary,
		Roommates:     []dto.StudentBrief{},
		CreatedAt:     dto.FormatTime(st.CreatedAt),
		UpdatedAt:     dto.FormatTime(st.UpdatedAt),
	}

	if st.DormitoryID != nil {
		mates, err := s.repo.Student.ListByDormitory(ctx, *st.DormitoryID)
		if err != nil {
			s.logger.Error("查询室友失败", zap.Uint("id", id), zap.Error(err))
			return nil, err
		}
		for i := range mates {
			if mates[i].ID != st.ID {
				resp.Roommates = append(resp.Roommates, toStudentBrief(&mates[i]))
			}
		}
	}
	return resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, id uint, req *dto.UpdateStudentRequest) (*dto.StudentDetailResponse, error) {
	st, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := trimPtr(req.StudentID); v != nil && *v != st.StudentID {
		if *v == "" {
			return nil, ErrStudentFieldsBlank
		}
		if err := s.ensureStudentIDFree(ctx, *v, id); err != nil {
			return nil, err
		}
		st.StudentID = *v
	}
	if v := trimPtr(req.Name); v != nil {
		if *v == "" {
			return nil, ErrStudentFieldsBlank
		}
		st.Name = *v
	}
	if v := trimPtr(req.Phone); v != nil {
		if *v != "" && !phonePattern.MatchString(*v) {
			return nil, ErrInvalidPhone
		}
		st.Phone = *v
	}
	if req.DormitoryID != nil {
		if *req.DormitoryID == 0 {
			st.DormitoryID = nil
		} else {
			dormID, err := s.resolveDormitory(ctx, *req.DormitoryID)
			if err != nil {
				return nil, err
			}
			// 指向不存在的宿舍时保持原值
			if dormID != nil {
				st.DormitoryID = dormID
			}
		}
	}

	if err := s.repo.Student.Update(ctx, st); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStudentExists
		}
		s.logger.Error("更新学生失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *studentService) Delete(ctx context.Context, id uint) error {
	if _, err := s.getStudent(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Student.Delete(ctx, id); err != nil {
		s.logger.Error("删除学生失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Assign / Unassign ──────────────────────

func (s *studentService) AssignDormitory(ctx context.Context, id, dormitoryID uint) (*dto.StudentDetailResponse, error) {
	if _, err := s.getStudent(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.repo.Dormitory.GetByID(ctx, dormitoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDormitoryNotFound
		}
		s.logger.Error("查询宿舍失败", zap.Uint("dormitory_id", dormitoryID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Student.SetDormitory(ctx, id, &dormitoryID); err != nil {
		s.logger.Error("分配宿舍失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *studentService) UnassignDormitory(ctx context.Context, id uint) (*dto.StudentDetailResponse, error) {
	if _, err := s.getStudent(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Student.SetDormitory(ctx, id, nil); err != nil {
		s.logger.Error("取消宿舍分配失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// ────────────────────── Statistics ──────────────────────

func (s *studentService) Statistics(ctx context.Context) (*dto.StudentStatisticsResponse, error) {
	total, err := s.repo.Student.Count(ctx)
	if err != nil {
		s.logger.Error("统计学生总数失败", zap.Error(err))
		return nil, err
	}
	with, err := s.repo.Student.CountWithDormitory(ctx)
	if err != nil {
		s.logger.Error("统计已分配宿舍学生失败", zap.Error(err))
		return nil, err
	}
	return &dto.StudentStatisticsResponse{
		Total:            total,
		WithDormitory:    with,
		WithoutDormitory: total - with,
	}, nil
}

// ────────────────────── ImportStudents ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（学号/姓名）")
	ErrImportBadFile     = errors.New("无法解析Excel文件")
)

// importRow 导入文件中的一行，Row 为 Excel 行号
type importRow struct {
	Row          int
	StudentID    string
	Name         string
	Phone        string
	BuildingName string
	RoomNumber   string
}

func (s *studentService) ImportStudents(ctx context.Context, r io.Reader) (*dto.ImportStudentsResponse, error) {
	rows, err := parseStudentImport(r)
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportStudentsResponse{
		Total:   len(rows),
		Skipped: []dto.ImportSkippedRow{},
	}
	skip := func(row importRow, reason string) {
		resp.Skipped = append(resp.Skipped, dto.ImportSkippedRow{
			Row: row.Row, StudentID: row.StudentID, Reason: reason,
		})
	}

	// 第一阶段：逐行校验，不写库
	var valid []*model.Student
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		switch {
		case row.StudentID == "":
			skip(row, "学号为空")
			continue
		case row.Name == "":
			skip(row, "姓名为空")
			continue
		case seen[row.StudentID]:
			skip(row, "文件内学号重复")
			continue
		case row.Phone != "" && !phonePattern.MatchString(row.Phone):
			skip(row, ErrInvalidPhone.Error())
			continue
		}
		seen[row.StudentID] = true

		_, err := s.repo.Student.GetByStudentID(ctx, row.StudentID)
		if err == nil {
			skip(row, ErrStudentExists.Error())
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询学号失败", zap.String("student_id", row.StudentID), zap.Error(err))
			return nil, err
		}

		st := &model.Student{StudentID: row.StudentID, Name: row.Name, Phone: row.Phone}
		if row.BuildingName != "" && row.RoomNumber != "" {
			dorm, err := s.repo.Dormitory.GetByBuildingRoom(ctx, row.BuildingName, row.RoomNumber)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("查询宿舍失败", zap.Error(err))
				return nil, err
			}
			if dorm != nil {
				st.DormitoryID = &dorm.ID
			}
		}
		valid = append(valid, st)
	}

	if len(valid) == 0 {
		return resp, nil
	}

	// 第二阶段：在事务中批量写入
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	for _, st := range valid {
		if err := txRepo.Student.Create(ctx, st); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("导入学生写入失败，事务回滚", zap.String("student_id", st.StudentID), zap.Error(err))
			return nil, fmt.Errorf("学号 %s 写入数据库失败，已回滚全部导入: %w", st.StudentID, err)
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	resp.Created = len(valid)
	s.logger.Info("批量导入学生完成",
		zap.Int("total", resp.Total), zap.Int("created", resp.Created), zap.Int("skipped", len(resp.Skipped)))
	return resp, nil
}

// parseStudentImport 解析导入文件的第一个工作表，表头列序不限
func parseStudentImport(r io.Reader) ([]importRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportBadFile, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportBadFile, err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseStudentHeader(excelRows[0])
	if col["student_id"] < 0 || col["name"] < 0 {
		return nil, ErrImportBadHeader
	}

	get := func(row []string, key string) string {
		if idx := col[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []importRow
	for i := 1; i < len(excelRows); i++ {
		item := importRow{
			Row:          i + 1,
			StudentID:    get(excelRows[i], "student_id"),
			Name:         get(excelRows[i], "name"),
			Phone:        get(excelRows[i], "phone"),
			BuildingName: get(excelRows[i], "building_name"),
			RoomNumber:   get(excelRows[i], "room_number"),
		}
		// 跳过全空行
		if item.StudentID == "" && item.Name == "" && item.Phone == "" &&
			item.BuildingName == "" && item.RoomNumber == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseStudentHeader 表头列名 -> 列索引，缺失为 -1
func parseStudentHeader(header []string) map[string]int {
	idx := map[string]int{
		"student_id":    -1,
		"name":          -1,
		"phone":         -1,
		"building_name": -1,
		"room_number":   -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "学号", "student_id":
			idx["student_id"] = i
		case "姓名", "name":
			idx["name"] = i
		case "手机号", "电话", "phone":
			idx["phone"] = i
		case "楼栋", "building_name":
			idx["building_name"] = i
		case "房间号", "room_number":
			idx["room_number"] = i
		}
	}
	return idx
}

// ── 辅助 ──

func (s *studentService) getStudent(ctx context.Context, id uint) (*model.Student, error) {
	st, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return st, nil
}

// ensureStudentIDFree excludeID 为当前学生自身（更新时）
func (s *studentService) ensureStudentIDFree(ctx context.Context, studentID string, excludeID uint) error {
	existing, err := s.repo.Student.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询学号失败", zap.String("student_id", studentID), zap.Error(err))
		return err
	}
	if existing.ID != excludeID {
		return ErrStudentExists
	}
	return nil
}

func (s *studentService) ensureUserLinkable(ctx context.Context, userID uint) error {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("user_id", userID), zap.Error(err))
		return err
	}
	linked, err := s.repo.Student.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询账号关联失败", zap.Uint("user_id", userID), zap.Error(err))
		return err
	}
	if linked != nil {
		return ErrUserAlreadyLinked
	}
	return nil
}

// resolveDormitory 宿舍不存在时返回 nil 而非错误
func (s *studentService) resolveDormitory(ctx context.Context, dormitoryID uint) (*uint, error) {
	dorm, err := s.repo.Dormitory.GetByID(ctx, dormitoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询宿舍失败", zap.Uint("dormitory_id", dormitoryID), zap.Error(err))
		return nil, err
	}
	return &dorm.ID, nil
}

// repairSummary 统计学生关联账号发起的工单，未关联账号时为零
func (s *studentService) repairSummary(ctx context.Context, st *model.Student) (dto.RepairSummary, error) {
	var summary dto.RepairSummary
	if st.UserID == nil {
		return summary, nil
	}

	total, err := s.repo.RepairOrder.CountByRequester(ctx, *st.UserID)
	if err != nil {
		s.logger.Error("统计学生工单失败", zap.Uint("student", st.ID), zap.Error(err))
		return summary, err
	}
	pending, err := s.repo.RepairOrder.CountByRequester(ctx, *st.UserID, model.StatusPending)
	if err != nil {
		s.logger.Error("统计学生待处理工单失败", zap.Uint("student", st.ID), zap.Error(err))
		return summary, err
	}
	summary.Total = total
	summary.Pending = pending
	return summary, nil
}
