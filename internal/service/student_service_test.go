package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
)

func setupTestStudentService() (StudentService, *mockRepos) {
	m := setupMockRepos()
	return NewStudentService(m.repo, zap.NewNop()), m
}

// ── Create 测试 ──

func TestStudentService_Create_Success(t *testing.T) {
	svc, m := setupTestStudentService()
	d := seedTestDorm(t, m, "1号楼", "101", 1)

	result, err := svc.Create(context.Background(), &dto.CreateStudentRequest{
		StudentID:   "2024001",
		Name:        "张三",
		Phone:       "13800138000",
		DormitoryID: &d.ID,
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Dormitory == nil || result.Dormitory.ID != d.ID {
		t.Errorf("期望分配到宿舍 %d，实际=%+v", d.ID, result.Dormitory)
	}
}

func TestStudentService_Create_UnknownDormitoryIgnored(t *testing.T) {
	svc, _ := setupTestStudentService()

	result, err := svc.Create(context.Background(), &dto.CreateStudentRequest{
		StudentID:   "2024001",
		Name:        "张三",
		DormitoryID: uintPtr(999),
	})
	if err != nil {
		t.Fatalf("宿舍不存在时应忽略而非报错: %v", err)
	}
	if result.Dormitory != nil {
		t.Errorf("期望未分配宿舍，实际=%+v", result.Dormitory)
	}
}

func TestStudentService_Create_Duplicate(t *testing.T) {
	svc, _ := setupTestStudentService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "2024001", Name: "张三"}); err != nil {
		t.Fatalf("首次创建应成功: %v", err)
	}
	_, err := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "2024001", Name: "李四"})
	if !errors.Is(err, ErrStudentExists) {
		t.Errorf("期望 ErrStudentExists，实际: %v", err)
	}
}

func TestStudentService_Create_InvalidPhone(t *testing.T) {
	svc, _ := setupTestStudentService()

	_, err := svc.Create(context.Background(), &dto.CreateStudentRequest{StudentID: "1", Name: "张三", Phone: "12345"})
	if !errors.Is(err, ErrInvalidPhone) {
		t.Errorf("期望 ErrInvalidPhone，实际: %v", err)
	}
}

func TestStudentService_Create_UserLink(t *testing.T) {
	svc, m := setupTestStudentService()
	ctx := context.Background()
	u := seedTestUser(t, m, "alice", "secret123", true, false)

	if _, err := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "1", Name: "甲", UserID: uintPtr(999)}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
	if _, err := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "1", Name: "甲", UserID: &u.ID}); err != nil {
		t.Fatalf("关联账号应成功: %v", err)
	}
	if _, err := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "2", Name: "乙", UserID: &u.ID}); !errors.Is(err, ErrUserAlreadyLinked) {
		t.Errorf("期望 ErrUserAlreadyLinked，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestStudentService_Update_Partial(t *testing.T) {
	svc, m := setupTestStudentService()
	ctx := context.Background()
	d := seedTestDorm(t, m, "1号楼", "101", 1)
	created, _ := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "2024001", Name: "张三", Phone: "13800138000", DormitoryID: &d.ID})

	result, err := svc.Update(ctx, created.ID, &dto.UpdateStudentRequest{Name: strPtr("张三丰")})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != "张三丰" {
		t.Errorf("期望 name=张三丰，实际=%s", result.Name)
	}
	if result.Phone != "13800138000" || result.StudentID != "2024001" || result.Dormitory == nil {
		t.Errorf("未提供的字段不应改变: %+v", result)
	}
}

func TestStudentService_Update_Dormitory(t *testing.T) {
	svc, m := setupTestStudentService()
	ctx := context.Background()
	d := seedTestDorm(t, m, "1号楼", "101", 1)
	created, _ := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "2024001", Name: "张三", DormitoryID: &d.ID})

	// 不存在的宿舍：保持原值
	result, err := svc.Update(ctx, created.ID, &dto.UpdateStudentRequest{DormitoryID: uintPtr(999)})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Dormitory == nil || result.Dormitory.ID != d.ID {
		t.Error("指向不存在的宿舍时应保持原分配")
	}

	// 0 表示取消分配
	result, err = svc.Update(ctx, created.ID, &dto.UpdateStudentRequest{DormitoryID: uintPtr(0)})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Dormitory != nil {
		t.Error("dormitory_id=0 应取消分配")
	}
}

func TestStudentService_Update_StudentIDConflict(t *testing.T) {
	svc, _ := setupTestStudentService()
	ctx := context.Background()
	_, _ = svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "A", Name: "甲"})
	b, _ := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "B", Name: "乙"})

	if _, err := svc.Update(ctx, b.ID, &dto.UpdateStudentRequest{StudentID: strPtr("A")}); !errors.Is(err, ErrStudentExists) {
		t.Errorf("期望 ErrStudentExists，实际: %v", err)
	}
}

// ── Detail / Assign 测试 ──

func TestStudentService_GetByID_SummaryAndRoommates(t *testing.T) {
	svc, m := setupTestStudentService()
	ctx := context.Background()
	u := seedTestUser(t, m, "alice", "secret123", true, false)
	d := seedTestDorm(t, m, "1号楼", "101", 1)
	me, _ := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "1", Name: "甲", DormitoryID: &d.ID, UserID: &u.ID})
	_, _ = svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "2", Name: "乙", DormitoryID: &d.ID})
	seedTestOrder(t, m, u.ID, d.ID, model.StatusPending)
	seedTestOrder(t, m, u.ID, d.ID, model.StatusCompleted)

	result, err := svc.GetByID(ctx, me.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if result.RepairSummary.Total != 2 || result.RepairSummary.Pending != 1 {
		t.Errorf("报修汇总不匹配: %+v", result.RepairSummary)
	}
	if len(result.Roommates) != 1 || result.Roommates[0].Name != "乙" {
		t.Errorf("室友列表不匹配: %+v", result.Roommates)
	}
}

func TestStudentService_AssignAndUnassign(t *testing.T) {
	svc, m := setupTestStudentService()
	ctx := context.Background()
	d := seedTestDorm(t, m, "1号楼", "101", 1)
	st, _ := svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "1", Name: "甲"})

	if _, err := svc.AssignDormitory(ctx, st.ID, 999); !errors.Is(err, ErrDormitoryNotFound) {
		t.Errorf("期望 ErrDormitoryNotFound，实际: %v", err)
	}

	result, err := svc.AssignDormitory(ctx, st.ID, d.ID)
	if err != nil {
		t.Fatalf("AssignDormitory 应成功: %v", err)
	}
	if result.Dormitory == nil || result.Dormitory.ID != d.ID {
		t.Error("期望已分配宿舍")
	}

	result, err = svc.UnassignDormitory(ctx, st.ID)
	if err != nil {
		t.Fatalf("UnassignDormitory 应成功: %v", err)
	}
	if result.Dormitory != nil {
		t.Error("期望已取消宿舍分配")
	}

	stats, _ := svc.Statistics(ctx)
	if stats.Total != 1 || stats.WithoutDormitory != 1 {
		t.Errorf("统计不匹配: %+v", stats)
	}
}

// ── ImportStudents 测试 ──

func buildImportFile(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatalf("写入测试行失败: %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成测试文件失败: %v", err)
	}
	return buf
}

func TestStudentService_ImportStudents(t *testing.T) {
	svc, m := setupTestStudentService()
	ctx := context.Background()
	d := seedTestDorm(t, m, "1号楼", "101", 1)
	_, _ = svc.Create(ctx, &dto.CreateStudentRequest{StudentID: "EXIST", Name: "已有"})

	file := buildImportFile(t, [][]interface{}{
		{"学号", "姓名", "手机号", "楼栋", "房间号"},
		{"S1", "张三", "13800138000", "1号楼", "101"},
		{"S2", "李四", "", "", ""},
		{"S1", "重复", "", "", ""},
		{"", "无学号", "", "", ""},
		{"EXIST", "已存在", "", "", ""},
		{"S3", "王五", "123", "", ""},
	})

	resp, err := svc.ImportStudents(ctx, file)
	if err != nil {
		t.Fatalf("ImportStudents 应成功: %v", err)
	}
	if resp.Total != 6 {
		t.Errorf("期望 total=6，实际=%d", resp.Total)
	}
	if resp.Created != 2 {
		t.Errorf("期望 created=2，实际=%d", resp.Created)
	}
	if len(resp.Skipped) != 4 {
		t.Errorf("期望跳过 4 行，实际=%+v", resp.Skipped)
	}

	s1, err := m.students.GetByStudentID(ctx, "S1")
	if err != nil {
		t.Fatalf("S1 应已导入: %v", err)
	}
	if s1.DormitoryID == nil || *s1.DormitoryID != d.ID {
		t.Error("S1 应按楼栋房间号分配宿舍")
	}
}

func TestStudentService_ImportStudents_BadHeader(t *testing.T) {
	svc, _ := setupTestStudentService()

	file := buildImportFile(t, [][]interface{}{
		{"手机号", "楼栋"},
		{"13800138000", "1号楼"},
	})
	if _, err := svc.ImportStudents(context.Background(), file); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("期望 ErrImportBadHeader，实际: %v", err)
	}
}

func TestStudentService_ImportStudents_NotExcel(t *testing.T) {
	svc, _ := setupTestStudentService()

	_, err := svc.ImportStudents(context.Background(), bytes.NewBufferString("not an xlsx"))
	if !errors.Is(err, ErrImportBadFile) {
		t.Errorf("期望 ErrImportBadFile，实际: %v", err)
	}
}
