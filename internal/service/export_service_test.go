package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
)

func setupTestExportService() (ExportService, *mockRepos) {
	m := setupMockRepos()
	return NewExportService(m.repo, zap.NewNop()), m
}

func TestExportService_ExportRepairOrders(t *testing.T) {
	svc, m := setupTestExportService()
	u := seedTestUser(t, m, "alice", "secret123", true, false)
	d := seedTestDorm(t, m, "1号楼", "101", 1)
	seedTestOrder(t, m, u.ID, d.ID, model.StatusPending)
	seedTestOrder(t, m, u.ID, d.ID, model.StatusCompleted)

	buf, filename, err := svc.ExportRepairOrders(context.Background(), &dto.RepairOrderListRequest{})
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾，实际=%s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出内容应为合法 Excel: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("报修工单")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行数据，实际=%d 行", len(rows))
	}
	if rows[0][0] != "工单号" || len(rows[0]) != len(exportHeaders) {
		t.Errorf("表头不匹配: %v", rows[0])
	}

	statuses := map[string]bool{rows[1][5]: true, rows[2][5]: true}
	if !statuses["待处理"] || !statuses["已完成"] {
		t.Errorf("状态列应输出中文标签，实际=%v", statuses)
	}
	if rows[1][7] != "1号楼-101" {
		t.Errorf("宿舍列不匹配: %s", rows[1][7])
	}
}

func TestExportService_ExportRepairOrders_Filtered(t *testing.T) {
	svc, m := setupTestExportService()
	u := seedTestUser(t, m, "alice", "secret123", true, false)
	d := seedTestDorm(t, m, "1号楼", "101", 1)
	seedTestOrder(t, m, u.ID, d.ID, model.StatusPending)
	seedTestOrder(t, m, u.ID, d.ID, model.StatusCompleted)

	buf, _, err := svc.ExportRepairOrders(context.Background(), &dto.RepairOrderListRequest{Status: model.StatusCompleted})
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出内容应为合法 Excel: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("报修工单")
	if len(rows) != 2 {
		t.Errorf("筛选后期望 1 行数据，实际=%d", len(rows)-1)
	}
}

func TestExportService_ExportRepairOrders_InvalidFilter(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportRepairOrders(context.Background(), &dto.RepairOrderListRequest{Priority: "asap"})
	if !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("期望 ErrInvalidPriority，实际: %v", err)
	}
}
