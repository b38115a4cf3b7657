package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dorm-repair/internal/model"
)

func setupTestSystemService() (SystemService, *mockRepos) {
	m := setupMockRepos()
	return NewSystemService(testConfig(), m.repo, zap.NewNop()), m
}

func TestSystemService_Health(t *testing.T) {
	svc, _ := setupTestSystemService()

	h := svc.Health()
	if h.Server != "running" || h.Version != AppVersion || h.App != AppName {
		t.Errorf("健康检查内容不匹配: %+v", h)
	}
	if h.Timestamp == "" {
		t.Error("timestamp 不应为空")
	}
}

func TestSystemService_Info(t *testing.T) {
	svc, m := setupTestSystemService()
	u := seedTestUser(t, m, "alice", "secret123", true, false)
	d := seedTestDorm(t, m, "1号楼", "101", 1)
	seedTestOrder(t, m, u.ID, d.ID, model.StatusPending)
	seedTestOrder(t, m, u.ID, d.ID, model.StatusPending)
	seedTestOrder(t, m, u.ID, d.ID, model.StatusCompleted)

	info, err := svc.Info(context.Background())
	if err != nil {
		t.Fatalf("Info 应成功: %v", err)
	}
	s := info.Statistics
	if s.TotalOrders != 3 || s.PendingOrders != 2 || s.CompletedOrders != 1 {
		t.Errorf("工单统计不匹配: %+v", s)
	}
	if s.TotalDormitories != 1 || s.TotalUsers != 1 || s.TotalStudents != 0 {
		t.Errorf("概况统计不匹配: %+v", s)
	}
	if info.System.Name != AppName || info.System.Backend != AppBackend {
		t.Errorf("系统元信息不匹配: %+v", info.System)
	}
}

func TestSystemService_Choices(t *testing.T) {
	svc, _ := setupTestSystemService()

	choices, err := svc.Choices("status")
	if err != nil {
		t.Fatalf("Choices 应成功: %v", err)
	}
	if len(choices) != 4 || choices[0].Value != model.StatusPending {
		t.Errorf("状态选项不匹配: %+v", choices)
	}

	if _, err := svc.Choices("colour"); !errors.Is(err, ErrUnknownChoiceType) {
		t.Errorf("期望 ErrUnknownChoiceType，实际: %v", err)
	}
}
