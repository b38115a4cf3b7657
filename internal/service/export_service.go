package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
	"dorm-repair/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// maxExportRows 单次导出的最大工单数
const maxExportRows = 10000

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportRepairOrders 按列表筛选条件导出工单（不分页）
	ExportRepairOrders(ctx context.Context, req *dto.RepairOrderListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRepairOrders — 导出工单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单个 Sheet "报修工单"，第 1 行为表头，之后每行一个工单，
// 枚举列输出中文标签。

var exportHeaders = []string{
	"工单号", "标题", "描述", "故障类型", "优先级", "状态",
	"报修人", "宿舍", "维修说明", "评分", "评价", "创建时间", "完成时间",
}

func (s *exportService) ExportRepairOrders(ctx context.Context, req *dto.RepairOrderListRequest) (*bytes.Buffer, string, error) {
	filter, err := buildRepairOrderFilter(req)
	if err != nil {
		return nil, "", err
	}
	filter.Limit = maxExportRows

	orders, total, err := s.repo.RepairOrder.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询导出工单失败", zap.Error(err))
		return nil, "", err
	}
	if total > maxExportRows {
		s.logger.Warn("导出工单数超过上限，已截断", zap.Int64("total", total), zap.Int("limit", maxExportRows))
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "报修工单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range exportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)
	f.SetColWidth(sheetName, "A", "A", 22)
	f.SetColWidth(sheetName, "B", "C", 30)
	f.SetColWidth(sheetName, "D", "I", 14)
	f.SetColWidth(sheetName, "L", "M", 20)

	for i := range orders {
		o := &orders[i]
		row := i + 2

		requester, dorm, rating, completed := "", "", "", ""
		if o.Requester != nil {
			requester = o.Requester.DisplayName()
		}
		if o.Dormitory != nil {
			dorm = o.Dormitory.DisplayName()
		}
		if o.Rating != nil {
			rating = fmt.Sprintf("%d", *o.Rating)
		}
		if o.CompletedAt != nil {
			completed = o.CompletedAt.Format("2006-01-02 15:04:05")
		}

		values := []interface{}{
			o.OrderNumber,
			o.Title,
			o.Description,
			model.ChoiceLabel(model.FaultTypeChoices, o.FaultType),
			model.ChoiceLabel(model.PriorityChoices, o.Priority),
			model.ChoiceLabel(model.StatusChoices, o.Status),
			requester,
			dorm,
			o.RepairNotes,
			rating,
			o.Comment,
			o.CreatedAt.Format("2006-01-02 15:04:05"),
			completed,
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("报修工单_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf, filename, nil
}

// ── 辅助函数 ──

// colName 0 起始的列序号转列名（0 -> A）
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
