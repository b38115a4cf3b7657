package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/service"
	"dorm-repair/pkg/response"
)

// StudentHandler 学生模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ListStudents 学生列表
// GET /api/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	students, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, students, total, req.GetPage(), req.GetPageSize(service.DefaultStudentPageSize))
}

// GetStudent 学生详情
// GET /api/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// CreateStudent 创建学生
// POST /api/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Created(c, "学生创建成功", student)
}

// UpdateStudent 更新学生
// PUT /api/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// DeleteStudent 删除学生
// DELETE /api/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OKMessage(c, "学生已删除", nil)
}

// AssignDormitory 分配宿舍
// POST /api/students/:id/assign-dormitory
func (h *StudentHandler) AssignDormitory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.AssignDormitoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	student, err := h.studentSvc.AssignDormitory(c.Request.Context(), id, req.DormitoryID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OKMessage(c, "宿舍分配成功", student)
}

// UnassignDormitory 取消宿舍分配
// POST /api/students/:id/unassign-dormitory
func (h *StudentHandler) UnassignDormitory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.UnassignDormitory(c.Request.Context(), id)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OKMessage(c, "已取消宿舍分配", student)
}

// Statistics 学生统计
// GET /api/students/statistics
func (h *StudentHandler) Statistics(c *gin.Context) {
	stats, err := h.studentSvc.Statistics(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// BatchImport 通过 Excel 批量导入学生
// POST /api/students/batch-import (multipart, 字段名 file)
func (h *StudentHandler) BatchImport(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请上传 Excel 文件")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 13010, "无法读取上传文件")
		return
	}
	defer f.Close()

	result, err := h.studentSvc.ImportStudents(c.Request.Context(), f)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OKMessage(c, "导入完成", result)
}

// handleStudentError 统一处理学生模块业务错误
func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13001, err.Error())
	case errors.Is(err, service.ErrStudentExists):
		response.Conflict(c, 13002, err.Error())
	case errors.Is(err, service.ErrStudentFieldsBlank):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrInvalidPhone):
		response.BadRequest(c, 13004, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 13005, err.Error())
	case errors.Is(err, service.ErrUserAlreadyLinked):
		response.Conflict(c, 13006, err.Error())
	case errors.Is(err, service.ErrDormitoryNotFound):
		response.NotFound(c, 13007, err.Error())
	case errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportTooManyRows),
		errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 13008, err.Error())
	case errors.Is(err, service.ErrImportBadFile):
		response.BadRequest(c, 13009, service.ErrImportBadFile.Error())
	default:
		response.InternalError(c)
	}
}
