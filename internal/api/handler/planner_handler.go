package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/service"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/response"
)

// PlannerHandler 排课会话 HTTP 处理器
type PlannerHandler struct {
	plannerSvc service.PlannerService
}

// NewPlannerHandler 创建 PlannerHandler
func NewPlannerHandler(plannerSvc service.PlannerService) *PlannerHandler {
	return &PlannerHandler{plannerSvc: plannerSvc}
}

// CreateSession 创建排课会话
// POST /api/v1/sessions
func (h *PlannerHandler) CreateSession(c *gin.Context) {
	sess, err := h.plannerSvc.CreateSession(c.Request.Context())
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.Created(c, sess)
}

// GetSession 会话全貌（课表、学分、网格、提示）
// GET /api/v1/sessions/:id
func (h *PlannerHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	sess, err := h.plannerSvc.GetSession(c.Request.Context(), id)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, sess)
}

// SelectCourse 选择课程
// PUT /api/v1/sessions/:id/selection
func (h *PlannerHandler) SelectCourse(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req dto.SelectCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sel, err := h.plannerSvc.SelectCourse(c.Request.Context(), id, &req)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, sel)
}

// AssociatedSections 与已选讲座匹配的实验/辅导
// GET /api/v1/sessions/:id/associated
func (h *PlannerHandler) AssociatedSections(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	resp, err := h.plannerSvc.AssociatedSections(c.Request.Context(), id)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, resp)
}

// AddEntry 将教学班加入课表；冲突或重复返回 409 并附原因
// POST /api/v1/sessions/:id/entries
func (h *PlannerHandler) AddEntry(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req dto.AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.plannerSvc.AddSection(c.Request.Context(), id, req.Label)
	switch {
	case err == nil:
		response.OK(c, resp)
	case errors.Is(err, planner.ErrConflict):
		response.Rejected(c, 20206, resp.Reason, resp)
	case errors.Is(err, planner.ErrDuplicate):
		response.Rejected(c, 20207, resp.Reason, resp)
	default:
		handlePlannerError(c, err)
	}
}

// RemoveEntry 删除条目；不存在时 outcome=not_found
// DELETE /api/v1/sessions/:id/entries?course=CMPT%20120&label=D100
func (h *PlannerHandler) RemoveEntry(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var q dto.RemoveEntryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.plannerSvc.RemoveSection(c.Request.Context(), id, q.Course, q.Label)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, resp)
}

// ClearSchedule 清空课表
// POST /api/v1/sessions/:id/clear
func (h *PlannerHandler) ClearSchedule(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req dto.ClearScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.plannerSvc.ClearSchedule(c.Request.Context(), id, req.Confirm)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, resp)
}

// ValidateSchedule 列出课表内冲突
// GET /api/v1/sessions/:id/conflicts
func (h *PlannerHandler) ValidateSchedule(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	pairs, err := h.plannerSvc.ValidateSchedule(c.Request.Context(), id)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, gin.H{"list": pairs})
}

// handlePlannerError 将排课会话错误映射为 HTTP 响应
func handlePlannerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20201, "排课会话不存在或已过期")
	case errors.Is(err, service.ErrNoSelection):
		response.BadRequest(c, 20202, "请先选择课程")
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 20203, "所选课程中不存在该教学班")
	case errors.Is(err, service.ErrStaleSelection):
		response.Rejected(c, 20204, "课程选择已被更新的请求取代", nil)
	case errors.Is(err, service.ErrClearNotConfirmed):
		response.BadRequest(c, 20205, "清空课表需要确认")
	case errors.Is(err, catalog.ErrInvalidTerm):
		response.BadRequest(c, 20101, "学期参数无效")
	default:
		response.InternalError(c)
	}
}
