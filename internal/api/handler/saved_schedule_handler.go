package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/service"
	pkgerrors "github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/errors"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/response"
)

// SavedScheduleHandler 保存课表 HTTP 处理器（需登录）
type SavedScheduleHandler struct {
	savedSvc service.SavedScheduleService
}

// NewSavedScheduleHandler 创建 SavedScheduleHandler
func NewSavedScheduleHandler(savedSvc service.SavedScheduleService) *SavedScheduleHandler {
	return &SavedScheduleHandler{savedSvc: savedSvc}
}

// Save 保存会话课表
// POST /api/v1/sessions/:id/save
func (h *SavedScheduleHandler) Save(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.savedSvc.Save(c.Request.Context(), userID, id, &req)
	if err != nil {
		handleSavedScheduleError(c, err)
		return
	}
	response.OK(c, resp)
}

// Load 载入已保存课表到会话
// POST /api/v1/sessions/:id/load
func (h *SavedScheduleHandler) Load(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.LoadScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.savedSvc.Load(c.Request.Context(), userID, id, &req)
	if err != nil {
		handleSavedScheduleError(c, err)
		return
	}
	response.OK(c, resp)
}

// List 当前用户的已保存课表
// GET /api/v1/saved-schedules
func (h *SavedScheduleHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	list, err := h.savedSvc.List(c.Request.Context(), userID)
	if err != nil {
		handleSavedScheduleError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Delete 删除某学期的已保存课表
// DELETE /api/v1/saved-schedules?year=2025&term=fall
func (h *SavedScheduleHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var q dto.TermQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.savedSvc.Delete(c.Request.Context(), userID, &q); err != nil {
		handleSavedScheduleError(c, err)
		return
	}
	response.OK(c, nil)
}

func handleSavedScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSavedScheduleNotFound):
		response.NotFound(c, 20301, "该学期没有已保存的课表")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Rejected(c, 20302, "课表已在其他地方更新，请刷新后重试", nil)
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20201, "排课会话不存在或已过期")
	case errors.Is(err, catalog.ErrInvalidTerm):
		response.BadRequest(c, 20101, "学期参数无效")
	default:
		response.InternalError(c)
	}
}
