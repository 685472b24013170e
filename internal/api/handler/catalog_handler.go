package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/service"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/response"
)

// CatalogHandler 课程目录 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

type coursePath struct {
	Dept   string `uri:"dept" binding:"required,alphanum,max=8"`
	Number string `uri:"number" binding:"omitempty,alphanum,max=8"`
}

// ListDepartments 院系列表
// GET /api/v1/catalog/departments?year=2025&term=fall
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	var q dto.TermQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	depts, err := h.catalogSvc.ListDepartments(c.Request.Context(), &q)
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": depts})
}

// ListCourses 院系课程列表
// GET /api/v1/catalog/departments/:dept/courses?year=2025&term=fall
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	var path coursePath
	var q dto.TermQuery
	if err := c.ShouldBindUri(&path); err != nil {
		response.BadRequest(c, 10001, "院系代码无效")
		return
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	courses, err := h.catalogSvc.ListCourses(c.Request.Context(), &q, path.Dept)
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": courses})
}

// ListSections 课程全部教学班（含时间块）
// GET /api/v1/catalog/departments/:dept/courses/:number/sections?year=2025&term=fall
func (h *CatalogHandler) ListSections(c *gin.Context) {
	var path coursePath
	var q dto.TermQuery
	if err := c.ShouldBindUri(&path); err != nil || path.Number == "" {
		response.BadRequest(c, 10001, "课程代码无效")
		return
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sections, err := h.catalogSvc.ListSections(c.Request.Context(), &q, path.Dept, path.Number)
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, sections)
}

func handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidTerm):
		response.BadRequest(c, 20101, "学期参数无效")
	case errors.Is(err, catalog.ErrCatalogFetch):
		response.Error(c, http.StatusBadGateway, 20102, "课程目录暂不可用，请稍后重试")
	default:
		response.InternalError(c)
	}
}
