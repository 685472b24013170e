package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/service"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// Export 下载课表
// GET /api/v1/sessions/:id/export?format=ics|xlsx
func (h *ExportHandler) Export(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "format 仅支持 ics / xlsx")
		return
	}

	var (
		file *service.ExportFile
		err  error
	)
	if q.Format == service.FormatICS {
		file, err = h.exportSvc.ExportICS(c.Request.Context(), id)
	} else {
		file, err = h.exportSvc.ExportExcel(c.Request.Context(), id)
	}
	if err != nil {
		handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(file.FileName)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, file.ContentType, file.Data.Bytes())
}

// Share 上传导出文件并返回下载链接
// POST /api/v1/sessions/:id/share?format=ics|xlsx
func (h *ExportHandler) Share(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "format 仅支持 ics / xlsx")
		return
	}

	resp, err := h.exportSvc.Share(c.Request.Context(), id, q.Format)
	if err != nil {
		handleExportError(c, err)
		return
	}
	response.OK(c, resp)
}

func handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20201, "排课会话不存在或已过期")
	case errors.Is(err, service.ErrExportEmpty):
		response.BadRequest(c, 20401, "课表为空，无可导出内容")
	case errors.Is(err, service.ErrExportFormatUnknown):
		response.BadRequest(c, 20402, "不支持的导出格式")
	case errors.Is(err, service.ErrStorageDisabled):
		response.Error(c, http.StatusServiceUnavailable, 20403, "未启用对象存储，无法生成分享链接")
	default:
		response.InternalError(c)
	}
}
