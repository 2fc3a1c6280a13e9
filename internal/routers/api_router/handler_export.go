package api_router

import (
	"github.com/haierkeys/pd-clipper-service/internal/app"
	"github.com/haierkeys/pd-clipper-service/internal/dto"
	"github.com/haierkeys/pd-clipper-service/internal/service"
	pkgapp "github.com/haierkeys/pd-clipper-service/pkg/app"
	"github.com/haierkeys/pd-clipper-service/pkg/code"
	apperrors "github.com/haierkeys/pd-clipper-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportHandler 批量导出 API 路由处理器
type ExportHandler struct {
	*Handler
}

// NewExportHandler 创建 ExportHandler 实例
func NewExportHandler(a *app.App) *ExportHandler {
	return &ExportHandler{Handler: NewHandler(a)}
}

// Start 启动批量导出
// @Summary 启动导出
// @Description 异步受理；同一时间只允许一次导出
// @Tags 导出
// @Accept json
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.ExportStartedResponse}
// @Router /api/export [post]
func (h *ExportHandler) Start(c *gin.Context) {
	params := &dto.ExportStartRequest{}
	response := pkgapp.NewResponse(c)

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("apiRouter.Export.Start.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	if err := h.App.ExportService.Start(service.ExportMode(params.Mode)); err != nil {
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessAccept.WithData(dto.ExportStartedResponse{
		Mode:  params.Mode,
		State: "running",
	}))
}

// Status 获取导出状态快照
// @Summary 导出状态
// @Tags 导出
// @Produce json
// @Success 200 {object} pkgapp.Res{data=service.ExportStatus}
// @Router /api/export/status [get]
func (h *ExportHandler) Status(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	response.ToResponse(code.Success.WithData(h.App.ExportService.Status()))
}

// Download 下载导出压缩包
// @Summary 下载压缩包
// @Description 只允许下载导出目录内的文件
// @Tags 导出
// @Produce application/zip
// @Router /api/export/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	filename := c.Query("file")

	target, err := h.App.ExportService.ArchivePath(filename)
	if err != nil {
		apperrors.ErrorResponse(c, err)
		return
	}

	c.FileAttachment(target, filename)
}
