package api_router

import (
	"github.com/haierkeys/pd-clipper-service/internal/app"
	pkgapp "github.com/haierkeys/pd-clipper-service/pkg/app"
	"github.com/haierkeys/pd-clipper-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionHandler 版本信息 API 路由处理器
type VersionHandler struct {
	*Handler
}

// NewVersionHandler 创建 VersionHandler 实例
func NewVersionHandler(a *app.App) *VersionHandler {
	return &VersionHandler{Handler: NewHandler(a)}
}

// ServerVersion 返回服务端版本信息
// @Summary 获取服务端版本信息
// @Description 返回服务端的版本号、Git标签和构建时间
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=pkgapp.VersionInfo}
// @Router /api/version [get]
func (h *VersionHandler) ServerVersion(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	response.ToResponse(code.Success.WithData(h.App.Version()))
}
