package api_router

import (
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/app"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string  `json:"status"`  // "healthy" 或 "shutting-down"
	Version string  `json:"version"` // 服务版本号
	Uptime  float64 `json:"uptime"`  // 运行时间（秒）
	Topics  int     `json:"topics"`  // 当前主题数
}

// Check 健康检查接口
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	topics, _ := h.App.BoardService.Counts()

	response := HealthResponse{
		Status:  "healthy",
		Version: h.App.Version().Version,
		Uptime:  time.Since(h.App.StartTime).Seconds(),
		Topics:  topics,
	}
	if h.App.IsShuttingDown() {
		response.Status = "shutting-down"
	}

	c.JSON(200, response)
}
