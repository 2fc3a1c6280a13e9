package api_router

import (
	"strings"

	"github.com/haierkeys/pd-clipper-service/internal/app"
	"github.com/haierkeys/pd-clipper-service/internal/domain"
	"github.com/haierkeys/pd-clipper-service/internal/dto"
	pkgapp "github.com/haierkeys/pd-clipper-service/pkg/app"
	"github.com/haierkeys/pd-clipper-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BoardHandler 画板与主题 API 路由处理器
// 使用 App Container 注入依赖
type BoardHandler struct {
	*Handler
}

// NewBoardHandler 创建 BoardHandler 实例
func NewBoardHandler(a *app.App, wss *pkgapp.WebsocketServer) *BoardHandler {
	return &BoardHandler{Handler: NewHandlerWithWSS(a, wss)}
}

// Search 新增主题并异步检索图片
// @Summary 新增主题
// @Description 提交主题短语，立即返回 loading 主题，检索结果通过 WebSocket 推送
// @Tags 画板
// @Accept json
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.TopicAcceptedResponse}
// @Router /api/topic [post]
func (h *BoardHandler) Search(c *gin.Context) {
	params := &dto.TopicSearchRequest{}
	response := pkgapp.NewResponse(c)

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("apiRouter.Board.Search.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	name := strings.TrimSpace(params.Topic)
	if name == "" {
		response.ToResponse(code.ErrorTopicEmptyName)
		return
	}

	enabled, err := domain.ParseSourceSet(params.Sources)
	if err != nil {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	topic, err := h.App.SearchTopic(name, enabled, params.PerSourceLimit, func(done domain.Topic) {
		h.broadcast("TopicResolved", done)
	})
	if err != nil {
		h.App.Logger().Error("apiRouter.Board.Search dispatch err", zap.Error(err))
		response.ToResponse(code.ErrorSearchDispatchFailure.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.SuccessAccept.WithData(dto.TopicAcceptedResponse{
		ID:    topic.ID,
		Name:  topic.Name,
		State: string(topic.Status),
	}))
}

// Board 获取画板快照
// @Summary 获取画板快照
// @Description 返回全部主题、选中状态与统计信息
// @Tags 画板
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.BoardResponse}
// @Router /api/board [get]
func (h *BoardHandler) Board(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	topics, images := h.App.BoardService.Counts()

	snapshot := h.App.BoardService.Snapshot()
	selectedCount := 0
	for _, result := range snapshot {
		if result.Selected {
			selectedCount++
		}
	}

	response.ToResponse(code.Success.WithData(dto.BoardResponse{
		Topics:        snapshot,
		TopicCount:    topics,
		ImageCount:    images,
		SelectedCount: selectedCount,
		AllLoaded:     h.App.BoardService.AllLoaded(),
	}))
}

// Remove 永久移除主题
// @Summary 移除主题
// @Tags 画板
// @Produce json
// @Success 200 {object} pkgapp.Res
// @Router /api/topic [delete]
func (h *BoardHandler) Remove(c *gin.Context) {
	params := &dto.TopicRemoveRequest{}
	response := pkgapp.NewResponse(c)

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	if !h.App.BoardService.RemoveTopic(params.ID) {
		response.ToResponse(code.ErrorTopicNotFound)
		return
	}

	h.broadcast("TopicRemoved", gin.H{"id": params.ID})
	response.ToResponse(code.SuccessDelete)
}

// Select 切换主题选中状态
// @Summary 切换主题选中状态
// @Description 单个主题或全量批量切换
// @Tags 画板
// @Accept json
// @Produce json
// @Success 200 {object} pkgapp.Res
// @Router /api/topic/select [post]
func (h *BoardHandler) Select(c *gin.Context) {
	params := &dto.TopicSelectRequest{}
	response := pkgapp.NewResponse(c)

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	if params.All {
		h.App.BoardService.SetAllSelected(*params.Selected)
		response.ToResponse(code.SuccessUpdate)
		return
	}

	if params.ID == "" {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("id is required when all is false"))
		return
	}

	if !h.App.BoardService.SetSelected(params.ID, *params.Selected) {
		response.ToResponse(code.ErrorTopicNotFound)
		return
	}

	response.ToResponse(code.SuccessUpdate)
}
