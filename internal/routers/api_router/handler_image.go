package api_router

import (
	"context"

	"github.com/haierkeys/pd-clipper-service/internal/app"
	"github.com/haierkeys/pd-clipper-service/internal/dto"
	"github.com/haierkeys/pd-clipper-service/internal/service"
	pkgapp "github.com/haierkeys/pd-clipper-service/pkg/app"
	"github.com/haierkeys/pd-clipper-service/pkg/code"
	"github.com/haierkeys/pd-clipper-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageHandler 单图抠图 API 路由处理器
type ImageHandler struct {
	*Handler
}

// NewImageHandler 创建 ImageHandler 实例
func NewImageHandler(a *app.App, wss *pkgapp.WebsocketServer) *ImageHandler {
	return &ImageHandler{Handler: NewHandlerWithWSS(a, wss)}
}

// Extract 对单张图片执行主体抠图
// @Summary 单图抠图
// @Description 异步受理，完成后通过 WebSocket 推送 ImageExtracted / ImageExtractFailed
// @Tags 图片
// @Accept json
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.ImageExtractAcceptedResponse}
// @Router /api/image/extract [post]
func (h *ImageHandler) Extract(c *gin.Context) {
	params := &dto.ImageExtractRequest{}
	response := pkgapp.NewResponse(c)

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("apiRouter.Image.Extract.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	// 检查与标记必须是一次原子操作，并发的重复请求只放行一个
	found, started := h.App.BoardService.BeginExtract(params.TopicID, params.URL)
	if !found {
		response.ToResponse(code.ErrorImageNotFound)
		return
	}
	if !started {
		response.ToResponse(code.ErrorExtractBusy)
		return
	}

	topicID, imageURL := params.TopicID, params.URL
	err := h.App.SubmitTaskAsync(context.Background(), func(ctx context.Context) error {
		dataURL, err := h.App.ExtractService.RemoveBackground(ctx, imageURL)

		done := false
		if err != nil {
			h.App.BoardService.UpdateImage(topicID, imageURL, service.ImagePatch{IsExtracting: &done})
			h.App.Logger().Warn("image extraction failed",
				zap.String(logger.FieldTopicID, topicID),
				zap.String(logger.FieldURL, imageURL),
				zap.Error(err))
			h.broadcast("ImageExtractFailed", gin.H{
				"topicId": topicID,
				"url":     imageURL,
				"error":   err.Error(),
			})
			return nil
		}

		h.App.BoardService.UpdateImage(topicID, imageURL, service.ImagePatch{
			ExtractedURL: &dataURL,
			IsExtracting: &done,
		})
		h.broadcast("ImageExtracted", gin.H{
			"topicId":      topicID,
			"url":          imageURL,
			"extractedUrl": dataURL,
		})
		return nil
	})
	if err != nil {
		done := false
		h.App.BoardService.UpdateImage(params.TopicID, params.URL, service.ImagePatch{IsExtracting: &done})
		response.ToResponse(code.ErrorExtractFailed.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.SuccessAccept.WithData(dto.ImageExtractAcceptedResponse{
		TopicID: params.TopicID,
		URL:     params.URL,
		State:   "extracting",
	}))
}
