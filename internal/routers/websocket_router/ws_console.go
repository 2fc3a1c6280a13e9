// Package websocket_router 提供 WebSocket 路由处理器
package websocket_router

import (
	"github.com/haierkeys/pd-clipper-service/internal/app"
	"github.com/haierkeys/pd-clipper-service/internal/dto"
	"github.com/haierkeys/pd-clipper-service/internal/service"
	pkgapp "github.com/haierkeys/pd-clipper-service/pkg/app"
	"github.com/haierkeys/pd-clipper-service/pkg/code"
)

// ConsoleWSHandler 控制台 WebSocket 处理器
// 既响应客户端的拉取动作，也作为导出进度的订阅者向全部连接广播
type ConsoleWSHandler struct {
	App *app.App
	wss *pkgapp.WebsocketServer
}

// NewConsoleWSHandler 创建 ConsoleWSHandler 实例并订阅导出事件
func NewConsoleWSHandler(a *app.App, wss *pkgapp.WebsocketServer) *ConsoleWSHandler {
	h := &ConsoleWSHandler{App: a, wss: wss}
	a.ExportService.Subscribe(h)
	return h
}

// ExportStatus 拉取当前导出状态快照
func (h *ConsoleWSHandler) ExportStatus(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	c.ToResponse(code.Success.Clone().WithData(h.App.ExportService.Status()), "ExportStatus")
}

// Board 拉取画板快照
func (h *ConsoleWSHandler) Board(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	topics, images := h.App.BoardService.Counts()
	snapshot := h.App.BoardService.Snapshot()

	selectedCount := 0
	for _, result := range snapshot {
		if result.Selected {
			selectedCount++
		}
	}

	c.ToResponse(code.Success.Clone().WithData(dto.BoardResponse{
		Topics:        snapshot,
		TopicCount:    topics,
		ImageCount:    images,
		SelectedCount: selectedCount,
		AllLoaded:     h.App.BoardService.AllLoaded(),
	}), "Board")
}

// OnProgress 导出进度推送（ExportObserver 实现）
func (h *ConsoleWSHandler) OnProgress(percent int) {
	h.wss.Broadcast("ExportProgress", map[string]int{"progress": percent})
}

// OnLog 导出日志推送（ExportObserver 实现）
func (h *ConsoleWSHandler) OnLog(entry service.LogEntry) {
	h.wss.Broadcast("ExportLog", entry)
}
