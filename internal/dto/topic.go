// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

// TopicSearchRequest 新增主题的请求参数
type TopicSearchRequest struct {
	// Topic 用户输入的主题短语
	Topic string `json:"topic" form:"topic" binding:"required,max=200"`
	// Sources 限定的图源名称，留空表示全部图源
	Sources []string `json:"sources" form:"sources" binding:"omitempty,dive,sourcename"`
	// PerSourceLimit 每个图源的目标数量
	PerSourceLimit int `json:"perSourceLimit" form:"perSourceLimit" binding:"omitempty,min=1,max=10"`
}

// TopicRemoveRequest 移除主题的请求参数
type TopicRemoveRequest struct {
	ID string `json:"id" form:"id" binding:"required"`
}

// TopicSelectRequest 切换主题勾选状态的请求参数
// All 为 true 时忽略 ID，批量设置所有主题
type TopicSelectRequest struct {
	ID       string `json:"id" form:"id"`
	All      bool   `json:"all" form:"all"`
	Selected *bool  `json:"selected" form:"selected" binding:"required"`
}

// TopicAcceptedResponse 异步受理后的回执
type TopicAcceptedResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// BoardResponse 看板快照
type BoardResponse struct {
	Topics        []domain.TopicResult `json:"topics"`
	TopicCount    int                  `json:"topicCount"`
	ImageCount    int                  `json:"imageCount"`
	SelectedCount int                  `json:"selectedCount"`
	AllLoaded     bool                 `json:"allLoaded"`
}
