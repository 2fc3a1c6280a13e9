package dto

// ImageExtractRequest 抠图请求参数，按主题与图片地址定位目标
type ImageExtractRequest struct {
	TopicID string `json:"topicId" form:"topicId" binding:"required"`
	URL     string `json:"url" form:"url" binding:"required,url"`
}

// ImageExtractAcceptedResponse 抠图异步受理回执
type ImageExtractAcceptedResponse struct {
	TopicID string `json:"topicId"`
	URL     string `json:"url"`
	State   string `json:"state"`
}
