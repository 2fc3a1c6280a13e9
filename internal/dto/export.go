package dto

// ExportStartRequest 启动导出的请求参数
type ExportStartRequest struct {
	// Mode 导出模式：extracted（抠图）或 originals（原图）
	Mode string `json:"mode" form:"mode" binding:"required,oneof=extracted originals"`
}

// ExportStartedResponse 导出任务受理回执
type ExportStartedResponse struct {
	Mode  string `json:"mode"`
	State string `json:"state"`
}
