package code

// 通用成功码
var (
	Success       = NewSuss(200, lang{en: "Success", zh_cn: "成功"})
	SuccessCreate = NewSuss(201, lang{en: "Create Success", zh_cn: "创建成功"})
	SuccessUpdate = NewSuss(202, lang{en: "Update Success", zh_cn: "更新成功"})
	SuccessDelete = NewSuss(203, lang{en: "Delete Success", zh_cn: "删除成功"})
	SuccessAccept = NewSuss(204, lang{en: "Task Accepted", zh_cn: "任务已受理"})
)

// 通用错误码
var (
	Failed               = NewError(400, lang{en: "Failed", zh_cn: "失败"})
	ErrorInvalidParams   = NewError(401, lang{en: "Invalid request parameters", zh_cn: "请求参数错误"})
	ErrorNotFoundAPI     = NewError(404, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequests = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorServerInternal  = NewError(500, lang{en: "Server internal error", zh_cn: "服务内部错误"})
)

// 业务错误码 10xx 画板与主题
var (
	ErrorTopicNotFound  = NewError(1001, lang{en: "Topic not found", zh_cn: "主题不存在"})
	ErrorTopicEmptyName = NewError(1002, lang{en: "Topic name is empty", zh_cn: "主题名称为空"})
	ErrorImageNotFound  = NewError(1003, lang{en: "Image not found", zh_cn: "图片不存在"})
)

// 业务错误码 11xx 抠图与导出
var (
	ErrorExtractFailed         = NewError(1101, lang{en: "Subject extraction failed", zh_cn: "主体抠图失败"})
	ErrorExtractBusy           = NewError(1102, lang{en: "Extraction already in progress for this image", zh_cn: "该图片抠图进行中"})
	ErrorExportRunning         = NewError(1103, lang{en: "An export is already running", zh_cn: "已有导出任务在执行"})
	ErrorExportEmptySelection  = NewError(1104, lang{en: "No topics selected for export", zh_cn: "未选择任何导出主题"})
	ErrorExportArchive         = NewError(1105, lang{en: "Archive generation failed", zh_cn: "压缩包生成失败"})
	ErrorArchiveNotFound       = NewError(1106, lang{en: "Archive file not found", zh_cn: "压缩包不存在"})
	ErrorExportInvalidMode     = NewError(1107, lang{en: "Unknown export mode", zh_cn: "未知的导出模式"})
	ErrorSearchDispatchFailure = NewError(1108, lang{en: "Search task could not be scheduled", zh_cn: "搜索任务无法调度"})
)
