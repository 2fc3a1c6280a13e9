package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldSource 图片来源字段
	FieldSource = "source"

	// FieldTopic 主题名称字段
	FieldTopic = "topic"

	// FieldTopicID 主题 ID 字段
	FieldTopicID = "topicId"

	// FieldURL 图片地址字段
	FieldURL = "url"

	// FieldQuery 检索短语字段
	FieldQuery = "query"

	// FieldMode 导出模式字段
	FieldMode = "mode"

	// FieldArchive 压缩包名称字段
	FieldArchive = "archive"

	// FieldAttempt 重试次数字段
	FieldAttempt = "attempt"

	// FieldDuration 耗时字段
	FieldDuration = "duration"
)
