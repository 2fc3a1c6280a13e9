package domain

// TopicStatus 主题加载状态
type TopicStatus string

const (
	TopicLoading TopicStatus = "loading"
	TopicSuccess TopicStatus = "success"
	TopicError   TopicStatus = "error"
)

// Topic 一次检索产生的主题及其图片集
type Topic struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      TopicStatus   `json:"status"`
	Images      []ImageRecord `json:"images"`
}

// TopicResult 画板快照中的一个条目：主题加上它的选中状态
type TopicResult struct {
	Topic    Topic `json:"topic"`
	Selected bool  `json:"selected"`
}
