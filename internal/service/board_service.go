package service

import (
	"sync"

	"github.com/haierkeys/pd-clipper-service/internal/domain"

	"github.com/google/uuid"
)

// ImagePatch 图片覆盖字段的最小差异更新
// nil 字段表示不修改
type ImagePatch struct {
	ExtractedURL *string
	IsExtracting *bool
}

// BoardService 会话期画板：主题列表 + 选中状态的唯一内存状态源
// 所有修改都经由本接口完成
type BoardService interface {
	// AddTopic 新建 loading 状态主题并插入列表头部，默认选中
	AddTopic(name string) domain.Topic
	// ResolveTopic 检索完成，填充图片并置为 success；主题已被移除时为空操作
	ResolveTopic(id string, description string, images []domain.ImageRecord) bool
	// FailTopic 检索任务无法调度时置为 error；主题已被移除时为空操作
	FailTopic(id string) bool
	// RemoveTopic 永久移除主题并清理其选中状态
	RemoveTopic(id string) bool
	// UpdateImage 按 (主题ID, 图片地址) 更新覆盖字段；键不存在或无实际变化时返回 false
	UpdateImage(topicID string, url string, patch ImagePatch) bool
	// BeginExtract 原子地检查并标记图片进入抠图中
	// found 表示图片存在，started 表示本次调用完成了标记（图片已在抠图中时为 false）
	BeginExtract(topicID string, url string) (found bool, started bool)
	// SetSelected 更新单个主题选中状态
	SetSelected(id string, selected bool) bool
	// SetAllSelected 更新全部主题选中状态
	SetAllSelected(selected bool)
	// Snapshot 全量快照（深拷贝），保持新 topic 在前的顺序
	Snapshot() []domain.TopicResult
	// SelectedResults 选中且加载成功的主题快照
	SelectedResults() []domain.TopicResult
	// AllLoaded 没有主题处于 loading 状态
	AllLoaded() bool
	// Counts 主题数与图片总数
	Counts() (topics int, images int)
}

type boardService struct {
	mu       sync.RWMutex
	topics   []*domain.Topic
	selected map[string]bool
}

// NewBoardService 创建空画板
func NewBoardService() BoardService {
	return &boardService{
		selected: make(map[string]bool),
	}
}

func (b *boardService) AddTopic(name string) domain.Topic {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := &domain.Topic{
		ID:     uuid.NewString(),
		Name:   name,
		Status: domain.TopicLoading,
	}
	// 新主题排在最前
	b.topics = append([]*domain.Topic{topic}, b.topics...)
	b.selected[topic.ID] = true
	return copyTopic(topic)
}

func (b *boardService) ResolveTopic(id string, description string, images []domain.ImageRecord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := b.find(id)
	if topic == nil {
		return false
	}
	topic.Description = description
	topic.Images = append([]domain.ImageRecord(nil), images...)
	topic.Status = domain.TopicSuccess
	return true
}

func (b *boardService) FailTopic(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := b.find(id)
	if topic == nil {
		return false
	}
	topic.Status = domain.TopicError
	return true
}

func (b *boardService) RemoveTopic(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, topic := range b.topics {
		if topic.ID == id {
			b.topics = append(b.topics[:i], b.topics[i+1:]...)
			delete(b.selected, id)
			return true
		}
	}
	return false
}

func (b *boardService) UpdateImage(topicID string, url string, patch ImagePatch) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := b.find(topicID)
	if topic == nil {
		return false
	}
	for i := range topic.Images {
		if topic.Images[i].URL != url {
			continue
		}
		changed := false
		if patch.ExtractedURL != nil && topic.Images[i].ExtractedURL != *patch.ExtractedURL {
			topic.Images[i].ExtractedURL = *patch.ExtractedURL
			changed = true
		}
		if patch.IsExtracting != nil && topic.Images[i].IsExtracting != *patch.IsExtracting {
			topic.Images[i].IsExtracting = *patch.IsExtracting
			changed = true
		}
		return changed
	}
	return false
}

func (b *boardService) BeginExtract(topicID string, url string) (bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := b.find(topicID)
	if topic == nil {
		return false, false
	}
	for i := range topic.Images {
		if topic.Images[i].URL != url {
			continue
		}
		if topic.Images[i].IsExtracting {
			return true, false
		}
		topic.Images[i].IsExtracting = true
		return true, true
	}
	return false, false
}

func (b *boardService) SetSelected(id string, selected bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.find(id) == nil {
		return false
	}
	b.selected[id] = selected
	return true
}

func (b *boardService) SetAllSelected(selected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, topic := range b.topics {
		b.selected[topic.ID] = selected
	}
}

func (b *boardService) Snapshot() []domain.TopicResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	results := make([]domain.TopicResult, 0, len(b.topics))
	for _, topic := range b.topics {
		results = append(results, domain.TopicResult{
			Topic:    copyTopic(topic),
			Selected: b.selected[topic.ID],
		})
	}
	return results
}

func (b *boardService) SelectedResults() []domain.TopicResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var results []domain.TopicResult
	for _, topic := range b.topics {
		if !b.selected[topic.ID] || topic.Status != domain.TopicSuccess {
			continue
		}
		results = append(results, domain.TopicResult{
			Topic:    copyTopic(topic),
			Selected: true,
		})
	}
	return results
}

func (b *boardService) AllLoaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, topic := range b.topics {
		if topic.Status == domain.TopicLoading {
			return false
		}
	}
	return true
}

func (b *boardService) Counts() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	images := 0
	for _, topic := range b.topics {
		images += len(topic.Images)
	}
	return len(b.topics), images
}

// find 调用方必须持有锁
func (b *boardService) find(id string) *domain.Topic {
	for _, topic := range b.topics {
		if topic.ID == id {
			return topic
		}
	}
	return nil
}

func copyTopic(t *domain.Topic) domain.Topic {
	out := *t
	out.Images = append([]domain.ImageRecord(nil), t.Images...)
	return out
}
