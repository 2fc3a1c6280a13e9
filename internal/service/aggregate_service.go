package service

import (
	"context"
	"sync"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
	"github.com/haierkeys/pd-clipper-service/internal/source"
	"github.com/haierkeys/pd-clipper-service/pkg/logger"

	"go.uber.org/zap"
)

// AggregateService 并发检索所有启用档案库并交织结果
type AggregateService interface {
	TopicImages(ctx context.Context, topic string, enabled domain.SourceSet, perSourceLimit int) []domain.ImageRecord
}

type aggregateService struct {
	optimizer OptimizerService
	adapters  []source.Adapter
	capTotal  int
	logger    *zap.Logger
}

// NewAggregateService 创建 AggregateService 实例
// capTotal 为交织后结果总量上限，<=0 时使用默认值 50
func NewAggregateService(optimizer OptimizerService, adapters []source.Adapter, capTotal int, lg *zap.Logger) AggregateService {
	if capTotal <= 0 {
		capTotal = 50
	}
	return &aggregateService{
		optimizer: optimizer,
		adapters:  adapters,
		capTotal:  capTotal,
		logger:    lg,
	}
}

// TopicImages 优化一次查询短语，对启用的适配器并发取图，再按优先级轮询交织
// 单个档案库失败只记录告警并按空结果处理
func (s *aggregateService) TopicImages(ctx context.Context, topic string, enabled domain.SourceSet, perSourceLimit int) []domain.ImageRecord {
	query := s.optimizer.Optimize(ctx, topic)

	results := make([][]domain.ImageRecord, len(s.adapters))
	var wg sync.WaitGroup
	for i, adapter := range s.adapters {
		if !enabled.Has(adapter.Name()) {
			continue
		}

		limit := perSourceLimit
		// 综合库结果质量参差，多取一条补足
		if adapter.Name() == domain.SourceWikimedia {
			limit = perSourceLimit + 1
		}

		wg.Add(1)
		go func(i int, adapter source.Adapter, limit int) {
			defer wg.Done()
			phrase := query.PhraseFor(adapter.Name())
			records, err := adapter.FetchImages(ctx, phrase, limit)
			if err != nil {
				s.logger.Warn("source fetch failed",
					zap.String(logger.FieldSource, adapter.Name().String()),
					zap.String(logger.FieldQuery, phrase),
					zap.Error(err))
				return
			}
			results[i] = records
		}(i, adapter, limit)
	}
	wg.Wait()

	// 按声明顺序轮询交织，保证来源多样性
	interleaved := make([]domain.ImageRecord, 0, s.capTotal)
	maxLen := 0
	for _, records := range results {
		if len(records) > maxLen {
			maxLen = len(records)
		}
	}
	for i := 0; i < maxLen; i++ {
		for _, records := range results {
			if i < len(records) {
				interleaved = append(interleaved, records[i])
			}
		}
	}

	if len(interleaved) > s.capTotal {
		interleaved = interleaved[:s.capTotal]
	}
	return interleaved
}
