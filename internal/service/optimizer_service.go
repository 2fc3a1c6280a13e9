// Package service 实现业务逻辑层
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
	"github.com/haierkeys/pd-clipper-service/internal/genai"
	"github.com/haierkeys/pd-clipper-service/pkg/logger"

	"go.uber.org/zap"
)

// OptimizerService 把用户主题转换为面向不同档案库的检索短语
// Optimize 是全函数：任何失败都回退到原始主题，不向调用方返回错误
type OptimizerService interface {
	Optimize(ctx context.Context, topic string) domain.SmartQuery
}

type optimizerService struct {
	model  genai.TextModel
	logger *zap.Logger
}

// NewOptimizerService 创建 OptimizerService 实例
func NewOptimizerService(model genai.TextModel, lg *zap.Logger) OptimizerService {
	return &optimizerService{
		model:  model,
		logger: lg,
	}
}

const optimizePromptTemplate = `You are a search strategist for public-domain image archives.
For the topic "%s", produce search phrases tuned to different archive types.

Respond with ONLY a JSON object, no prose, with exactly these string keys:
{
  "generalPhrase": "phrase for a general media repository keyword search",
  "archivalPhrase": "phrase for historical photo and print archives",
  "artPhrase": "phrase for museum collection searches (paintings, objects)",
  "spacePhrase": "phrase for a space imagery library"
}`

// Optimize 生成检索短语；模型不可用或输出不合法时逐字段回退到原始主题
func (s *optimizerService) Optimize(ctx context.Context, topic string) domain.SmartQuery {
	fallback := domain.SmartQuery{
		GeneralPhrase:  topic,
		ArchivalPhrase: topic,
		ArtPhrase:      topic,
		SpacePhrase:    topic,
	}

	if s.model == nil {
		return fallback
	}

	raw, err := s.model.Generate(ctx, fmt.Sprintf(optimizePromptTemplate, topic))
	if err != nil {
		s.logger.Warn("query optimize failed, using raw topic",
			zap.String(logger.FieldTopic, topic),
			zap.Error(err))
		return fallback
	}

	var query domain.SmartQuery
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &query); err != nil {
		s.logger.Warn("query optimize returned invalid json, using raw topic",
			zap.String(logger.FieldTopic, topic),
			zap.Error(err))
		return fallback
	}

	// 逐字段兜底
	if strings.TrimSpace(query.GeneralPhrase) == "" {
		query.GeneralPhrase = topic
	}
	if strings.TrimSpace(query.ArchivalPhrase) == "" {
		query.ArchivalPhrase = topic
	}
	if strings.TrimSpace(query.ArtPhrase) == "" {
		query.ArtPhrase = topic
	}
	if strings.TrimSpace(query.SpacePhrase) == "" {
		query.SpacePhrase = topic
	}
	return query
}

// stripCodeFences 去掉模型输出外层的 markdown 代码块标记
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
