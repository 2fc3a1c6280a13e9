package source

import (
	"context"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

// Adapter 单个档案库的检索适配器
// 失败时返回 error，由聚合层决定降级策略
type Adapter interface {
	Name() domain.Source
	FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error)
}

// Config 适配器公共配置，BaseURL 留空使用各档案库官方地址
type Config struct {
	WikimediaBaseURL string
	LOCBaseURL       string
	IABaseURL        string
	MetBaseURL       string
	AICBaseURL       string
	AICIIIFBaseURL   string
	ClevelandBaseURL string
	NASABaseURL      string
}

// NewAdapters 按优先级顺序创建全部适配器
func NewAdapters(client *Client, cfg Config) []Adapter {
	return []Adapter{
		NewWikimedia(client, cfg.WikimediaBaseURL),
		NewMet(client, cfg.MetBaseURL),
		NewAIC(client, cfg.AICBaseURL, cfg.AICIIIFBaseURL),
		NewNASA(client, cfg.NASABaseURL),
		NewCleveland(client, cfg.ClevelandBaseURL),
		NewLOC(client, cfg.LOCBaseURL),
		NewInternetArchive(client, cfg.IABaseURL),
	}
}
