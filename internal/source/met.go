package source

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/haierkeys/pd-clipper-service/internal/domain"

	"golang.org/x/sync/errgroup"
)

const defaultMetBaseURL = "https://collectionapi.metmuseum.org"

// Met 大都会艺术博物馆：检索得到对象 ID，再逐个拉取对象详情
type Met struct {
	client  *Client
	baseURL string
}

func NewMet(client *Client, baseURL string) *Met {
	if baseURL == "" {
		baseURL = defaultMetBaseURL
	}
	return &Met{client: client, baseURL: baseURL}
}

func (m *Met) Name() domain.Source {
	return domain.SourceMet
}

type metSearchResponse struct {
	ObjectIDs []int `json:"objectIDs"`
}

type metObject struct {
	Title             string `json:"title"`
	PrimaryImage      string `json:"primaryImage"`
	PrimaryImageSmall string `json:"primaryImageSmall"`
	ObjectURL         string `json:"objectURL"`
	ArtistDisplayName string `json:"artistDisplayName"`
	ObjectDate        string `json:"objectDate"`
}

func (m *Met) FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error) {
	searchURL := fmt.Sprintf("%s/public/collection/v1/search?q=%s&hasImages=true&isPublicDomain=true",
		m.baseURL, url.QueryEscape(query))

	var search metSearchResponse
	if err := m.client.GetJSON(ctx, searchURL, &search); err != nil {
		return nil, err
	}
	if len(search.ObjectIDs) == 0 {
		return nil, nil
	}

	ids := search.ObjectIDs
	if len(ids) > limit {
		ids = ids[:limit]
	}

	// 每个对象都要单独请求详情，按 ID 顺序保留结果
	objects := make([]*metObject, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			var obj metObject
			objURL := fmt.Sprintf("%s/public/collection/v1/objects/%d", m.baseURL, id)
			if err := m.client.GetJSON(gctx, objURL, &obj); err != nil {
				// 单个对象失败只丢弃该对象
				return nil
			}
			mu.Lock()
			objects[i] = &obj
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []domain.ImageRecord
	for _, obj := range objects {
		if obj == nil || obj.PrimaryImage == "" {
			continue
		}
		title := obj.Title
		if title == "" {
			title = "Met Museum Object"
		}
		thumb := obj.PrimaryImageSmall
		if thumb == "" {
			thumb = obj.PrimaryImage
		}
		artist := obj.ArtistDisplayName
		if artist == "" {
			artist = "Unknown Artist"
		}
		date := obj.ObjectDate
		if date == "" {
			date = "N/A"
		}

		rec := domain.ImageRecord{
			Title:       title,
			URL:         obj.PrimaryImage,
			ThumbURL:    thumb,
			DetailURL:   obj.ObjectURL,
			License:     "Public Domain (CC0)",
			Attribution: fmt.Sprintf("%s (%s)", artist, date),
		}
		rec.Stamp(domain.SourceMet)
		records = append(records, rec)
	}
	return records, nil
}
