package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

const defaultNASABaseURL = "https://images-api.nasa.gov"

// NASA 影像库：接口默认返回最多 100 条，这里自行截断
type NASA struct {
	client  *Client
	baseURL string
}

func NewNASA(client *Client, baseURL string) *NASA {
	if baseURL == "" {
		baseURL = defaultNASABaseURL
	}
	return &NASA{client: client, baseURL: baseURL}
}

func (n *NASA) Name() domain.Source {
	return domain.SourceNASA
}

type nasaResponse struct {
	Collection struct {
		Items []struct {
			Links []struct {
				Href string `json:"href"`
			} `json:"links"`
			Data []struct {
				Title        string `json:"title"`
				NasaID       string `json:"nasa_id"`
				Photographer string `json:"photographer"`
				Center       string `json:"center"`
			} `json:"data"`
		} `json:"items"`
	} `json:"collection"`
}

func (n *NASA) FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s&media_type=image", n.baseURL, url.QueryEscape(query))

	var data nasaResponse
	if err := n.client.GetJSON(ctx, searchURL, &data); err != nil {
		return nil, err
	}

	items := data.Collection.Items
	if len(items) > limit {
		items = items[:limit]
	}

	var records []domain.ImageRecord
	for _, item := range items {
		if len(item.Links) == 0 || len(item.Data) == 0 {
			continue
		}
		link := item.Links[0].Href
		meta := item.Data[0]
		if link == "" {
			continue
		}

		title := meta.Title
		if title == "" {
			title = "NASA Image"
		}
		attribution := meta.Photographer
		if attribution == "" {
			attribution = meta.Center
		}
		if attribution == "" {
			attribution = "NASA"
		}

		rec := domain.ImageRecord{
			Title:       title,
			URL:         link,
			ThumbURL:    link,
			DetailURL:   fmt.Sprintf("https://images.nasa.gov/details/%s", meta.NasaID),
			License:     "Public Domain (US Gov)",
			Attribution: attribution,
		}
		rec.Stamp(domain.SourceNASA)
		records = append(records, rec)
	}
	return records, nil
}
