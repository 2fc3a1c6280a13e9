package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

const defaultClevelandBaseURL = "https://openaccess-api.clevelandart.org"

// Cleveland 克利夫兰艺术博物馆开放接口，cc0=1 只取公共领域藏品
type Cleveland struct {
	client  *Client
	baseURL string
}

func NewCleveland(client *Client, baseURL string) *Cleveland {
	if baseURL == "" {
		baseURL = defaultClevelandBaseURL
	}
	return &Cleveland{client: client, baseURL: baseURL}
}

func (c *Cleveland) Name() domain.Source {
	return domain.SourceCleveland
}

type clevelandResponse struct {
	Data []struct {
		ID     int    `json:"id"`
		Title  string `json:"title"`
		URL    string `json:"url"`
		Images struct {
			Web struct {
				URL string `json:"url"`
			} `json:"web"`
			Print struct {
				URL string `json:"url"`
			} `json:"print"`
		} `json:"images"`
		Creators []struct {
			Description string `json:"description"`
		} `json:"creators"`
		CreationDate string `json:"creation_date"`
	} `json:"data"`
}

func (c *Cleveland) FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error) {
	searchURL := fmt.Sprintf("%s/api/artworks/?q=%s&cc0=1&has_image=1&limit=%d",
		c.baseURL, url.QueryEscape(query), limit)

	var data clevelandResponse
	if err := c.client.GetJSON(ctx, searchURL, &data); err != nil {
		return nil, err
	}

	var records []domain.ImageRecord
	for _, item := range data.Data {
		imageURL := item.Images.Web.URL
		if imageURL == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		detailURL := item.URL
		if detailURL == "" {
			detailURL = fmt.Sprintf("https://www.clevelandart.org/art/%d", item.ID)
		}
		thumb := item.Images.Print.URL
		if thumb == "" {
			thumb = imageURL
		}
		attribution := ""
		if len(item.Creators) > 0 {
			attribution = item.Creators[0].Description
		}
		if attribution == "" {
			attribution = item.CreationDate
		}
		if attribution == "" {
			attribution = "Cleveland Museum of Art"
		}

		rec := domain.ImageRecord{
			Title:       title,
			URL:         imageURL,
			ThumbURL:    thumb,
			DetailURL:   detailURL,
			License:     "Public Domain (CC0)",
			Attribution: attribution,
		}
		rec.Stamp(domain.SourceCleveland)
		records = append(records, rec)
	}
	return records, nil
}
