package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

const defaultIABaseURL = "https://archive.org"

// InternetArchive 高级检索，限定 mediatype:image
// 全尺寸地址按馆藏惯例由 identifier 推导
type InternetArchive struct {
	client  *Client
	baseURL string
}

func NewInternetArchive(client *Client, baseURL string) *InternetArchive {
	if baseURL == "" {
		baseURL = defaultIABaseURL
	}
	return &InternetArchive{client: client, baseURL: baseURL}
}

func (ia *InternetArchive) Name() domain.Source {
	return domain.SourceInternetArchive
}

type iaResponse struct {
	Response struct {
		Docs []struct {
			Identifier string `json:"identifier"`
			Title      any    `json:"title"`
		} `json:"docs"`
	} `json:"response"`
}

func (ia *InternetArchive) FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error) {
	searchTerm := cleanQuery(query, true)
	searchURL := fmt.Sprintf("%s/advancedsearch.php?q=%s+AND+mediatype:image&fl[]=identifier&fl[]=title&rows=%d&output=json",
		ia.baseURL, url.QueryEscape(searchTerm), limit)

	var data iaResponse
	if err := ia.client.GetJSON(ctx, searchURL, &data); err != nil {
		return nil, err
	}

	var records []domain.ImageRecord
	for _, doc := range data.Response.Docs {
		if doc.Identifier == "" {
			continue
		}
		title := "Internet Archive Item"
		if s, ok := doc.Title.(string); ok && s != "" {
			title = s
		}

		rec := domain.ImageRecord{
			Title:       title,
			URL:         fmt.Sprintf("%s/download/%s/%s.jpg", ia.baseURL, doc.Identifier, doc.Identifier),
			ThumbURL:    fmt.Sprintf("%s/services/img/%s", ia.baseURL, doc.Identifier),
			DetailURL:   fmt.Sprintf("%s/details/%s", ia.baseURL, doc.Identifier),
			License:     "Public Domain / CC0",
			Attribution: fmt.Sprintf("Internet Archive: %s", doc.Identifier),
		}
		rec.Stamp(domain.SourceInternetArchive)
		records = append(records, rec)
	}
	return records, nil
}
