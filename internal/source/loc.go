package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

const defaultLOCBaseURL = "https://www.loc.gov"

// LOC 美国国会图书馆照片检索
type LOC struct {
	client  *Client
	baseURL string
}

func NewLOC(client *Client, baseURL string) *LOC {
	if baseURL == "" {
		baseURL = defaultLOCBaseURL
	}
	return &LOC{client: client, baseURL: baseURL}
}

func (l *LOC) Name() domain.Source {
	return domain.SourceLOC
}

type locResponse struct {
	Results []struct {
		Title      string   `json:"title"`
		ImageURL   []string `json:"image_url"`
		URL        string   `json:"url"`
		CallNumber any      `json:"call_number"`
	} `json:"results"`
}

func (l *LOC) FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error) {
	searchTerm := cleanQuery(query, true)
	searchURL := fmt.Sprintf("%s/photos/?q=%s&fo=json&c=%d", l.baseURL, url.QueryEscape(searchTerm), limit)

	var data locResponse
	if err := l.client.GetJSON(ctx, searchURL, &data); err != nil {
		return nil, err
	}

	results := data.Results
	if len(results) > limit {
		results = results[:limit]
	}

	var records []domain.ImageRecord
	for _, item := range results {
		// image_url 从小到大排列，末位是可用的最大尺寸
		if len(item.ImageURL) == 0 || item.ImageURL[len(item.ImageURL)-1] == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = "LOC Image"
		}
		detailURL := ""
		if item.URL != "" {
			detailURL = "https://www.loc.gov" + item.URL
		}
		callNumber := "N/A"
		if s, ok := item.CallNumber.(string); ok && s != "" {
			callNumber = s
		}

		rec := domain.ImageRecord{
			Title:       title,
			URL:         item.ImageURL[len(item.ImageURL)-1],
			ThumbURL:    item.ImageURL[0],
			DetailURL:   detailURL,
			License:     "Public Domain / No Known Restrictions",
			Attribution: fmt.Sprintf("Library of Congress, Call Number: %s", callNumber),
		}
		rec.Stamp(domain.SourceLOC)
		records = append(records, rec)
	}
	return records, nil
}
