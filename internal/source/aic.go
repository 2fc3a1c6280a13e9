package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

const (
	defaultAICBaseURL     = "https://api.artic.edu"
	defaultAICIIIFBaseURL = "https://www.artic.edu/iiif/2"
)

// AIC 芝加哥艺术学院：artworks/search 过滤公共领域，IIIF 拼接图片地址
type AIC struct {
	client   *Client
	baseURL  string
	iiifBase string
}

func NewAIC(client *Client, baseURL string, iiifBase string) *AIC {
	if baseURL == "" {
		baseURL = defaultAICBaseURL
	}
	if iiifBase == "" {
		iiifBase = defaultAICIIIFBaseURL
	}
	return &AIC{client: client, baseURL: baseURL, iiifBase: iiifBase}
}

func (a *AIC) Name() domain.Source {
	return domain.SourceAIC
}

type aicResponse struct {
	Data []struct {
		ID            int    `json:"id"`
		Title         string `json:"title"`
		ImageID       string `json:"image_id"`
		ArtistDisplay string `json:"artist_display"`
		DateDisplay   string `json:"date_display"`
	} `json:"data"`
}

func (a *AIC) FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error) {
	searchURL := fmt.Sprintf(
		"%s/api/v1/artworks/search?q=%s&query[term][is_public_domain]=true&fields=id,title,image_id,artist_display,date_display&limit=%d",
		a.baseURL, url.QueryEscape(query), limit)

	var data aicResponse
	if err := a.client.GetJSON(ctx, searchURL, &data); err != nil {
		return nil, err
	}

	var records []domain.ImageRecord
	for _, item := range data.Data {
		if item.ImageID == "" {
			continue
		}
		artist := item.ArtistDisplay
		if artist == "" {
			artist = "Unknown"
		}
		date := item.DateDisplay
		if date == "" {
			date = "N/A"
		}

		rec := domain.ImageRecord{
			Title:       item.Title,
			URL:         fmt.Sprintf("%s/%s/full/843,/0/default.jpg", a.iiifBase, item.ImageID),
			ThumbURL:    fmt.Sprintf("%s/%s/full/400,/0/default.jpg", a.iiifBase, item.ImageID),
			DetailURL:   fmt.Sprintf("https://www.artic.edu/artworks/%d", item.ID),
			License:     "Public Domain (CC0)",
			Attribution: fmt.Sprintf("%s (%s)", artist, date),
		}
		rec.Stamp(domain.SourceAIC)
		records = append(records, rec)
	}
	return records, nil
}
