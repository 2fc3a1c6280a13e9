package source

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

const defaultWikimediaBaseURL = "https://commons.wikimedia.org/w/api.php"

var htmlTagRe = regexp.MustCompile(`<[^>]*>?`)

// stripHTML 去掉 extmetadata 字段里的 HTML 标记
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// Wikimedia 通过 generator=search 在文件命名空间中按关键词检索
type Wikimedia struct {
	client  *Client
	baseURL string
}

func NewWikimedia(client *Client, baseURL string) *Wikimedia {
	if baseURL == "" {
		baseURL = defaultWikimediaBaseURL
	}
	return &Wikimedia{client: client, baseURL: baseURL}
}

func (w *Wikimedia) Name() domain.Source {
	return domain.SourceWikimedia
}

type wikimediaMetaValue struct {
	Value string `json:"value"`
}

type wikimediaPage struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	ImageInfo []struct {
		URL            string `json:"url"`
		DescriptionURL string `json:"descriptionurl"`
		ThumbURL       string `json:"thumburl"`
		ExtMetadata    struct {
			LicenseShortName wikimediaMetaValue `json:"LicenseShortName"`
			Attribution      wikimediaMetaValue `json:"Attribution"`
			Artist           wikimediaMetaValue `json:"Artist"`
		} `json:"extmetadata"`
	} `json:"imageinfo"`
}

type wikimediaResponse struct {
	Query struct {
		Pages map[string]wikimediaPage `json:"pages"`
	} `json:"query"`
}

func (w *Wikimedia) FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "search")
	params.Set("gsrnamespace", "6")
	params.Set("gsrsearch", cleanQuery(query, false)+" filetype:bitmap")
	params.Set("gsrlimit", strconv.Itoa(limit))
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|extmetadata")
	params.Set("iiurlwidth", "400")
	params.Set("format", "json")
	params.Set("origin", "*")

	var data wikimediaResponse
	if err := w.client.GetJSON(ctx, w.baseURL+"?"+params.Encode(), &data); err != nil {
		return nil, err
	}
	if len(data.Query.Pages) == 0 {
		return nil, nil
	}

	// generator 结果是无序对象，按检索相关度 index 排序
	pages := make([]wikimediaPage, 0, len(data.Query.Pages))
	for _, page := range data.Query.Pages {
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	var records []domain.ImageRecord
	for _, page := range pages {
		if len(page.ImageInfo) == 0 {
			continue
		}
		info := page.ImageInfo[0]
		if info.URL == "" {
			continue
		}

		license := stripHTML(info.ExtMetadata.LicenseShortName.Value)
		if license == "" {
			license = "Public Domain"
		}
		attribution := stripHTML(info.ExtMetadata.Attribution.Value)
		if attribution == "" {
			attribution = stripHTML(info.ExtMetadata.Artist.Value)
		}
		if attribution == "" {
			attribution = "Wikimedia Commons"
		}

		rec := domain.ImageRecord{
			Title:       strings.TrimPrefix(page.Title, "File:"),
			URL:         info.URL,
			ThumbURL:    info.ThumbURL,
			DetailURL:   info.DescriptionURL,
			License:     license,
			Attribution: attribution,
		}
		rec.Stamp(domain.SourceWikimedia)
		records = append(records, rec)
	}
	return records, nil
}
