package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultImageEditBaseURL = "https://generativelanguage.googleapis.com"

// ImageEditor 图像编辑能力接口：输入内联图片与指令，输出内联图片或文本
type ImageEditor interface {
	EditImage(ctx context.Context, req ImageEditRequest) (*ImageEditResult, error)
}

// ImageEditRequest 一次图像编辑调用
type ImageEditRequest struct {
	MimeType   string // 输入图片 MIME 类型
	DataBase64 string // 输入图片 base64 内容
	Prompt     string // 编辑指令
}

// ImageEditResult 模型回复，两个字段至多一个非空
type ImageEditResult struct {
	ImageBase64 string // 内联图片回复
	Text        string // 文本回复（模型拒绝处理时出现）
}

// ImageEditConfig 图像编辑客户端配置
type ImageEditConfig struct {
	APIKey  string
	Model   string
	BaseURL string        // 留空使用官方地址，测试时可覆盖
	Timeout time.Duration // HTTP 超时
}

// ImageEditClient generateContent REST 客户端
// langchaingo 的回复结构不携带内联图片分片，所以这里直接走 REST 接口
type ImageEditClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewImageEditClient(cfg ImageEditConfig) *ImageEditClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultImageEditBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ImageEditClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type generatePart struct {
	Text       string              `json:"text,omitempty"`
	InlineData *generateInlineData `json:"inlineData,omitempty"`
}

type generateInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// EditImage 调用 generateContent，解析首个候选回复的图片分片与文本分片
func (c *ImageEditClient) EditImage(ctx context.Context, req ImageEditRequest) (*ImageEditResult, error) {
	body := generateContentRequest{
		Contents: []generateContent{
			{
				Parts: []generatePart{
					{InlineData: &generateInlineData{MimeType: req.MimeType, Data: req.DataBase64}},
					{Text: req.Prompt},
				},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("generate content: %s (%s)", parsed.Error.Message, parsed.Error.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generate content: unexpected status %d", resp.StatusCode)
	}

	result := &ImageEditResult{}
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			if part.InlineData != nil && result.ImageBase64 == "" {
				result.ImageBase64 = part.InlineData.Data
			}
			if part.Text != "" && result.Text == "" {
				result.Text = part.Text
			}
		}
	}
	return result, nil
}
