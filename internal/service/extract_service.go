package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/genai"
	"github.com/haierkeys/pd-clipper-service/pkg/logger"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ExtractService 抠图能力：取图、必要时栅格化 SVG、调用图像编辑模型
type ExtractService interface {
	// RemoveBackground 返回处理结果的 data:image/png;base64 地址
	RemoveBackground(ctx context.Context, imageURL string) (string, error)
}

// ExtractOptions 重试节奏配置，零值使用默认
type ExtractOptions struct {
	MaxAttempts int           // 默认 3
	BaseDelay   time.Duration // 每次调用前等待 attempt*BaseDelay，默认 500ms
	BackoffUnit time.Duration // 失败后等待 attempt*BackoffUnit，默认 1s
	HTTPTimeout time.Duration // 取图超时，默认 30s
}

const extractPrompt = `Act as a professional photo editor. Extract the main subject from this image. ` +
	`Remove all backgrounds and replace with solid black (#000000). ` +
	`If this is a map or diagram and not a photo of a subject, please try to extract the primary ` +
	`geographical features or the central diagram elements onto the black background instead. ` +
	`Your output MUST be an image.`

type extractService struct {
	editor  genai.ImageEditor
	client  *http.Client
	opts    ExtractOptions
	sf      *singleflight.Group
	logger  *zap.Logger
	sleepFn func(time.Duration)
}

// NewExtractService 创建 ExtractService 实例
func NewExtractService(editor genai.ImageEditor, opts ExtractOptions, lg *zap.Logger) ExtractService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = time.Second
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}
	return &extractService{
		editor:  editor,
		client:  &http.Client{Timeout: opts.HTTPTimeout},
		opts:    opts,
		sf:      &singleflight.Group{},
		logger:  lg,
		sleepFn: time.Sleep,
	}
}

// RemoveBackground 并发的相同地址请求合并为一次处理
func (s *extractService) RemoveBackground(ctx context.Context, imageURL string) (string, error) {
	result, err, _ := s.sf.Do(imageURL, func() (any, error) {
		return s.removeBackground(ctx, imageURL)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *extractService) removeBackground(ctx context.Context, imageURL string) (string, error) {
	data, mimeType, err := s.fetchImage(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}

	if isSVG(mimeType, data) {
		data, err = rasterizeSVG(data)
		if err != nil {
			return "", fmt.Errorf("rasterize svg: %w", err)
		}
		mimeType = "image/png"
	}

	encoded := base64.StdEncoding.EncodeToString(data)

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		// 对模型接口保持节流
		s.sleepFn(time.Duration(attempt) * s.opts.BaseDelay)

		dataURL, err := s.callEditor(ctx, encoded, mimeType)
		if err == nil {
			return dataURL, nil
		}
		lastErr = err
		s.logger.Warn("background removal attempt failed",
			zap.String(logger.FieldURL, imageURL),
			zap.Int(logger.FieldAttempt, attempt),
			zap.Error(err))

		if attempt < s.opts.MaxAttempts {
			s.sleepFn(time.Duration(attempt) * s.opts.BackoffUnit)
		}
	}
	return "", lastErr
}

func (s *extractService) callEditor(ctx context.Context, encoded string, mimeType string) (string, error) {
	result, err := s.editor.EditImage(ctx, genai.ImageEditRequest{
		MimeType:   mimeType,
		DataBase64: encoded,
		Prompt:     extractPrompt,
	})
	if err != nil {
		return "", err
	}
	if result.ImageBase64 != "" {
		return "data:image/png;base64," + result.ImageBase64, nil
	}
	if result.Text != "" {
		return "", fmt.Errorf("model was unable to process this image: %s", result.Text)
	}
	return "", fmt.Errorf("model failed to return a valid image result")
}

func (s *extractService) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("GET %s: unexpected status %d", imageURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil {
			mimeType = parsed
		}
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

func isSVG(mimeType string, data []byte) bool {
	if mimeType == "image/svg+xml" {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// rasterizeSVG 在不透明白底上按原始尺寸栅格化，尺寸缺失时回退 1024x1024
func rasterizeSVG(data []byte) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		w, h = 1024, 1024
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
