package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
	"github.com/haierkeys/pd-clipper-service/pkg/code"
	"github.com/haierkeys/pd-clipper-service/pkg/fileurl"
	"github.com/haierkeys/pd-clipper-service/pkg/logger"
	"github.com/haierkeys/pd-clipper-service/pkg/util"

	"go.uber.org/zap"
)

// ExportMode 导出模式
type ExportMode string

const (
	ExportExtracted ExportMode = "extracted"
	ExportOriginals ExportMode = "originals"
)

// LogLevel 导出日志级别
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelSuccess LogLevel = "success"
	LogLevelWarning LogLevel = "warning"
)

// LogEntry 推送给订阅者的一条导出日志
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

// ExportObserver 导出进度与日志订阅者
type ExportObserver interface {
	OnProgress(percent int)
	OnLog(entry LogEntry)
}

// ExportStatus 当前（或最近一次）导出的状态快照
type ExportStatus struct {
	Running     bool       `json:"running"`
	Mode        ExportMode `json:"mode,omitempty"`
	Progress    int        `json:"progress"`
	Logs        []LogEntry `json:"logs"`
	LastArchive string     `json:"lastArchive,omitempty"`
}

// ExportService 两阶段导出编排：抠图阶段 + 打包阶段
// 同一时间只允许一次导出运行，不支持取消
type ExportService interface {
	// Start 启动异步导出，立即返回；冲突或空选择返回业务错误
	Start(mode ExportMode) error
	// Status 状态快照，含日志缓冲
	Status() ExportStatus
	// Subscribe 注册进度/日志订阅者
	Subscribe(observer ExportObserver)
	// ArchivePath 校验并解析导出目录内的压缩包路径
	ArchivePath(filename string) (string, error)
}

// ExportOptions 打包阶段下载节奏配置，零值使用默认
type ExportOptions struct {
	DownloadAttempts int           // 默认 2
	DownloadDelay    time.Duration // 重试间隔，默认 1s
	HTTPTimeout      time.Duration // 默认 30s
	LogBuffer        int           // 状态缓冲保留的日志条数，默认 200
}

type processedKey struct {
	topicID string
	url     string
}

type exportService struct {
	board     BoardService
	extractor ExtractService
	exportDir string
	client    *http.Client
	opts      ExportOptions
	logger    *zap.Logger

	mu        sync.Mutex
	running   bool
	status    ExportStatus
	observers []ExportObserver
	// 已抠图缓存跨多次导出复用
	processed map[processedKey]string
}

// NewExportService 创建 ExportService 实例
func NewExportService(board BoardService, extractor ExtractService, exportDir string, opts ExportOptions, lg *zap.Logger) ExportService {
	if opts.DownloadAttempts <= 0 {
		opts.DownloadAttempts = 2
	}
	if opts.DownloadDelay <= 0 {
		opts.DownloadDelay = time.Second
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}
	if opts.LogBuffer <= 0 {
		opts.LogBuffer = 200
	}
	return &exportService{
		board:     board,
		extractor: extractor,
		exportDir: exportDir,
		client:    &http.Client{Timeout: opts.HTTPTimeout},
		opts:      opts,
		logger:    lg,
		processed: make(map[processedKey]string),
	}
}

func (s *exportService) Subscribe(observer ExportObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

func (s *exportService) Status() ExportStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.status
	status.Logs = append([]LogEntry(nil), s.status.Logs...)
	return status
}

func (s *exportService) Start(mode ExportMode) error {
	if mode != ExportExtracted && mode != ExportOriginals {
		return code.ErrorExportInvalidMode
	}

	selected := s.board.SelectedResults()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return code.ErrorExportRunning
	}
	if len(selected) == 0 {
		s.mu.Unlock()
		s.logger.Warn("export rejected: no topics selected", zap.String(logger.FieldMode, string(mode)))
		return code.ErrorExportEmptySelection
	}
	s.running = true
	s.status = ExportStatus{Running: true, Mode: mode, LastArchive: s.status.LastArchive}
	s.mu.Unlock()

	go s.run(mode, selected)
	return nil
}

func (s *exportService) run(mode ExportMode, selected []domain.TopicResult) {
	started := time.Now()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.status.Running = false
		s.mu.Unlock()
	}()

	var archiveName string
	var err error
	if mode == ExportExtracted {
		archiveName, err = s.runExtracted(selected)
	} else {
		archiveName, err = s.runOriginals(selected)
	}
	if err != nil {
		s.emitLog(LogLevelWarning, fmt.Sprintf("Export failed: %v", err))
		s.logger.Error("export failed",
			zap.String(logger.FieldMode, string(mode)),
			zap.Duration(logger.FieldDuration, time.Since(started)),
			zap.Error(err))
		return
	}
	// 选中主题没有任何图片时不产出压缩包
	if archiveName == "" {
		s.logger.Warn("export aborted: selection has no images",
			zap.String(logger.FieldMode, string(mode)))
		return
	}

	s.mu.Lock()
	s.status.LastArchive = archiveName
	s.mu.Unlock()

	s.emitProgress(100)
	s.emitLog(LogLevelSuccess, fmt.Sprintf("Export complete: %s", archiveName))
	s.logger.Info("export complete",
		zap.String(logger.FieldMode, string(mode)),
		zap.String(logger.FieldArchive, archiveName),
		zap.Duration(logger.FieldDuration, time.Since(started)))
}

// runExtracted 阶段一逐图抠图（0-80%），阶段二打包（80-100%）
func (s *exportService) runExtracted(selected []domain.TopicResult) (string, error) {
	type job struct {
		topic domain.Topic
		image domain.ImageRecord
	}
	var jobs []job
	for _, res := range selected {
		for _, img := range res.Topic.Images {
			jobs = append(jobs, job{topic: res.Topic, image: img})
		}
	}
	total := len(jobs)
	if total == 0 {
		s.emitLog(LogLevelWarning, "No images found in the selected topics")
		return "", nil
	}

	s.emitLog(LogLevelInfo, fmt.Sprintf("Starting subject extraction for %d images", total))

	// 用画板上已有的抠图结果补种缓存
	s.mu.Lock()
	for _, j := range jobs {
		key := processedKey{topicID: j.topic.ID, url: j.image.URL}
		if _, ok := s.processed[key]; !ok && j.image.ExtractedURL != "" {
			s.processed[key] = j.image.ExtractedURL
		}
	}
	s.mu.Unlock()

	done := 0
	for _, j := range jobs {
		key := processedKey{topicID: j.topic.ID, url: j.image.URL}

		s.mu.Lock()
		_, cached := s.processed[key]
		s.mu.Unlock()

		if cached {
			s.emitLog(LogLevelInfo, fmt.Sprintf("Cache hit, skipping: %s", j.image.Title))
			done++
			s.emitProgress(done * 80 / total)
			continue
		}

		s.emitLog(LogLevelInfo, fmt.Sprintf("Extracting subject: %s", j.image.Title))
		s.markExtracting(j.topic.ID, j.image.URL, true)

		dataURL, err := s.extractor.RemoveBackground(context.Background(), j.image.URL)
		if err != nil {
			s.markExtracting(j.topic.ID, j.image.URL, false)
			s.emitLog(LogLevelWarning, fmt.Sprintf("Extraction failed for %s: %v", j.image.Title, err))
		} else {
			s.mu.Lock()
			s.processed[key] = dataURL
			s.mu.Unlock()
			s.storeExtracted(j.topic.ID, j.image.URL, dataURL)
			s.emitLog(LogLevelSuccess, fmt.Sprintf("Subject extracted: %s", j.image.Title))
		}

		done++
		s.emitProgress(done * 80 / total)
	}

	return s.pack(selected, ExportExtracted, total)
}

// runOriginals 单阶段打包原图（0-100%）
func (s *exportService) runOriginals(selected []domain.TopicResult) (string, error) {
	total := 0
	for _, res := range selected {
		total += len(res.Topic.Images)
	}
	if total == 0 {
		s.emitLog(LogLevelWarning, "No images found in the selected topics")
		return "", nil
	}
	s.emitLog(LogLevelInfo, fmt.Sprintf("Packaging %d original images", total))
	return s.pack(selected, ExportOriginals, total)
}

func (s *exportService) pack(selected []domain.TopicResult, mode ExportMode, total int) (string, error) {
	rootFolder := "collection"
	suffix := "Extracted"
	if mode == ExportOriginals {
		rootFolder = "pd_original_archive"
		suffix = "Originals"
	}

	var entries []util.ArchiveEntry
	done := 0
	for _, res := range selected {
		folderName := util.CollapseWhitespace(res.Topic.Name)
		for i, img := range res.Topic.Images {
			byteSource := img.URL
			extracted := false
			if mode == ExportExtracted {
				s.mu.Lock()
				if dataURL, ok := s.processed[processedKey{topicID: res.Topic.ID, url: img.URL}]; ok {
					byteSource = dataURL
					extracted = true
				}
				s.mu.Unlock()
			}

			ext := util.FileExt(img.URL, "jpg")
			if extracted {
				ext = "png"
			}
			fileName := fmt.Sprintf("%02d_%s.%s", i+1, util.SanitizeTitle(img.Title), ext)

			data, err := s.loadBytes(byteSource)
			if err != nil {
				if strings.HasPrefix(byteSource, "data:") {
					s.emitLog(LogLevelWarning, fmt.Sprintf("Write error, skipping %s: %v", img.Title, err))
				} else {
					s.emitLog(LogLevelWarning, fmt.Sprintf("Source blocked, skipping %s: %v", img.Title, err))
				}
			} else {
				entries = append(entries, util.ArchiveEntry{
					Name: rootFolder + "/" + folderName + "/" + fileName,
					Data: data,
				})
			}

			done++
			if total > 0 {
				if mode == ExportExtracted {
					s.emitProgress(80 + done*20/total)
				} else {
					s.emitProgress(done * 100 / total)
				}
			}
		}
	}

	archiveName := archiveFileName(selected, suffix)
	target := filepath.Join(s.exportDir, archiveName)
	if err := fileurl.CreatePath(target, 0o755); err != nil {
		return "", err
	}
	if err := util.ZipEntries(entries, target); err != nil {
		return "", err
	}
	return archiveName, nil
}

// loadBytes 内联 data: 地址直接解码，其余按 HTTP 下载并重试
func (s *exportService) loadBytes(src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		idx := strings.Index(src, "base64,")
		if idx < 0 {
			return nil, fmt.Errorf("unsupported data url encoding")
		}
		return base64.StdEncoding.DecodeString(src[idx+len("base64,"):])
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.DownloadAttempts; attempt++ {
		data, err := s.download(src)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if attempt < s.opts.DownloadAttempts {
			time.Sleep(s.opts.DownloadDelay)
		}
	}
	return nil, lastErr
}

func (s *exportService) download(src string) ([]byte, error) {
	resp, err := s.client.Get(src)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// archiveFileName 由选中主题名生成确定性的压缩包名
func archiveFileName(selected []domain.TopicResult, suffix string) string {
	if len(selected) == 0 {
		return fmt.Sprintf("pd_archive_%d.zip", time.Now().UnixMilli())
	}
	names := make([]string, 0, len(selected))
	for _, res := range selected {
		names = append(names, util.SanitizeName(res.Topic.Name))
	}
	baseName := strings.Join(names, "_")
	if len(baseName) > 50 {
		baseName = baseName[:50] + "_et_al"
	}
	return fmt.Sprintf("%s_%s.zip", baseName, suffix)
}

func (s *exportService) ArchivePath(filename string) (string, error) {
	// 只允许导出目录内的普通文件名
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", code.ErrorArchiveNotFound
	}
	target := filepath.Join(s.exportDir, filename)
	if !fileurl.IsExist(target) || fileurl.IsDir(target) {
		return "", code.ErrorArchiveNotFound
	}
	return target, nil
}

func (s *exportService) markExtracting(topicID string, url string, extracting bool) {
	s.board.UpdateImage(topicID, url, ImagePatch{IsExtracting: &extracting})
}

func (s *exportService) storeExtracted(topicID string, url string, dataURL string) {
	extracting := false
	s.board.UpdateImage(topicID, url, ImagePatch{ExtractedURL: &dataURL, IsExtracting: &extracting})
}

func (s *exportService) emitProgress(percent int) {
	s.mu.Lock()
	s.status.Progress = percent
	observers := append([]ExportObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.OnProgress(percent)
	}
}

func (s *exportService) emitLog(level LogLevel, message string) {
	entry := LogEntry{Time: time.Now(), Level: level, Message: message}

	s.mu.Lock()
	s.status.Logs = append(s.status.Logs, entry)
	if len(s.status.Logs) > s.opts.LogBuffer {
		s.status.Logs = s.status.Logs[len(s.status.Logs)-s.opts.LogBuffer:]
	}
	observers := append([]ExportObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.OnLog(entry)
	}
}
