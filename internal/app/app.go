// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
	"github.com/haierkeys/pd-clipper-service/internal/genai"
	"github.com/haierkeys/pd-clipper-service/internal/service"
	"github.com/haierkeys/pd-clipper-service/internal/source"
	pkgapp "github.com/haierkeys/pd-clipper-service/pkg/app"
	"github.com/haierkeys/pd-clipper-service/pkg/fileurl"
	"github.com/haierkeys/pd-clipper-service/pkg/workerpool"

	"go.uber.org/zap"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger

	// 并发控制组件
	workerPool *workerpool.Pool

	// 档案库适配器
	Adapters []source.Adapter
	// 配置层启用的图源集合，请求层的选择再与其求交
	defaultSources domain.SourceSet

	// Service 层
	BoardService     service.BoardService
	OptimizerService service.OptimizerService
	AggregateService service.AggregateService
	ExtractService   service.ExtractService
	ExportService    service.ExportService

	// 启动时间
	StartTime time.Time

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化导出目录
	if err := fileurl.CreatePath(cfg.App.ExportSavePath, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	// 解析配置层启用的图源
	defaultSources, err := domain.ParseSourceSet(cfg.Sources.Enabled)
	if err != nil {
		return nil, fmt.Errorf("parse enabled sources: %w", err)
	}
	a.defaultSources = defaultSources

	// 初始化档案库适配器
	client := source.NewClient(cfg.GetSourcesTimeout())
	a.Adapters = source.NewAdapters(client, source.Config{
		WikimediaBaseURL: cfg.Sources.WikimediaBaseURL,
		MetBaseURL:       cfg.Sources.MetBaseURL,
		AICBaseURL:       cfg.Sources.AICBaseURL,
		AICIIIFBaseURL:   cfg.Sources.AICIIIFBaseURL,
		NASABaseURL:      cfg.Sources.NASABaseURL,
		ClevelandBaseURL: cfg.Sources.ClevelandBaseURL,
		LOCBaseURL:       cfg.Sources.LOCBaseURL,
		IABaseURL:        cfg.Sources.IABaseURL,
	})

	// 初始化文本模型；失败时查询优化降级为原始主题短语
	var textModel genai.TextModel
	if cfg.AI.APIKey != "" {
		model, err := genai.NewModel(context.Background(), genai.ModelConfig{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.TextModel,
			BaseURL:  cfg.AI.BaseURL,
		})
		if err != nil {
			logger.Warn("text model unavailable, query optimization disabled", zap.Error(err))
		} else {
			textModel = model
		}
	} else {
		logger.Warn("no AI api key configured, query optimization disabled")
	}

	// 初始化图像编辑客户端
	editor := genai.NewImageEditClient(genai.ImageEditConfig{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.ImageModel,
		BaseURL: cfg.AI.BaseURL,
	})

	// 初始化 Service 层（依赖注入）
	a.BoardService = service.NewBoardService()
	a.OptimizerService = service.NewOptimizerService(textModel, logger)
	a.AggregateService = service.NewAggregateService(a.OptimizerService, a.Adapters, cfg.App.MaxInterleaved, logger)
	a.ExtractService = service.NewExtractService(editor, service.ExtractOptions{
		MaxAttempts: cfg.AI.ExtractMaxAttempts,
		BaseDelay:   cfg.GetExtractBaseDelay(),
		BackoffUnit: cfg.GetExtractBackoffUnit(),
	}, logger)
	a.ExportService = service.NewExportService(a.BoardService, a.ExtractService, cfg.App.ExportSavePath, service.ExportOptions{}, logger)

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("adapters", len(a.Adapters)))

	return a, nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// SubmitTask 提交任务到 Worker Pool
// 返回错误如果池已满或已关闭
func (a *App) SubmitTask(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.Submit(ctx, task)
}

// SubmitTaskAsync 异步提交任务到 Worker Pool（不等待结果）
// 返回错误如果池已满或已关闭
func (a *App) SubmitTaskAsync(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.SubmitAsync(ctx, task)
}

// WorkerPool 获取 Worker Pool
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// SearchTopic 新建主题并异步检索图片
// 检索完成后通过 onDone 回调通知（成功或失败后的主题快照）
func (a *App) SearchTopic(name string, enabled domain.SourceSet, perSourceLimit int, onDone func(topic domain.Topic)) (domain.Topic, error) {
	return a.searchTopic(name, "Custom Search", enabled, perSourceLimit, onDone)
}

func (a *App) searchTopic(name string, description string, enabled domain.SourceSet, perSourceLimit int, onDone func(topic domain.Topic)) (domain.Topic, error) {
	if perSourceLimit <= 0 {
		perSourceLimit = a.config.App.PerSourceLimit
	}
	// 请求层选择与配置层启用集合求交
	enabled &= a.defaultSources

	topic := a.BoardService.AddTopic(name)

	err := a.SubmitTaskAsync(context.Background(), func(ctx context.Context) error {
		timeout := time.Duration(a.config.App.DefaultContextTimeout) * time.Second
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		// 检索正常完成即为 success，零结果在画板上呈现为空主题
		images := a.AggregateService.TopicImages(ctx, name, enabled, perSourceLimit)
		a.BoardService.ResolveTopic(topic.ID, description, images)

		if onDone != nil {
			for _, result := range a.BoardService.Snapshot() {
				if result.Topic.ID == topic.ID {
					onDone(result.Topic)
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		// 只有任务无法调度时主题才进入 error 状态
		a.BoardService.FailTopic(topic.ID)
		return topic, err
	}

	return topic, nil
}

// SeedBootstrapTopic 启动时自动检索演示主题
func (a *App) SeedBootstrapTopic(onDone func(topic domain.Topic)) {
	name := a.config.App.BootstrapTopic
	if name == "" {
		return
	}
	if _, err := a.searchTopic(name, "Demo Subject", domain.AllSourceSet(), 0, onDone); err != nil {
		a.logger.Warn("bootstrap topic search failed to start", zap.Error(err))
	}
}

// IsShuttingDown 是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 获取关闭通知通道
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// Shutdown 优雅关闭应用容器
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 1. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 2. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}
