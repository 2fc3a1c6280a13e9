package task

import (
	"time"

	"github.com/haierkeys/pd-clipper-service/pkg/safe_close"
	"go.uber.org/zap"
)

// Manager 任务管理器,负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	logger    *zap.Logger

	exportDir       string
	exportRetention time.Duration
}

// NewManager 创建任务管理器
func NewManager(logger *zap.Logger, sc *safe_close.SafeClose, exportDir string, exportRetention time.Duration) *Manager {
	return &Manager{
		scheduler:       NewScheduler(logger, sc),
		logger:          logger,
		exportDir:       exportDir,
		exportRetention: exportRetention,
	}
}

// RegisterTasks 注册所有任务
func (m *Manager) RegisterTasks() error {
	if m.exportRetention > 0 {
		m.scheduler.AddTask(NewExportCleanupTask(m.exportDir, m.exportRetention))
	} else {
		m.logger.Info("export cleanup task is disabled (retention time not configured)")
	}

	return nil
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
