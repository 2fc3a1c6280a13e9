package task

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/pd-clipper-service/global"
	"go.uber.org/zap"
)

// ExportCleanupTask 按保留期清理导出目录里的压缩包
type ExportCleanupTask struct {
	exportDir string
	retention time.Duration
}

// NewExportCleanupTask 创建导出清理任务
func NewExportCleanupTask(exportDir string, retention time.Duration) Task {
	return &ExportCleanupTask{
		exportDir: exportDir,
		retention: retention,
	}
}

// Name 任务名称
func (t *ExportCleanupTask) Name() string {
	return "ExportArchiveCleanupTask"
}

// LoopInterval 执行间隔
func (t *ExportCleanupTask) LoopInterval() time.Duration {
	// 至少每小时巡检一次，保留期更短时跟着保留期走
	if t.retention < time.Hour {
		return t.retention
	}
	return time.Hour
}

// IsStartupRun 是否立即执行一次
func (t *ExportCleanupTask) IsStartupRun() bool {
	return true
}

// Run 删除超过保留期的压缩包
func (t *ExportCleanupTask) Run(ctx context.Context) error {
	entries, err := os.ReadDir(t.exportDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-t.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(t.exportDir, entry.Name())
		if err := os.Remove(path); err != nil {
			global.Logger.Warn("failed to remove expired archive", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		global.Logger.Info("expired export archives removed", zap.Int("count", removed), zap.String("path", t.exportDir))
	}
	return nil
}
