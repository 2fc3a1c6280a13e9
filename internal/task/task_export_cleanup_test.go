package task

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/pd-clipper-service/global"

	"go.uber.org/zap"
)

func TestExportCleanupTaskRemovesExpiredArchives(t *testing.T) {
	global.Logger = zap.NewNop()
	dir := t.TempDir()

	expired := filepath.Join(dir, "old_Originals.zip")
	fresh := filepath.Join(dir, "new_Extracted.zip")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{expired, fresh, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(expired, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, past, past); err != nil {
		t.Fatal(err)
	}

	task := NewExportCleanupTask(dir, 24*time.Hour)
	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(expired); !os.IsNotExist(err) {
		t.Error("expired archive should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh archive should survive")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-zip files should be left alone")
	}
}

func TestExportCleanupTaskMissingDirIsNoop(t *testing.T) {
	global.Logger = zap.NewNop()
	task := NewExportCleanupTask(filepath.Join(t.TempDir(), "missing"), time.Hour)
	if err := task.Run(context.Background()); err != nil {
		t.Errorf("missing dir should not error: %v", err)
	}
}
