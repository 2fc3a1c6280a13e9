package service

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
	"github.com/haierkeys/pd-clipper-service/pkg/code"

	"go.uber.org/zap"
)

type stubExtractor struct {
	calls atomic.Int32
	err   error
}

func (e *stubExtractor) RemoveBackground(ctx context.Context, imageURL string) (string, error) {
	e.calls.Add(1)
	if e.err != nil {
		return "", e.err
	}
	payload := base64.StdEncoding.EncodeToString([]byte("extracted:" + imageURL))
	return "data:image/png;base64," + payload, nil
}

func fastExportOpts() ExportOptions {
	return ExportOptions{
		DownloadAttempts: 2,
		DownloadDelay:    time.Millisecond,
		HTTPTimeout:      5 * time.Second,
	}
}

func waitExportDone(t *testing.T, svc ExportService) ExportStatus {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		status := svc.Status()
		if !status.Running && (status.Progress > 0 || len(status.Logs) > 0) {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("export did not finish in time")
	return ExportStatus{}
}

func imageServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "blocked") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, "bytes-of-%s", r.URL.Path)
	}))
}

func newExportBoard(srvURL string) (BoardService, domain.Topic, domain.Topic) {
	board := NewBoardService()
	mushrooms := board.AddTopic("Wild Mushrooms")
	bananas := board.AddTopic("Bananas")
	board.ResolveTopic(bananas.ID, "", []domain.ImageRecord{
		{Title: "Cavendish bunch", URL: srvURL + "/cavendish.jpg"},
		{Title: "Plantation map", URL: srvURL + "/map.png"},
	})
	board.ResolveTopic(mushrooms.ID, "", []domain.ImageRecord{
		{Title: "Fly agaric", URL: srvURL + "/agaric.jpg"},
	})
	return board, bananas, mushrooms
}

func TestExportOriginalsArchiveLayout(t *testing.T) {
	srv := imageServer()
	defer srv.Close()

	board, _, _ := newExportBoard(srv.URL)
	dir := t.TempDir()
	svc := NewExportService(board, &stubExtractor{}, dir, fastExportOpts(), zap.NewNop())

	if err := svc.Start(ExportOriginals); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	status := waitExportDone(t, svc)

	if status.LastArchive != "Bananas_WildMushrooms_Originals.zip" {
		t.Fatalf("unexpected archive name %q", status.LastArchive)
	}
	if status.Progress != 100 {
		t.Errorf("expected final progress 100, got %d", status.Progress)
	}

	reader, err := zip.OpenReader(filepath.Join(dir, status.LastArchive))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	want := []string{
		"pd_original_archive/Bananas/01_Cavendish_bunch.jpg",
		"pd_original_archive/Bananas/02_Plantation_map.png",
		"pd_original_archive/Wild_Mushrooms/01_Fly_agaric.jpg",
	}
	if len(names) != len(want) {
		t.Fatalf("archive entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestExportExtractedUsesCacheOnRerun(t *testing.T) {
	srv := imageServer()
	defer srv.Close()

	board, _, _ := newExportBoard(srv.URL)
	dir := t.TempDir()
	extractor := &stubExtractor{}
	svc := NewExportService(board, extractor, dir, fastExportOpts(), zap.NewNop())

	if err := svc.Start(ExportExtracted); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	status := waitExportDone(t, svc)
	if status.LastArchive != "Bananas_WildMushrooms_Extracted.zip" {
		t.Fatalf("unexpected archive name %q", status.LastArchive)
	}
	if got := extractor.calls.Load(); got != 3 {
		t.Fatalf("first run should extract 3 images, got %d calls", got)
	}

	// 重跑：全部命中缓存，不再调用模型
	if err := svc.Start(ExportExtracted); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	status = waitExportDone(t, svc)
	if got := extractor.calls.Load(); got != 3 {
		t.Errorf("rerun should make no model calls, total %d", got)
	}
	cacheHits := 0
	for _, entry := range status.Logs {
		if strings.Contains(entry.Message, "Cache hit") {
			cacheHits++
		}
	}
	if cacheHits != 3 {
		t.Errorf("expected 3 cache-hit logs, got %d", cacheHits)
	}

	// 压缩包内容是抠图后的 png
	reader, err := zip.OpenReader(filepath.Join(dir, status.LastArchive))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	for _, f := range reader.File {
		if !strings.HasSuffix(f.Name, ".png") {
			t.Errorf("extracted entry should be png: %q", f.Name)
		}
		if !strings.HasPrefix(f.Name, "collection/") {
			t.Errorf("extracted entry should live under collection/: %q", f.Name)
		}
	}
}

func TestExportExtractedContinuesPastFailures(t *testing.T) {
	srv := imageServer()
	defer srv.Close()

	board := NewBoardService()
	topic := board.AddTopic("Bananas")
	board.ResolveTopic(topic.ID, "", []domain.ImageRecord{
		{Title: "Good image", URL: srv.URL + "/good.jpg"},
		{Title: "Bad image", URL: srv.URL + "/other.jpg"},
	})

	dir := t.TempDir()
	extractor := &stubExtractor{err: errors.New("model offline")}
	svc := NewExportService(board, extractor, dir, fastExportOpts(), zap.NewNop())

	if err := svc.Start(ExportExtracted); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	status := waitExportDone(t, svc)

	warnings := 0
	for _, entry := range status.Logs {
		if entry.Level == LogLevelWarning && strings.Contains(entry.Message, "Extraction failed") {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("expected 2 extraction warnings, got %d", warnings)
	}

	// 抠图失败时打包回退到原图
	reader, err := zip.OpenReader(filepath.Join(dir, status.LastArchive))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 2 {
		t.Fatalf("expected 2 fallback originals, got %d", len(reader.File))
	}
	for _, f := range reader.File {
		if !strings.HasSuffix(f.Name, ".jpg") {
			t.Errorf("fallback entry should keep original extension: %q", f.Name)
		}
	}
}

func TestExportOmitsBlockedDownloads(t *testing.T) {
	srv := imageServer()
	defer srv.Close()

	board := NewBoardService()
	topic := board.AddTopic("Bananas")
	board.ResolveTopic(topic.ID, "", []domain.ImageRecord{
		{Title: "Good image", URL: srv.URL + "/good.jpg"},
		{Title: "Blocked image", URL: srv.URL + "/blocked.jpg"},
	})

	dir := t.TempDir()
	svc := NewExportService(board, &stubExtractor{}, dir, fastExportOpts(), zap.NewNop())

	if err := svc.Start(ExportOriginals); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	status := waitExportDone(t, svc)

	blockedWarned := false
	for _, entry := range status.Logs {
		if entry.Level == LogLevelWarning && strings.Contains(entry.Message, "Source blocked") {
			blockedWarned = true
		}
	}
	if !blockedWarned {
		t.Error("expected a source-blocked warning")
	}

	reader, err := zip.OpenReader(filepath.Join(dir, status.LastArchive))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 1 {
		t.Fatalf("blocked file should be omitted, got %d entries", len(reader.File))
	}
	if reader.File[0].Name != "pd_original_archive/Bananas/01_Good_image.jpg" {
		t.Errorf("unexpected entry %q", reader.File[0].Name)
	}
}

func TestExportEmptyTopicsProduceNoArchive(t *testing.T) {
	for _, mode := range []ExportMode{ExportOriginals, ExportExtracted} {
		t.Run(string(mode), func(t *testing.T) {
			board := NewBoardService()
			topic := board.AddTopic("Bananas")
			board.ResolveTopic(topic.ID, "", nil)

			dir := t.TempDir()
			svc := NewExportService(board, &stubExtractor{}, dir, fastExportOpts(), zap.NewNop())

			if err := svc.Start(mode); err != nil {
				t.Fatalf("start failed: %v", err)
			}
			status := waitExportDone(t, svc)

			if status.LastArchive != "" {
				t.Errorf("expected no archive, got %q", status.LastArchive)
			}
			warned := false
			for _, entry := range status.Logs {
				if entry.Level == LogLevelWarning && strings.Contains(entry.Message, "No images found") {
					warned = true
				}
			}
			if !warned {
				t.Error("expected a no-images warning")
			}
			zips, err := filepath.Glob(filepath.Join(dir, "*.zip"))
			if err != nil {
				t.Fatal(err)
			}
			if len(zips) != 0 {
				t.Errorf("no zip should be written, found %v", zips)
			}
		})
	}
}

func TestExportGuards(t *testing.T) {
	board := NewBoardService()
	svc := NewExportService(board, &stubExtractor{}, t.TempDir(), fastExportOpts(), zap.NewNop())

	t.Run("invalid mode", func(t *testing.T) {
		if err := svc.Start(ExportMode("tarball")); !errors.Is(err, code.ErrorExportInvalidMode) {
			t.Errorf("expected invalid-mode error, got %v", err)
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		if err := svc.Start(ExportOriginals); !errors.Is(err, code.ErrorExportEmptySelection) {
			t.Errorf("expected empty-selection error, got %v", err)
		}
	})
}

func TestArchiveFileNameTruncation(t *testing.T) {
	var selected []domain.TopicResult
	for i := 0; i < 8; i++ {
		selected = append(selected, domain.TopicResult{
			Topic: domain.Topic{Name: fmt.Sprintf("VeryLongTopicName%d", i)},
		})
	}
	name := archiveFileName(selected, "Originals")
	if !strings.HasSuffix(name, "_et_al_Originals.zip") {
		t.Errorf("expected truncated name with _et_al suffix, got %q", name)
	}
	base := strings.TrimSuffix(name, "_et_al_Originals.zip")
	if len(base) != 50 {
		t.Errorf("expected 50-char base, got %d", len(base))
	}
}

func TestArchivePathRejectsTraversal(t *testing.T) {
	board := NewBoardService()
	svc := NewExportService(board, &stubExtractor{}, t.TempDir(), fastExportOpts(), zap.NewNop())

	for _, name := range []string{"", "../secret.zip", "a/b.zip", ".hidden"} {
		if _, err := svc.ArchivePath(name); !errors.Is(err, code.ErrorArchiveNotFound) {
			t.Errorf("ArchivePath(%q) should fail, got %v", name, err)
		}
	}
}
