package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestBoardTopicLifecycle(t *testing.T) {
	board := NewBoardService()

	first := board.AddTopic("Bananas")
	second := board.AddTopic("Mushrooms")

	snap := board.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(snap))
	}
	if snap[0].Topic.Name != "Mushrooms" {
		t.Errorf("newest topic should be first, got %q", snap[0].Topic.Name)
	}
	if !snap[0].Selected || !snap[1].Selected {
		t.Error("new topics should default to selected")
	}
	if board.AllLoaded() {
		t.Error("loading topics present, AllLoaded should be false")
	}

	images := []domain.ImageRecord{{Title: "Cavendish", URL: "https://example.org/c.jpg"}}
	if !board.ResolveTopic(first.ID, "The banana plant", images) {
		t.Fatal("resolve failed for existing topic")
	}
	if !board.FailTopic(second.ID) {
		t.Fatal("fail failed for existing topic")
	}
	if !board.AllLoaded() {
		t.Error("expected AllLoaded after all topics settle")
	}

	topics, imageCount := board.Counts()
	if topics != 2 || imageCount != 1 {
		t.Errorf("Counts() = (%d, %d), want (2, 1)", topics, imageCount)
	}
}

func TestBoardResolveRemovedTopicIsNoop(t *testing.T) {
	board := NewBoardService()
	topic := board.AddTopic("Bananas")

	if !board.RemoveTopic(topic.ID) {
		t.Fatal("remove failed")
	}
	if board.ResolveTopic(topic.ID, "", nil) {
		t.Error("resolve of removed topic should be a no-op")
	}
	if board.FailTopic(topic.ID) {
		t.Error("fail of removed topic should be a no-op")
	}
	if len(board.Snapshot()) != 0 {
		t.Error("expected empty board")
	}
}

func TestBoardSelectionPrunedOnRemove(t *testing.T) {
	board := NewBoardService()
	topic := board.AddTopic("Bananas")
	keep := board.AddTopic("Mushrooms")

	board.RemoveTopic(topic.ID)
	if board.SetSelected(topic.ID, true) {
		t.Error("selecting a removed topic should fail")
	}

	board.SetAllSelected(false)
	snap := board.Snapshot()
	if len(snap) != 1 || snap[0].Topic.ID != keep.ID || snap[0].Selected {
		t.Errorf("unexpected snapshot after deselect all: %+v", snap)
	}
}

func TestBoardUpdateImage(t *testing.T) {
	board := NewBoardService()
	topic := board.AddTopic("Bananas")
	board.ResolveTopic(topic.ID, "", []domain.ImageRecord{
		{Title: "Cavendish", URL: "https://example.org/c.jpg"},
	})

	t.Run("marks extracting", func(t *testing.T) {
		if !board.UpdateImage(topic.ID, "https://example.org/c.jpg", ImagePatch{IsExtracting: boolPtr(true)}) {
			t.Fatal("expected update to apply")
		}
		snap := board.Snapshot()
		if !snap[0].Topic.Images[0].IsExtracting {
			t.Error("IsExtracting not set")
		}
	})

	t.Run("identical patch is a no-op", func(t *testing.T) {
		if board.UpdateImage(topic.ID, "https://example.org/c.jpg", ImagePatch{IsExtracting: boolPtr(true)}) {
			t.Error("patch with no actual change should report false")
		}
	})

	t.Run("stores extracted url", func(t *testing.T) {
		ok := board.UpdateImage(topic.ID, "https://example.org/c.jpg", ImagePatch{
			ExtractedURL: strPtr("data:image/png;base64,QUJD"),
			IsExtracting: boolPtr(false),
		})
		if !ok {
			t.Fatal("expected update to apply")
		}
		snap := board.Snapshot()
		img := snap[0].Topic.Images[0]
		if img.ExtractedURL == "" || img.IsExtracting {
			t.Errorf("unexpected image state: %+v", img)
		}
	})

	t.Run("missing keys are no-ops", func(t *testing.T) {
		if board.UpdateImage("nope", "https://example.org/c.jpg", ImagePatch{IsExtracting: boolPtr(true)}) {
			t.Error("unknown topic should be a no-op")
		}
		if board.UpdateImage(topic.ID, "https://example.org/nope.jpg", ImagePatch{IsExtracting: boolPtr(true)}) {
			t.Error("unknown url should be a no-op")
		}
	})
}

func TestBoardBeginExtract(t *testing.T) {
	board := NewBoardService()
	topic := board.AddTopic("Bananas")
	board.ResolveTopic(topic.ID, "", []domain.ImageRecord{
		{Title: "Cavendish", URL: "https://example.org/c.jpg"},
	})

	t.Run("first caller wins", func(t *testing.T) {
		found, started := board.BeginExtract(topic.ID, "https://example.org/c.jpg")
		if !found || !started {
			t.Fatalf("BeginExtract() = (%v, %v), want (true, true)", found, started)
		}
		found, started = board.BeginExtract(topic.ID, "https://example.org/c.jpg")
		if !found || started {
			t.Errorf("second BeginExtract() = (%v, %v), want (true, false)", found, started)
		}
	})

	t.Run("available again after clear", func(t *testing.T) {
		board.UpdateImage(topic.ID, "https://example.org/c.jpg", ImagePatch{IsExtracting: boolPtr(false)})
		if _, started := board.BeginExtract(topic.ID, "https://example.org/c.jpg"); !started {
			t.Error("expected BeginExtract to succeed after the previous run cleared")
		}
	})

	t.Run("missing keys", func(t *testing.T) {
		if found, _ := board.BeginExtract("nope", "https://example.org/c.jpg"); found {
			t.Error("unknown topic should report not found")
		}
		if found, _ := board.BeginExtract(topic.ID, "https://example.org/nope.jpg"); found {
			t.Error("unknown url should report not found")
		}
	})

	t.Run("concurrent callers get one winner", func(t *testing.T) {
		board.UpdateImage(topic.ID, "https://example.org/c.jpg", ImagePatch{IsExtracting: boolPtr(false)})

		var wg sync.WaitGroup
		var wins int32
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, started := board.BeginExtract(topic.ID, "https://example.org/c.jpg"); started {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Errorf("expected exactly one caller to start extraction, got %d", wins)
		}
	})
}

func TestBoardSelectedResults(t *testing.T) {
	board := NewBoardService()
	loaded := board.AddTopic("Bananas")
	failed := board.AddTopic("Mushrooms")
	loading := board.AddTopic("Ferns")
	_ = loading

	board.ResolveTopic(loaded.ID, "", []domain.ImageRecord{{Title: "A", URL: "u"}})
	board.FailTopic(failed.ID)

	results := board.SelectedResults()
	if len(results) != 1 || results[0].Topic.ID != loaded.ID {
		t.Fatalf("expected only the loaded topic, got %d results", len(results))
	}

	board.SetSelected(loaded.ID, false)
	if len(board.SelectedResults()) != 0 {
		t.Error("deselected topic should not appear in selected results")
	}
}
