package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/domain"

	"github.com/creasty/defaults"
	"go.uber.org/zap"
)

// emptyMetServer 模拟大都会检索接口返回零结果
func emptyMetServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":0,"objectIDs":[]}`))
	}))
}

func newTestApp(t *testing.T, metURL string) *App {
	t.Helper()

	cfg := new(AppConfig)
	if err := defaults.Set(cfg); err != nil {
		t.Fatal(err)
	}
	cfg.App.ExportSavePath = t.TempDir()
	cfg.Sources.Enabled = []string{"met"}
	cfg.Sources.MetBaseURL = metURL
	cfg.AI.APIKey = ""

	a, err := NewApp(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a
}

func waitTopic(t *testing.T, ch <-chan domain.Topic) domain.Topic {
	t.Helper()
	select {
	case topic := <-ch:
		return topic
	case <-time.After(10 * time.Second):
		t.Fatal("search did not settle in time")
		return domain.Topic{}
	}
}

func TestSearchTopicZeroResultsStillSucceeds(t *testing.T) {
	srv := emptyMetServer()
	defer srv.Close()

	a := newTestApp(t, srv.URL)

	done := make(chan domain.Topic, 1)
	topic, err := a.SearchTopic("Forgotten Machines", domain.AllSourceSet(), 1, func(tp domain.Topic) {
		done <- tp
	})
	if err != nil {
		t.Fatalf("search failed to start: %v", err)
	}
	if topic.Status != domain.TopicLoading {
		t.Errorf("new topic should start loading, got %q", topic.Status)
	}

	settled := waitTopic(t, done)
	if settled.Status != domain.TopicSuccess {
		t.Errorf("zero-result search should settle as %q, got %q", domain.TopicSuccess, settled.Status)
	}
	if len(settled.Images) != 0 {
		t.Errorf("expected empty topic, got %d images", len(settled.Images))
	}
	if settled.Description != "Custom Search" {
		t.Errorf("user search description = %q, want %q", settled.Description, "Custom Search")
	}
}

func TestSeedBootstrapTopicDescription(t *testing.T) {
	srv := emptyMetServer()
	defer srv.Close()

	a := newTestApp(t, srv.URL)

	done := make(chan domain.Topic, 1)
	a.SeedBootstrapTopic(func(tp domain.Topic) {
		done <- tp
	})

	settled := waitTopic(t, done)
	if settled.Status != domain.TopicSuccess {
		t.Errorf("bootstrap topic should settle as %q, got %q", domain.TopicSuccess, settled.Status)
	}
	if settled.Description != "Demo Subject" {
		t.Errorf("bootstrap description = %q, want %q", settled.Description, "Demo Subject")
	}
}
