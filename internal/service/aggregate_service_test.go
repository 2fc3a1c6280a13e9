package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
	"github.com/haierkeys/pd-clipper-service/internal/source"

	"go.uber.org/zap"
)

type stubAdapter struct {
	name    domain.Source
	records []domain.ImageRecord
	err     error
	calls   atomic.Int32
	limits  chan int
}

func newStubAdapter(name domain.Source, count int) *stubAdapter {
	a := &stubAdapter{name: name, limits: make(chan int, 8)}
	for i := 0; i < count; i++ {
		rec := domain.ImageRecord{
			Title: fmt.Sprintf("%s-%d", name, i),
			URL:   fmt.Sprintf("https://example.org/%s/%d.jpg", name, i),
		}
		rec.Stamp(name)
		a.records = append(a.records, rec)
	}
	return a
}

func (a *stubAdapter) Name() domain.Source { return a.name }

func (a *stubAdapter) FetchImages(ctx context.Context, query string, limit int) ([]domain.ImageRecord, error) {
	a.calls.Add(1)
	a.limits <- limit
	if a.err != nil {
		return nil, a.err
	}
	records := a.records
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

type fixedOptimizer struct{}

func (fixedOptimizer) Optimize(ctx context.Context, topic string) domain.SmartQuery {
	return domain.SmartQuery{GeneralPhrase: topic, ArchivalPhrase: topic, ArtPhrase: topic, SpacePhrase: topic}
}

func TestAggregateTopicImages(t *testing.T) {
	t.Run("interleaves in priority order", func(t *testing.T) {
		wiki := newStubAdapter(domain.SourceWikimedia, 2)
		met := newStubAdapter(domain.SourceMet, 2)
		loc := newStubAdapter(domain.SourceLOC, 1)
		svc := NewAggregateService(fixedOptimizer{}, []source.Adapter{wiki, met, loc}, 50, zap.NewNop())

		records := svc.TopicImages(context.Background(), "bananas", domain.AllSourceSet(), 2)

		want := []string{"wikimedia-0", "met-0", "loc-0", "wikimedia-1", "met-1"}
		if len(records) != len(want) {
			t.Fatalf("expected %d records, got %d", len(want), len(records))
		}
		for i, title := range want {
			if records[i].Title != title {
				t.Errorf("records[%d] = %q, want %q", i, records[i].Title, title)
			}
		}
	})

	t.Run("disabled source is never called", func(t *testing.T) {
		wiki := newStubAdapter(domain.SourceWikimedia, 2)
		met := newStubAdapter(domain.SourceMet, 2)
		svc := NewAggregateService(fixedOptimizer{}, []source.Adapter{wiki, met}, 50, zap.NewNop())

		enabled := domain.SourceSet(0).With(domain.SourceMet)
		records := svc.TopicImages(context.Background(), "bananas", enabled, 2)

		if wiki.calls.Load() != 0 {
			t.Errorf("disabled adapter was called %d times", wiki.calls.Load())
		}
		for _, rec := range records {
			if rec.Source != domain.SourceMet {
				t.Errorf("unexpected record from %s", rec.Source)
			}
		}
	})

	t.Run("wikimedia gets one extra slot", func(t *testing.T) {
		wiki := newStubAdapter(domain.SourceWikimedia, 5)
		met := newStubAdapter(domain.SourceMet, 5)
		svc := NewAggregateService(fixedOptimizer{}, []source.Adapter{wiki, met}, 50, zap.NewNop())

		svc.TopicImages(context.Background(), "bananas", domain.AllSourceSet(), 3)

		if limit := <-wiki.limits; limit != 4 {
			t.Errorf("wikimedia limit = %d, want 4", limit)
		}
		if limit := <-met.limits; limit != 3 {
			t.Errorf("met limit = %d, want 3", limit)
		}
	})

	t.Run("failed source degrades to empty", func(t *testing.T) {
		wiki := newStubAdapter(domain.SourceWikimedia, 2)
		wiki.err = errors.New("upstream 503")
		met := newStubAdapter(domain.SourceMet, 2)
		svc := NewAggregateService(fixedOptimizer{}, []source.Adapter{wiki, met}, 50, zap.NewNop())

		records := svc.TopicImages(context.Background(), "bananas", domain.AllSourceSet(), 2)

		if len(records) != 2 {
			t.Fatalf("expected 2 records from healthy source, got %d", len(records))
		}
		for _, rec := range records {
			if rec.Source != domain.SourceMet {
				t.Errorf("unexpected record from %s", rec.Source)
			}
		}
	})

	t.Run("total cap applied after interleave", func(t *testing.T) {
		wiki := newStubAdapter(domain.SourceWikimedia, 4)
		met := newStubAdapter(domain.SourceMet, 4)
		svc := NewAggregateService(fixedOptimizer{}, []source.Adapter{wiki, met}, 5, zap.NewNop())

		records := svc.TopicImages(context.Background(), "bananas", domain.AllSourceSet(), 4)
		if len(records) != 5 {
			t.Fatalf("expected cap of 5, got %d", len(records))
		}
	})
}
