package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubTextModel struct {
	response string
	err      error
	calls    int
}

func (m *stubTextModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.response, m.err
}

func TestOptimizerService(t *testing.T) {
	tests := []struct {
		name         string
		model        *stubTextModel
		wantGeneral  string
		wantArt      string
		wantArchival string
		wantSpace    string
	}{
		{
			name:         "valid json",
			model:        &stubTextModel{response: `{"generalPhrase":"banana fruit","archivalPhrase":"banana plantation","artPhrase":"banana still life","spacePhrase":"banana crop satellite"}`},
			wantGeneral:  "banana fruit",
			wantArt:      "banana still life",
			wantArchival: "banana plantation",
			wantSpace:    "banana crop satellite",
		},
		{
			name:         "code fenced json",
			model:        &stubTextModel{response: "```json\n{\"generalPhrase\":\"banana fruit\",\"archivalPhrase\":\"x\",\"artPhrase\":\"y\",\"spacePhrase\":\"z\"}\n```"},
			wantGeneral:  "banana fruit",
			wantArt:      "y",
			wantArchival: "x",
			wantSpace:    "z",
		},
		{
			name:         "missing field falls back independently",
			model:        &stubTextModel{response: `{"generalPhrase":"banana fruit","artPhrase":""}`},
			wantGeneral:  "banana fruit",
			wantArt:      "Bananas",
			wantArchival: "Bananas",
			wantSpace:    "Bananas",
		},
		{
			name:         "model error falls back entirely",
			model:        &stubTextModel{err: errors.New("quota exceeded")},
			wantGeneral:  "Bananas",
			wantArt:      "Bananas",
			wantArchival: "Bananas",
			wantSpace:    "Bananas",
		},
		{
			name:         "invalid json falls back entirely",
			model:        &stubTextModel{response: "certainly! here are your phrases"},
			wantGeneral:  "Bananas",
			wantArt:      "Bananas",
			wantArchival: "Bananas",
			wantSpace:    "Bananas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewOptimizerService(tt.model, zap.NewNop())
			q := svc.Optimize(context.Background(), "Bananas")
			if q.GeneralPhrase != tt.wantGeneral {
				t.Errorf("GeneralPhrase = %q, want %q", q.GeneralPhrase, tt.wantGeneral)
			}
			if q.ArtPhrase != tt.wantArt {
				t.Errorf("ArtPhrase = %q, want %q", q.ArtPhrase, tt.wantArt)
			}
			if q.ArchivalPhrase != tt.wantArchival {
				t.Errorf("ArchivalPhrase = %q, want %q", q.ArchivalPhrase, tt.wantArchival)
			}
			if q.SpacePhrase != tt.wantSpace {
				t.Errorf("SpacePhrase = %q, want %q", q.SpacePhrase, tt.wantSpace)
			}
		})
	}

	t.Run("nil model falls back without call", func(t *testing.T) {
		svc := NewOptimizerService(nil, zap.NewNop())
		q := svc.Optimize(context.Background(), "Bananas")
		if q.GeneralPhrase != "Bananas" {
			t.Errorf("expected raw topic fallback, got %q", q.GeneralPhrase)
		}
	})
}
