package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/genai"

	"go.uber.org/zap"
)

type stubEditor struct {
	calls   int
	results []func() (*genai.ImageEditResult, error)
	lastReq genai.ImageEditRequest
}

func (e *stubEditor) EditImage(ctx context.Context, req genai.ImageEditRequest) (*genai.ImageEditResult, error) {
	e.lastReq = req
	idx := e.calls
	e.calls++
	if idx >= len(e.results) {
		idx = len(e.results) - 1
	}
	return e.results[idx]()
}

func fastOpts() ExtractOptions {
	return ExtractOptions{
		MaxAttempts: 3,
		BaseDelay:   time.Microsecond,
		BackoffUnit: time.Microsecond,
	}
}

func pngImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
}

func TestRemoveBackgroundSucceedsAfterTransientFailures(t *testing.T) {
	srv := pngImageServer(t)
	defer srv.Close()

	editor := &stubEditor{results: []func() (*genai.ImageEditResult, error){
		func() (*genai.ImageEditResult, error) { return nil, errors.New("overloaded") },
		func() (*genai.ImageEditResult, error) { return nil, errors.New("overloaded") },
		func() (*genai.ImageEditResult, error) { return &genai.ImageEditResult{ImageBase64: "QUJD"}, nil },
	}}
	svc := NewExtractService(editor, fastOpts(), zap.NewNop())

	dataURL, err := svc.RemoveBackground(context.Background(), srv.URL+"/banana.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dataURL != "data:image/png;base64,QUJD" {
		t.Errorf("unexpected data url %q", dataURL)
	}
	if editor.calls != 3 {
		t.Errorf("expected 3 model calls, got %d", editor.calls)
	}
}

func TestRemoveBackgroundPropagatesLastError(t *testing.T) {
	srv := pngImageServer(t)
	defer srv.Close()

	editor := &stubEditor{results: []func() (*genai.ImageEditResult, error){
		func() (*genai.ImageEditResult, error) { return nil, errors.New("error one") },
		func() (*genai.ImageEditResult, error) { return nil, errors.New("error two") },
		func() (*genai.ImageEditResult, error) { return nil, errors.New("error three") },
	}}
	svc := NewExtractService(editor, fastOpts(), zap.NewNop())

	_, err := svc.RemoveBackground(context.Background(), srv.URL+"/banana.png")
	if err == nil || err.Error() != "error three" {
		t.Errorf("expected last error propagated, got %v", err)
	}
	if editor.calls != 3 {
		t.Errorf("expected 3 model calls, got %d", editor.calls)
	}
}

func TestRemoveBackgroundTextOnlyReplyIsRefusal(t *testing.T) {
	srv := pngImageServer(t)
	defer srv.Close()

	editor := &stubEditor{results: []func() (*genai.ImageEditResult, error){
		func() (*genai.ImageEditResult, error) {
			return &genai.ImageEditResult{Text: "I cannot edit this image."}, nil
		},
	}}
	svc := NewExtractService(editor, fastOpts(), zap.NewNop())

	_, err := svc.RemoveBackground(context.Background(), srv.URL+"/banana.png")
	if err == nil || !strings.Contains(err.Error(), "I cannot edit this image.") {
		t.Errorf("expected refusal error with model text, got %v", err)
	}
	if editor.calls != 3 {
		t.Errorf("refusals should be retried, got %d calls", editor.calls)
	}
}

func TestRemoveBackgroundRasterizesSVG(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10" fill="red"/></svg>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		fmt.Fprint(w, svg)
	}))
	defer srv.Close()

	editor := &stubEditor{results: []func() (*genai.ImageEditResult, error){
		func() (*genai.ImageEditResult, error) { return &genai.ImageEditResult{ImageBase64: "QUJD"}, nil },
	}}
	svc := NewExtractService(editor, fastOpts(), zap.NewNop())

	if _, err := svc.RemoveBackground(context.Background(), srv.URL+"/diagram.svg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if editor.lastReq.MimeType != "image/png" {
		t.Errorf("svg input should reach the model as png, got %q", editor.lastReq.MimeType)
	}
	if editor.lastReq.DataBase64 == "" {
		t.Error("expected rasterized payload")
	}
}

func TestRemoveBackgroundFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	editor := &stubEditor{results: []func() (*genai.ImageEditResult, error){
		func() (*genai.ImageEditResult, error) { return &genai.ImageEditResult{ImageBase64: "QUJD"}, nil },
	}}
	svc := NewExtractService(editor, fastOpts(), zap.NewNop())

	_, err := svc.RemoveBackground(context.Background(), srv.URL+"/banana.png")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if editor.calls != 0 {
		t.Errorf("model should not be called when fetch fails, got %d calls", editor.calls)
	}
}
