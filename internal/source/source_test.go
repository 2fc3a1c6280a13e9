package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/pd-clipper-service/internal/domain"
)

func testClient() *Client {
	return NewClient(5 * time.Second)
}

func TestWikimediaFetchImages(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("gsrsearch")
		fmt.Fprint(w, `{"query":{"pages":{
			"22":{"index":2,"title":"File:Second.jpg","imageinfo":[{"url":"https://upload.example.org/second.jpg","descriptionurl":"https://commons.example.org/wiki/File:Second.jpg","thumburl":"https://upload.example.org/second_400.jpg","extmetadata":{"LicenseShortName":{"value":"CC0"},"Artist":{"value":"<a href=\"#\">Jane Painter</a>"}}}]},
			"11":{"index":1,"title":"File:First.jpg","imageinfo":[{"url":"https://upload.example.org/first.jpg","descriptionurl":"https://commons.example.org/wiki/File:First.jpg","thumburl":"https://upload.example.org/first_400.jpg","extmetadata":{}}]},
			"33":{"index":3,"title":"File:NoInfo.jpg"}
		}}}`)
	}))
	defer srv.Close()

	adapter := NewWikimedia(testClient(), srv.URL)
	records, err := adapter.FetchImages(context.Background(), "Category:Bananas", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery != "Bananas filetype:bitmap" {
		t.Errorf("unexpected gsrsearch %q", gotQuery)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "First.jpg" || records[1].Title != "Second.jpg" {
		t.Errorf("records not ordered by search index: %q, %q", records[0].Title, records[1].Title)
	}
	if records[0].License != "Public Domain" || records[0].Attribution != "Wikimedia Commons" {
		t.Errorf("missing metadata fallbacks: %+v", records[0])
	}
	if records[1].Attribution != "Jane Painter" {
		t.Errorf("html not stripped from attribution: %q", records[1].Attribution)
	}
	if records[0].Source != domain.SourceWikimedia {
		t.Errorf("record not stamped with source")
	}
}

func TestMetFetchImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/public/collection/v1/search"):
			if r.URL.Query().Get("isPublicDomain") != "true" || r.URL.Query().Get("hasImages") != "true" {
				t.Errorf("missing public-domain filters: %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, `{"objectIDs":[101,102,103]}`)
		case r.URL.Path == "/public/collection/v1/objects/101":
			fmt.Fprint(w, `{"title":"Vase","primaryImage":"https://images.example.org/101.jpg","primaryImageSmall":"https://images.example.org/101s.jpg","objectURL":"https://met.example.org/101","artistDisplayName":"Greek","objectDate":"300 BC"}`)
		case r.URL.Path == "/public/collection/v1/objects/102":
			fmt.Fprint(w, `{"title":"No Image Object","primaryImage":""}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	adapter := NewMet(testClient(), srv.URL)
	records, err := adapter.FetchImages(context.Background(), "vase", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Title != "Vase" || records[0].Attribution != "Greek (300 BC)" {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestAICFetchImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "is_public_domain") {
			t.Errorf("missing public-domain filter: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"data":[
			{"id":7,"title":"Haystacks","image_id":"abc-123","artist_display":"Claude Monet","date_display":"1890"},
			{"id":8,"title":"No Image","image_id":""}
		]}`)
	}))
	defer srv.Close()

	adapter := NewAIC(testClient(), srv.URL, "https://iiif.example.org")
	records, err := adapter.FetchImages(context.Background(), "haystacks", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].URL != "https://iiif.example.org/abc-123/full/843,/0/default.jpg" {
		t.Errorf("unexpected iiif url %q", records[0].URL)
	}
	if records[0].ThumbURL != "https://iiif.example.org/abc-123/full/400,/0/default.jpg" {
		t.Errorf("unexpected iiif thumb url %q", records[0].ThumbURL)
	}
}

func TestNASAFetchImagesSlicesManually(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("media_type") != "image" {
			t.Errorf("missing media_type filter")
		}
		fmt.Fprint(w, `{"collection":{"items":[
			{"links":[{"href":"https://img.example.org/a.jpg"}],"data":[{"title":"Apollo","nasa_id":"a1","photographer":"NASA/JSC"}]},
			{"links":[{"href":"https://img.example.org/b.jpg"}],"data":[{"title":"Gemini","nasa_id":"b1","center":"JSC"}]},
			{"links":[{"href":"https://img.example.org/c.jpg"}],"data":[{"title":"Mercury","nasa_id":"c1"}]}
		]}}`)
	}))
	defer srv.Close()

	adapter := NewNASA(testClient(), srv.URL)
	records, err := adapter.FetchImages(context.Background(), "apollo", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected results truncated to 2, got %d", len(records))
	}
	if records[0].Attribution != "NASA/JSC" || records[1].Attribution != "JSC" {
		t.Errorf("attribution fallback wrong: %q, %q", records[0].Attribution, records[1].Attribution)
	}
}

func TestClevelandFetchImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("cc0") != "1" || q.Get("has_image") != "1" {
			t.Errorf("missing cc0/has_image filters: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"data":[
			{"id":5,"title":"Twilight","url":"https://cma.example.org/art/5","images":{"web":{"url":"https://cma.example.org/5.jpg"},"print":{"url":"https://cma.example.org/5p.jpg"}},"creators":[{"description":"F. Church (American, 1826-1900)"}]},
			{"id":6,"title":"No Image","images":{}}
		]}`)
	}))
	defer srv.Close()

	adapter := NewCleveland(testClient(), srv.URL)
	records, err := adapter.FetchImages(context.Background(), "twilight", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Attribution != "F. Church (American, 1826-1900)" {
		t.Errorf("unexpected attribution %q", records[0].Attribution)
	}
}

func TestLOCFetchImages(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"results":[
			{"title":"Farm Photo","image_url":["https://loc.example.org/t.gif","https://loc.example.org/full.jpg"],"url":"/item/123/","call_number":"LOT 42"},
			{"title":"No Image","image_url":[]}
		]}`)
	}))
	defer srv.Close()

	adapter := NewLOC(testClient(), srv.URL)
	records, err := adapter.FetchImages(context.Background(), "Category:Farm_Life", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "Farm Life" {
		t.Errorf("category prefix/underscores not cleaned: %q", gotQuery)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].URL != "https://loc.example.org/full.jpg" {
		t.Errorf("expected last image_url entry, got %q", records[0].URL)
	}
	if records[0].Attribution != "Library of Congress, Call Number: LOT 42" {
		t.Errorf("unexpected attribution %q", records[0].Attribution)
	}
}

func TestInternetArchiveFetchImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "mediatype") {
			t.Errorf("missing mediatype filter: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"response":{"docs":[{"identifier":"banana-plates-1900","title":"Banana Plates"}]}}`)
	}))
	defer srv.Close()

	adapter := NewInternetArchive(testClient(), srv.URL)
	records, err := adapter.FetchImages(context.Background(), "bananas", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	want := srv.URL + "/download/banana-plates-1900/banana-plates-1900.jpg"
	if records[0].URL != want {
		t.Errorf("unexpected download url %q, want %q", records[0].URL, want)
	}
}
