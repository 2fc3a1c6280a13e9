package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Banana", "Banana"},
		{"spaces to underscore", "Cavendish banana fruit", "Cavendish_banana_fruit"},
		{"punctuation stripped", "Banana (Musa sp.), plate #4", "Banana_Musa_sp_plate_4"},
		{"keeps existing underscores", "file_name v2", "file_name_v2"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.input))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips spaces", "Wild Mushrooms", "WildMushrooms"},
		{"strips underscores", "a_b", "ab"},
		{"digits kept", "Apollo 11", "Apollo11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.input))
		})
	}
}

func TestFileExt(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		fallback string
		want     string
	}{
		{"jpg", "https://example.org/pics/banana.jpg", "jpg", "jpg"},
		{"uppercase", "https://example.org/pics/banana.JPG", "jpg", "jpg"},
		{"query string ignored", "https://example.org/a.png?width=400", "jpg", "png"},
		{"no extension", "https://example.org/download/item", "jpg", "jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileExt(tt.url, tt.fallback))
		})
	}
}
