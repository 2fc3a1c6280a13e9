package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSourceSet(t *testing.T) {
	t.Run("empty means all", func(t *testing.T) {
		ss, err := ParseSourceSet(nil)
		assert.Nil(t, err)
		for _, s := range AllSources() {
			assert.True(t, ss.Has(s), "expected %s enabled", s)
		}
	})

	t.Run("subset", func(t *testing.T) {
		ss, err := ParseSourceSet([]string{"met", "NASA"})
		assert.Nil(t, err)
		assert.True(t, ss.Has(SourceMet))
		assert.True(t, ss.Has(SourceNASA))
		assert.False(t, ss.Has(SourceWikimedia))
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := ParseSourceSet([]string{"louvre"})
		assert.Error(t, err)
	})
}

func TestSmartQueryPhraseFor(t *testing.T) {
	q := SmartQuery{
		GeneralPhrase:  "general",
		ArchivalPhrase: "archival",
		ArtPhrase:      "art",
		SpacePhrase:    "space",
	}
	tests := []struct {
		source Source
		want   string
	}{
		{SourceWikimedia, "general"},
		{SourceMet, "art"},
		{SourceAIC, "art"},
		{SourceCleveland, "art"},
		{SourceNASA, "space"},
		{SourceLOC, "archival"},
		{SourceInternetArchive, "archival"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, q.PhraseFor(tt.source), "PhraseFor(%s)", tt.source)
	}
}
