package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

func TestDedupe(t *testing.T) {
	t.Run("same url collapses to first seen", func(t *testing.T) {
		out := Dedupe([]domain.Article{
			{URL: "https://example.com/a", Title: "Eerste versie", SourceName: "bron1"},
			{URL: "https://example.com/a", Title: "Tweede versie", SourceName: "bron2"},
		})
		require.Len(t, out, 1)
		assert.Equal(t, "bron1", out[0].SourceName)
	})

	t.Run("same url keeps higher score", func(t *testing.T) {
		out := Dedupe([]domain.Article{
			{URL: "https://example.com/a", Title: "Versie", RelevanceScore: 2},
			{URL: "https://example.com/a", Title: "Versie", RelevanceScore: 9},
		})
		require.Len(t, out, 1)
		assert.Equal(t, 9.0, out[0].RelevanceScore)
	})

	t.Run("title substring either direction", func(t *testing.T) {
		out := Dedupe([]domain.Article{
			{URL: "https://a.example.com/1", Title: "Brand in centrum Zevenbergen"},
			{URL: "https://b.example.com/1", Title: "Brand in centrum"},
			{URL: "https://c.example.com/1", Title: "brand in centrum zevenbergen bij de markt"},
		})
		assert.Len(t, out, 1)
	})

	t.Run("distinct articles untouched", func(t *testing.T) {
		in := []domain.Article{
			{URL: "https://example.com/a", Title: "Nieuwbouw in de wijk"},
			{URL: "https://example.com/b", Title: "Wegafsluiting dit weekend"},
			{URL: "https://example.com/c", Title: "Sportclub wint derby"},
		}
		out := Dedupe(in)
		assert.Equal(t, in, out)
	})

	t.Run("empty titles never overlap", func(t *testing.T) {
		out := Dedupe([]domain.Article{
			{URL: "https://example.com/a", Title: ""},
			{URL: "https://example.com/b", Title: ""},
		})
		assert.Len(t, out, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Dedupe(nil))
	})
}
