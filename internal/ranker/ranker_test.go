package ranker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavka-group/shop-assistant/internal/model"
)

func chair() model.CatalogRecord {
	return model.CatalogRecord{
		"Название":            "Стул деревянный",
		"Цена за шт в рублях": "1500",
		"Группа":              "Мебель",
	}
}

func table() model.CatalogRecord {
	return model.CatalogRecord{
		"Название":            "Стол обеденный",
		"Цена за шт в рублях": "4200",
		"Группа":              "Мебель",
	}
}

func lamp() model.CatalogRecord {
	return model.CatalogRecord{
		"Название": "Лампа настольная",
		"Группа":   "Свет",
	}
}

func newTestRanker() *Ranker {
	return New(DefaultFieldMap(), DefaultLimit, DefaultThreshold)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "стул деревянный", Normalize("Стул, деревянный!"))
	assert.Equal(t, "сколько стоит стул", Normalize("Сколько стоит стул?"))
	assert.Equal(t, "", Normalize("?!…"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Стул, деревянный!", "СКОЛЬКО стоит?", "chair #42", ""}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestScore_Ranges(t *testing.T) {
	r := newTestRanker()

	tests := []struct {
		name     string
		record   model.CatalogRecord
		query    string
		min, max int
	}{
		{"product named in question", chair(), "Сколько стоит стул?", 80, 100},
		{"unrelated product", chair(), "сколько стоит холодильник", 0, 49},
		{"group named in question", chair(), "какая есть мебель", 80, 100},
		{"exact name", lamp(), "лампа настольная", 90, 100},
		{"empty query", chair(), "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := r.Score(tt.record, tt.query)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	r := newTestRanker()
	first := r.Score(chair(), "сколько стоит стул")
	for range 5 {
		assert.Equal(t, first, r.Score(chair(), "сколько стоит стул"))
	}
}

func TestRank_FiltersBelowThreshold(t *testing.T) {
	r := newTestRanker()

	ranked := r.Rank([]model.CatalogRecord{chair(), table(), lamp()}, "как оформить возврат")
	assert.Empty(t, ranked)
}

func TestRank_SortsByScoreDescending(t *testing.T) {
	r := newTestRanker()

	ranked := r.Rank([]model.CatalogRecord{lamp(), chair()}, "сколько стоит стул")
	require.NotEmpty(t, ranked)

	assert.Equal(t, "Стул деревянный", ranked[0].Record["Название"])
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i].Score, ranked[i-1].Score)
	}
	for _, rr := range ranked {
		assert.GreaterOrEqual(t, rr.Score, DefaultThreshold)
	}
}

func TestRank_TiesKeepFetchOrder(t *testing.T) {
	r := newTestRanker()

	// Identical records score identically; fetch order must survive the sort.
	first := chair()
	second := chair()
	second["Название"] = "Стул деревянный" // same searchable text
	second["Цена за шт в рублях"] = "1600"

	ranked := r.Rank([]model.CatalogRecord{first, second}, "стул")
	require.Len(t, ranked, 2)
	assert.Equal(t, "1500", ranked[0].Record["Цена за шт в рублях"])
	assert.Equal(t, "1600", ranked[1].Record["Цена за шт в рублях"])
}

func TestRank_TruncatesToLimit(t *testing.T) {
	r := New(DefaultFieldMap(), 2, DefaultThreshold)

	records := []model.CatalogRecord{chair(), table(), chair(), table(), chair()}
	ranked := r.Rank(records, "мебель")
	assert.Len(t, ranked, 2)
}

func TestBuildContext_RendersBlocks(t *testing.T) {
	r := newTestRanker()

	ranked := r.Rank([]model.CatalogRecord{chair()}, "сколько стоит стул")
	require.Len(t, ranked, 1)

	ctx := r.BuildContext(ranked)
	assert.Contains(t, ctx, "Название: Стул деревянный")
	assert.Contains(t, ctx, "Цена: 1500")
	assert.Contains(t, ctx, "Группа: Мебель")
}

func TestBuildContext_Placeholders(t *testing.T) {
	r := newTestRanker()

	ctx := r.BuildContext([]RankedRecord{{Score: 100, Record: lamp()}})
	assert.Contains(t, ctx, "Цена: не указана")
	assert.Contains(t, ctx, "Группа: Свет")
}

func TestBuildContext_BlankLineBetweenBlocks(t *testing.T) {
	r := newTestRanker()

	ranked := []RankedRecord{
		{Score: 90, Record: chair()},
		{Score: 80, Record: table()},
	}
	ctx := r.BuildContext(ranked)

	blocks := strings.Split(ctx, "\n\n")
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "Стул деревянный")
	assert.Contains(t, blocks[1], "Стол обеденный")
}

func TestBuildContext_Empty(t *testing.T) {
	r := newTestRanker()
	assert.Equal(t, "", r.BuildContext(nil))
}
