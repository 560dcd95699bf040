// Package ranker selects the catalog records most lexically relevant to a
// question and renders them into the bounded context handed to generation.
package ranker

import (
	"sort"
	"strings"
	"unicode/utf8"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"

	"github.com/lavka-group/shop-assistant/internal/model"
)

const (
	// DefaultLimit bounds how many records end up in the context.
	DefaultLimit = 3
	// DefaultThreshold is the minimum partial-ratio score a record must
	// reach to be considered relevant.
	DefaultThreshold = 50
)

// RankedRecord pairs a record with its similarity score in [0,100]. It only
// lives for the duration of one ranking pass.
type RankedRecord struct {
	Score  int
	Record model.CatalogRecord
}

// Ranker scores catalog records against free-text queries.
type Ranker struct {
	fields    FieldMap
	limit     int
	threshold int
}

// New creates a Ranker. Non-positive limit or threshold fall back to the
// defaults.
func New(fields FieldMap, limit, threshold int) *Ranker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Ranker{fields: fields, limit: limit, threshold: threshold}
}

// minScoreTokenLen keeps short function words ("ли", "в") from matching
// inside unrelated product names.
const minScoreTokenLen = 3

// Score computes the similarity between the query and the record's
// searchable text (name plus group), both normalized. The score is the best
// partial-ratio across the whole query and its individual tokens, so a
// product mentioned anywhere in a longer question still matches.
func (r *Ranker) Score(rec model.CatalogRecord, query string) int {
	text := Normalize(rec.Field(r.fields.Name) + " " + rec.Field(r.fields.Group))
	q := Normalize(query)
	if q == "" || text == "" {
		return 0
	}

	best := fuzzy.PartialRatio(q, text)
	for _, tok := range strings.Fields(q) {
		if utf8.RuneCountInString(tok) < minScoreTokenLen {
			continue
		}
		if s := fuzzy.PartialRatio(tok, text); s > best {
			best = s
		}
	}
	return best
}

// Rank filters out records scoring below the threshold, orders the rest by
// score descending (ties keep fetch order) and truncates to the limit.
func (r *Ranker) Rank(records []model.CatalogRecord, query string) []RankedRecord {
	var ranked []RankedRecord
	for _, rec := range records {
		score := r.Score(rec, query)
		if score < r.threshold {
			continue
		}
		ranked = append(ranked, RankedRecord{Score: score, Record: rec})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > r.limit {
		ranked = ranked[:r.limit]
	}

	zap.L().Debug("ranked catalog records",
		zap.Int("candidates", len(records)),
		zap.Int("retained", len(ranked)),
		zap.Int("threshold", r.threshold),
	)

	return ranked
}

// BuildContext renders the ranked records into the context string for the
// generation prompt: one fixed-field block per record, blank-line separated,
// in ranked order.
func (r *Ranker) BuildContext(ranked []RankedRecord) string {
	blocks := make([]string, 0, len(ranked))
	for _, rr := range ranked {
		price := rr.Record.Field(r.fields.Price)
		if price == "" {
			price = r.fields.PricePlaceholder
		}
		group := rr.Record.Field(r.fields.Group)
		if group == "" {
			group = r.fields.GroupPlaceholder
		}

		block := strings.Join([]string{
			"Название: " + rr.Record.Field(r.fields.Name),
			"Цена: " + price,
			"Группа: " + group,
		}, "\n")
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}
