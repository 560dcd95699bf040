// Package engine orchestrates the answer pipeline: classify the question,
// fetch the matching reference data, narrow it to what is relevant, and
// generate a grounded answer. Every failure degrades to a fixed fallback
// answer; callers never see a raw backend error.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/lavka-group/shop-assistant/internal/config"
	"github.com/lavka-group/shop-assistant/internal/llm"
	"github.com/lavka-group/shop-assistant/internal/model"
	"github.com/lavka-group/shop-assistant/internal/ranker"
	"github.com/lavka-group/shop-assistant/internal/resilience"
)

// QuestionClassifier assigns a question to a routing category.
type QuestionClassifier interface {
	Classify(ctx context.Context, q model.Question) model.Category
}

// DataSource reads reference data from the spreadsheet.
type DataSource interface {
	FetchText(ctx context.Context, docID, sheetName string) (string, error)
	FetchRecords(ctx context.Context, docID, sheetName string) ([]model.CatalogRecord, error)
}

// ProductRanker narrows catalog records to the ones relevant to a question.
type ProductRanker interface {
	Rank(records []model.CatalogRecord, query string) []ranker.RankedRecord
	BuildContext(ranked []ranker.RankedRecord) string
}

// Engine answers customer questions from spreadsheet data.
type Engine struct {
	classifier QuestionClassifier
	source     DataSource
	ranker     ProductRanker
	gen        llm.Generator

	fetchRetry resilience.RetryConfig
	genRetry   resilience.RetryConfig
	breaker    *resilience.CircuitBreaker

	docID        string
	generalSheet string
	catalogSheet string
}

// New creates an answer engine.
func New(
	classifier QuestionClassifier,
	source DataSource,
	rank ProductRanker,
	gen llm.Generator,
	sheets config.SheetsConfig,
	retry resilience.RetryConfig,
) *Engine {
	fetchRetry := retry
	fetchRetry.OnRetry = resilience.RetryLogger("sheets", "fetch")
	genRetry := retry
	genRetry.OnRetry = resilience.RetryLogger("llm", "generate")

	return &Engine{
		classifier: classifier,
		source:     source,
		ranker:     rank,
		gen:        gen,
		fetchRetry: fetchRetry,
		genRetry:   genRetry,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("generation backend circuit state changed",
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		}),
		docID:        sheets.DocID,
		generalSheet: sheets.GeneralSheet,
		catalogSheet: sheets.CatalogSheet,
	}
}

// Answer runs the full pipeline for one question. The result is always a
// usable answer string: backend failures map to the fixed fallback answers.
func (e *Engine) Answer(ctx context.Context, q model.Question) model.Answer {
	category := e.classifier.Classify(ctx, q)

	var grounding string
	switch category {
	case model.CategoryGeneral:
		text, err := resilience.DoVal(ctx, e.fetchRetry, func(ctx context.Context) (string, error) {
			return e.source.FetchText(ctx, e.docID, e.generalSheet)
		})
		if err != nil {
			zap.L().Error("general sheet fetch failed", zap.Error(err))
			return model.AnswerUnavailable
		}
		grounding = text

	case model.CategoryProduct:
		records, err := resilience.DoVal(ctx, e.fetchRetry, func(ctx context.Context) ([]model.CatalogRecord, error) {
			return e.source.FetchRecords(ctx, e.docID, e.catalogSheet)
		})
		if err != nil {
			zap.L().Error("catalog sheet fetch failed", zap.Error(err))
			return model.AnswerUnavailable
		}

		ranked := e.ranker.Rank(records, q.Text)
		if len(ranked) == 0 {
			// Nothing relevant in the catalog. Refuse without spending a
			// generation call on an empty context.
			return model.AnswerDontKnow
		}
		grounding = e.ranker.BuildContext(ranked)

	default:
		return model.AnswerUnknownCategory
	}

	raw, err := resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, e.genRetry, func(ctx context.Context) (string, error) {
			return e.gen.Generate(ctx, answerPrompt(grounding, q.Text))
		})
	})
	if err != nil {
		zap.L().Error("answer generation failed",
			zap.String("category", string(category)),
			zap.Error(err),
		)
		return model.AnswerUnavailable
	}

	answer := model.NormalizeAnswer(raw)
	if answer == "" {
		return model.AnswerDontKnow
	}
	return answer
}
