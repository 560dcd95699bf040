package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/lavka-group/shop-assistant/internal/llm"
	"github.com/lavka-group/shop-assistant/internal/model"
	"github.com/lavka-group/shop-assistant/internal/resilience"
)

// Classifier routes a question to a category using the generation backend.
// A backend failure is not an error at this level: the question is simply
// reported as unclassifiable.
type Classifier struct {
	gen   llm.Generator
	retry resilience.RetryConfig
}

// NewClassifier creates a classifier over the given generator.
func NewClassifier(gen llm.Generator, retry resilience.RetryConfig) *Classifier {
	retry.OnRetry = resilience.RetryLogger("llm", "classify")
	return &Classifier{
		gen:   gen,
		retry: retry,
	}
}

// Classify asks the backend for the question's category. Any residual
// failure, and any reply that is not a known category after normalization,
// yields CategoryUnknown.
func (c *Classifier) Classify(ctx context.Context, q model.Question) model.Category {
	raw, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.gen.Generate(ctx, classifyPrompt(q.Text))
	})
	if err != nil {
		zap.L().Warn("question classification failed",
			zap.String("question", q.Text),
			zap.Error(err),
		)
		return model.CategoryUnknown
	}

	category := model.ParseCategory(raw)
	zap.L().Debug("question classified",
		zap.String("question", q.Text),
		zap.String("category", string(category)),
	)
	return category
}
