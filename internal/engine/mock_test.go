package engine

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lavka-group/shop-assistant/internal/model"
	"github.com/lavka-group/shop-assistant/internal/ranker"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, q model.Question) model.Category {
	args := m.Called(ctx, q)
	return args.Get(0).(model.Category)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) FetchText(ctx context.Context, docID, sheetName string) (string, error) {
	args := m.Called(ctx, docID, sheetName)
	return args.String(0), args.Error(1)
}

func (m *mockSource) FetchRecords(ctx context.Context, docID, sheetName string) ([]model.CatalogRecord, error) {
	args := m.Called(ctx, docID, sheetName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogRecord), args.Error(1)
}

type mockRanker struct {
	mock.Mock
}

func (m *mockRanker) Rank(records []model.CatalogRecord, query string) []ranker.RankedRecord {
	args := m.Called(records, query)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]ranker.RankedRecord)
}

func (m *mockRanker) BuildContext(ranked []ranker.RankedRecord) string {
	args := m.Called(ranked)
	return args.String(0)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
