package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lavka-group/shop-assistant/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateUser(ctx context.Context, user model.UserCreate) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockStore) TouchUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStore) SetUserActive(ctx context.Context, userID string, active bool) error {
	args := m.Called(ctx, userID, active)
	return args.Error(0)
}

func (m *mockStore) CreateForm(ctx context.Context, userID string, form model.FormCreate) (*model.Form, error) {
	args := m.Called(ctx, userID, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Form), args.Error(1)
}

func (m *mockStore) GetLastForm(ctx context.Context, userID string) (*model.Form, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Form), args.Error(1)
}

func (m *mockStore) CreateLead(ctx context.Context, userID string) (*model.Lead, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

func (m *mockStore) GetLeadByUserID(ctx context.Context, userID string) (*model.Lead, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

func (m *mockStore) ListUnsyncedLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockStore) MarkLeadSynced(ctx context.Context, leadID string, bitrixID int64) error {
	args := m.Called(ctx, leadID, bitrixID)
	return args.Error(0)
}

func (m *mockStore) Stats(ctx context.Context) (*model.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Stats), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type mockBitrix struct {
	mock.Mock
}

func (m *mockBitrix) CreateLead(ctx context.Context, fields map[string]any) (int64, error) {
	args := m.Called(ctx, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBitrix) UpdateLead(ctx context.Context, leadID int64, fields map[string]any) error {
	args := m.Called(ctx, leadID, fields)
	return args.Error(0)
}
