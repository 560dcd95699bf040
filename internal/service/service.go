// Package service implements user registration, contact form intake, and the
// CRM lead lifecycle on top of the store and the Bitrix24 client.
package service

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lavka-group/shop-assistant/internal/model"
	"github.com/lavka-group/shop-assistant/internal/resilience"
	"github.com/lavka-group/shop-assistant/internal/store"
	"github.com/lavka-group/shop-assistant/pkg/bitrix"
)

// ErrUserNotFound is returned for operations on an unregistered user.
var ErrUserNotFound = eris.New("service: user not found")

const defaultSyncWorkers = 4

// Service coordinates users, forms, and CRM leads.
type Service struct {
	store store.Store
	crm   bitrix.Client // nil when the CRM integration is not configured
	retry resilience.RetryConfig
}

// New creates a Service. crm may be nil; lead pushes are then skipped and
// leads stay queued for a later sync.
func New(st store.Store, crm bitrix.Client, retry resilience.RetryConfig) *Service {
	retry.OnRetry = resilience.RetryLogger("bitrix", "push lead")
	return &Service{
		store: st,
		crm:   crm,
		retry: retry,
	}
}

// GetUser looks up a user by telegram ID. Missing users return ErrUserNotFound.
func (s *Service) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	u, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, eris.Wrapf(ErrUserNotFound, "telegram_id %d", telegramID)
	}
	return u, nil
}

// RegisterUser creates the user and queues a CRM lead for them. The lead is
// pushed to the CRM immediately when possible; a push failure leaves the
// lead queued for the next sync and does not fail the registration.
func (s *Service) RegisterUser(ctx context.Context, user model.UserCreate) (*model.User, error) {
	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	lead, err := s.store.CreateLead(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	if err := s.pushLead(ctx, lead, created); err != nil {
		zap.L().Warn("lead push failed, queued for sync",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
	}

	return created, nil
}

// SetUserActive updates the user's active flag.
func (s *Service) SetUserActive(ctx context.Context, telegramID int64, active bool) (*model.User, error) {
	user, err := s.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUserActive(ctx, user.ID, active); err != nil {
		return nil, err
	}
	user.IsActive = active
	return user, nil
}

// SubmitForm records a contact form for the user and forwards the contact
// details to the user's CRM lead when one has been synced.
func (s *Service) SubmitForm(ctx context.Context, telegramID int64, form model.FormCreate) (*model.Form, error) {
	user, err := s.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateForm(ctx, user.ID, form)
	if err != nil {
		return nil, err
	}
	if err := s.store.TouchUser(ctx, user.ID); err != nil {
		zap.L().Warn("user activity update failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	lead, err := s.store.GetLeadByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if lead != nil && lead.Synced && lead.BitrixID != nil && s.crm != nil {
		err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
			return s.crm.UpdateLead(ctx, *lead.BitrixID, map[string]any{
				"NAME":  form.Name,
				"PHONE": []map[string]any{{"VALUE": form.Phone, "VALUE_TYPE": "WORK"}},
			})
		})
		if err != nil {
			zap.L().Warn("lead contact update failed",
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
		}
	}

	return created, nil
}

// GetLastForm returns the user's newest form submission, or nil.
func (s *Service) GetLastForm(ctx context.Context, telegramID int64) (*model.Form, error) {
	user, err := s.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.store.GetLastForm(ctx, user.ID)
}

// Stats reports user and lead counts.
func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	return s.store.Stats(ctx)
}

// SyncLeads pushes queued leads to the CRM with bounded concurrency and
// returns the number synced. Individual push failures are logged and leave
// the lead queued; only store access failures abort the sync.
func (s *Service) SyncLeads(ctx context.Context, limit, workers int) (int, error) {
	if s.crm == nil {
		return 0, eris.New("service: CRM is not configured")
	}
	if workers <= 0 {
		workers = defaultSyncWorkers
	}

	leads, err := s.store.ListUnsyncedLeads(ctx, limit)
	if err != nil {
		return 0, err
	}

	var synced atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, lead := range leads {
		g.Go(func() error {
			if err := s.pushLead(ctx, &lead, nil); err != nil {
				zap.L().Warn("lead sync failed",
					zap.String("lead_id", lead.ID),
					zap.Error(err),
				)
				return nil
			}
			synced.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(synced.Load()), err
	}

	zap.L().Info("lead sync finished",
		zap.Int("queued", len(leads)),
		zap.Int64("synced", synced.Load()),
	)
	return int(synced.Load()), nil
}

// pushLead creates the CRM lead and marks it synced. user may be nil when
// only the stored lead is at hand.
func (s *Service) pushLead(ctx context.Context, lead *model.Lead, user *model.User) error {
	if s.crm == nil {
		return nil
	}

	fields := map[string]any{
		"TITLE":     "Заявка из телеграм-бота",
		"SOURCE_ID": "WEB",
	}
	if user != nil && user.Username != "" {
		fields["NAME"] = user.Username
	}

	bitrixID, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (int64, error) {
		return s.crm.CreateLead(ctx, fields)
	})
	if err != nil {
		return err
	}

	return s.store.MarkLeadSynced(ctx, lead.ID, bitrixID)
}
