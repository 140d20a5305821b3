package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/william165-bot/net-hunter/internal/models"
	pkglogger "github.com/william165-bot/net-hunter/pkg/logger"
)

// MockAccountStore implements AccountStore for testing
type MockAccountStore struct {
	GetFunc    func(ctx context.Context, email string) (*models.Account, error)
	CreateFunc func(ctx context.Context, acc *models.Account) error
	PutFunc    func(ctx context.Context, acc *models.Account) error
	ListFunc   func(ctx context.Context) ([]*models.Account, error)
	UpdateFunc func(ctx context.Context, email string, fn func(*models.Account) error) (*models.Account, error)
	PingFunc   func(ctx context.Context) error
}

func (m *MockAccountStore) Get(ctx context.Context, email string) (*models.Account, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) Create(ctx context.Context, acc *models.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, acc)
	}
	return models.ErrInternalServer
}

func (m *MockAccountStore) Put(ctx context.Context, acc *models.Account) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, acc)
	}
	return nil
}

func (m *MockAccountStore) List(ctx context.Context) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountStore) Update(ctx context.Context, email string, fn func(*models.Account) error) (*models.Account, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, email, fn)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// NewMemoryStore returns a MockAccountStore backed by a map, seeded with accounts
func NewMemoryStore(accounts ...*models.Account) *MockAccountStore {
	var mu sync.Mutex
	data := make(map[string]models.Account, len(accounts))
	for _, acc := range accounts {
		data[acc.Email] = acc.Clone()
	}

	return &MockAccountStore{
		GetFunc: func(ctx context.Context, email string) (*models.Account, error) {
			mu.Lock()
			defer mu.Unlock()
			acc, ok := data[email]
			if !ok {
				return nil, models.ErrNotFound
			}
			out := acc.Clone()
			return &out, nil
		},
		CreateFunc: func(ctx context.Context, acc *models.Account) error {
			mu.Lock()
			defer mu.Unlock()
			if _, ok := data[acc.Email]; ok {
				return models.ErrConflict
			}
			data[acc.Email] = acc.Clone()
			return nil
		},
		PutFunc: func(ctx context.Context, acc *models.Account) error {
			mu.Lock()
			defer mu.Unlock()
			data[acc.Email] = acc.Clone()
			return nil
		},
		ListFunc: func(ctx context.Context) ([]*models.Account, error) {
			mu.Lock()
			defer mu.Unlock()
			out := make([]*models.Account, 0, len(data))
			for _, acc := range data {
				c := acc.Clone()
				out = append(out, &c)
			}
			return out, nil
		},
		UpdateFunc: func(ctx context.Context, email string, fn func(*models.Account) error) (*models.Account, error) {
			mu.Lock()
			defer mu.Unlock()
			acc, ok := data[email]
			if !ok {
				return nil, models.ErrNotFound
			}
			working := acc.Clone()
			if err := fn(&working); err != nil {
				return nil, err
			}
			data[email] = working.Clone()
			return &working, nil
		},
	}
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	SendPremiumReceiptFunc func(ctx context.Context, email string, premiumUntil time.Time) error
}

func (m *MockNotifier) SendPremiumReceipt(ctx context.Context, email string, premiumUntil time.Time) error {
	if m.SendPremiumReceiptFunc != nil {
		return m.SendPremiumReceiptFunc(ctx, email, premiumUntil)
	}
	return nil
}

// NewTestAccount creates an account whose trial started at trialStart
func NewTestAccount(email string, trialStart time.Time) *models.Account {
	return &models.Account{
		Email:          email,
		PasswordHash:   "$2a$10$placeholder",
		CreatedAt:      trialStart,
		TrialStartedAt: trialStart,
		Payments:       []models.Payment{},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func discardAudit() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(discardLogger())
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
