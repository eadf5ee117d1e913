package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-ledger/internal/models"
	"github.com/magabrotheeeer/parking-ledger/internal/tariff"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) OpenSession(ctx context.Context, session models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *RepoMock) GetActiveSession(ctx context.Context, plate string) (*models.Session, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}
func (m *RepoMock) CloseSession(ctx context.Context, entry models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *RepoMock) ListActiveSessions(ctx context.Context) ([]*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}
func (m *RepoMock) QueryHistory(ctx context.Context, filter models.HistoryFilter) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishReceipt(entry models.LedgerEntry) error {
	return m.Called(entry).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestEngine(t *testing.T) *tariff.Engine {
	t.Helper()
	engine, err := tariff.New(tariff.Table{
		Defaults: map[string]int64{"car": 2000, "motorcycle": 1000},
	})
	require.NoError(t, err)
	return engine
}

var fixedNow = time.Date(2025, 1, 1, 8, 0, 30, 0, time.UTC)

func newTestService(t *testing.T, repo *RepoMock, cache *CacheMock, publisher *PublisherMock) *SessionService {
	t.Helper()
	var receipts ReceiptPublisher
	if publisher != nil {
		receipts = publisher
	}
	return NewSessionService(repo, newTestEngine(t), cache, receipts, newNoopLogger(),
		func() time.Time { return fixedNow })
}

func TestSessionService_RegisterEntry(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyEntry
		setupMocks func(r *RepoMock, c *CacheMock)
		wantPlate  string
		wantErr    error
	}{
		{
			name: "success with default timestamp",
			req:  models.DummyEntry{Plate: " abc123 ", Category: "Car"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("OpenSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
					return s.Plate == "ABC123" &&
						s.Category == models.CategoryCar &&
						s.EnteredAt.Equal(fixedNow.Truncate(time.Minute)) &&
						s.Operator == "gate-1"
				})).Return(nil).Once()
				c.On("Set", "session:ABC123", mock.Anything, time.Hour).Return(nil).Once()
			},
			wantPlate: "ABC123",
		},
		{
			name: "success with explicit timestamp",
			req:  models.DummyEntry{Plate: "ABC123", Category: "car", EnteredAt: "2025-01-01 07:30"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("OpenSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
					return s.EnteredAt.Equal(time.Date(2025, 1, 1, 7, 30, 0, 0, time.UTC))
				})).Return(nil).Once()
				c.On("Set", "session:ABC123", mock.Anything, time.Hour).Return(nil).Once()
			},
			wantPlate: "ABC123",
		},
		{
			// Формат знака требует три буквы и две-три цифры.
			name:       "invalid plate format",
			req:        models.DummyEntry{Plate: "AB12", Category: "car"},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    models.ErrInvalidPlate,
		},
		{
			name:       "invalid category",
			req:        models.DummyEntry{Plate: "ABC123", Category: "truck"},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    models.ErrInvalidCategory,
		},
		{
			name: "duplicate active session",
			req:  models.DummyEntry{Plate: "ABC123", Category: "car"},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("OpenSession", mock.Anything, mock.Anything).
					Return(models.ErrDuplicateSession).Once()
			},
			wantErr: models.ErrDuplicateSession,
		},
		{
			name: "cache set error logs warning but session is opened",
			req:  models.DummyEntry{Plate: "ABC123", Category: "car"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("OpenSession", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("Set", "session:ABC123", mock.Anything, time.Hour).
					Return(errors.New("redis down")).Once()
			},
			wantPlate: "ABC123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			service := newTestService(t, repo, cache, nil)
			session, err := service.RegisterEntry(context.Background(), "gate-1", tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPlate, session.Plate)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestSessionService_RegisterEntry_TwiceFails(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	repo.On("OpenSession", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("OpenSession", mock.Anything, mock.Anything).Return(models.ErrDuplicateSession).Once()
	cache.On("Set", "session:ABC123", mock.Anything, time.Hour).Return(nil).Once()

	service := newTestService(t, repo, cache, nil)
	req := models.DummyEntry{Plate: "ABC123", Category: "car"}

	_, err := service.RegisterEntry(context.Background(), "gate-1", req)
	require.NoError(t, err)

	_, err = service.RegisterEntry(context.Background(), "gate-1", req)
	require.ErrorIs(t, err, models.ErrDuplicateSession)
}

func TestSessionService_RegisterExit(t *testing.T) {
	activeSession := &models.Session{
		Plate:     "ABC123",
		Category:  models.CategoryCar,
		EnteredAt: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		Operator:  "gate-1",
	}

	tests := []struct {
		name       string
		req        models.DummyExit
		setupMocks func(r *RepoMock, c *CacheMock, p *PublisherMock)
		wantFee    int64
		wantHours  float64
		wantErr    error
	}{
		{
			// 70 минут при ставке 2000 в час: 5 четвертей по 500.
			name: "success with explicit exit time",
			req:  models.DummyExit{Plate: "abc123", LeftAt: "2025-01-01 09:10"},
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				c.On("Get", "session:ABC123", mock.Anything).Return(false, nil).Once()
				r.On("GetActiveSession", mock.Anything, "ABC123").Return(activeSession, nil).Once()
				r.On("CloseSession", mock.Anything, mock.MatchedBy(func(e models.LedgerEntry) bool {
					return e.Plate == "ABC123" && e.Fee == 2500 && e.DurationHours == 1.17 &&
						e.Operator == "gate-2" && e.UID != ""
				})).Return(nil).Once()
				c.On("Invalidate", "session:ABC123").Return(nil).Once()
				p.On("PublishReceipt", mock.MatchedBy(func(e models.LedgerEntry) bool {
					return e.Fee == 2500
				})).Return(nil).Once()
			},
			wantFee:   2500,
			wantHours: 1.17,
		},
		{
			name: "exit with no prior entry",
			req:  models.DummyExit{Plate: "XYZ999"},
			setupMocks: func(r *RepoMock, c *CacheMock, _ *PublisherMock) {
				c.On("Get", "session:XYZ999", mock.Anything).Return(false, nil).Once()
				r.On("GetActiveSession", mock.Anything, "XYZ999").
					Return(nil, models.ErrNoActiveSession).Once()
			},
			wantErr: models.ErrNoActiveSession,
		},
		{
			name:       "invalid plate format",
			req:        models.DummyExit{Plate: "AB12"},
			setupMocks: func(_ *RepoMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    models.ErrInvalidPlate,
		},
		{
			name: "publish error does not fail the exit",
			req:  models.DummyExit{Plate: "ABC123", LeftAt: "2025-01-01 09:10"},
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				c.On("Get", "session:ABC123", mock.Anything).Return(false, nil).Once()
				r.On("GetActiveSession", mock.Anything, "ABC123").Return(activeSession, nil).Once()
				r.On("CloseSession", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("Invalidate", "session:ABC123").Return(nil).Once()
				p.On("PublishReceipt", mock.Anything).Return(errors.New("amqp down")).Once()
			},
			wantFee:   2500,
			wantHours: 1.17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			publisher := new(PublisherMock)
			tt.setupMocks(repo, cache, publisher)

			service := newTestService(t, repo, cache, publisher)
			entry, err := service.RegisterExit(context.Background(), "gate-2", tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantFee, entry.Fee)
				assert.InDelta(t, tt.wantHours, entry.DurationHours, 0.001)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestSessionService_RegisterExit_UsesCachedSession(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	cached := models.Session{
		Plate:     "ABC123",
		Category:  models.CategoryCar,
		EnteredAt: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		Operator:  "gate-1",
	}
	cache.On("Get", "session:ABC123", mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(1).(*models.Session) = cached
		}).Return(true, nil).Once()
	repo.On("CloseSession", mock.Anything, mock.Anything).Return(nil).Once()
	cache.On("Invalidate", "session:ABC123").Return(nil).Once()

	service := newTestService(t, repo, cache, nil)
	entry, err := service.RegisterExit(context.Background(), "gate-2",
		models.DummyExit{Plate: "ABC123", LeftAt: "2025-01-01 09:10"})

	require.NoError(t, err)
	assert.Equal(t, int64(2500), entry.Fee)
	repo.AssertNotCalled(t, "GetActiveSession", mock.Anything, mock.Anything)
}

func TestSessionService_ListActive(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	sessions := []*models.Session{
		{Plate: "AAA11", EnteredAt: time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC)},
		{Plate: "BBB22", EnteredAt: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)},
	}
	repo.On("ListActiveSessions", mock.Anything).Return(sessions, nil).Twice()

	service := newTestService(t, repo, cache, nil)

	first, err := service.ListActive(context.Background())
	require.NoError(t, err)
	second, err := service.ListActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeated reads without writes must agree")
}

func TestSessionService_QueryHistory(t *testing.T) {
	dateFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		req        models.DummyHistoryFilter
		setupMocks func(r *RepoMock)
		wantErr    bool
	}{
		{
			name: "all filters applied conjunctively",
			req: models.DummyHistoryFilter{
				Plate:    "abc",
				Category: "car",
				DateFrom: "2025-01-01",
				DateTo:   "2025-01-31",
			},
			setupMocks: func(r *RepoMock) {
				r.On("QueryHistory", mock.Anything, mock.MatchedBy(func(f models.HistoryFilter) bool {
					return f.PlateSubstring == "ABC" &&
						f.Category != nil && *f.Category == models.CategoryCar &&
						f.DateFrom != nil && f.DateFrom.Equal(dateFrom) &&
						f.DateTo != nil && f.DateTo.Equal(time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC))
				})).Return([]*models.LedgerEntry{}, nil).Once()
			},
		},
		{
			name:       "empty filter passes through",
			req:        models.DummyHistoryFilter{},
			setupMocks: func(r *RepoMock) {
				r.On("QueryHistory", mock.Anything, models.HistoryFilter{}).
					Return([]*models.LedgerEntry{}, nil).Once()
			},
		},
		{
			name:       "invalid category",
			req:        models.DummyHistoryFilter{Category: "bike"},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    true,
		},
		{
			name:       "invalid date",
			req:        models.DummyHistoryFilter{DateFrom: "01-01-2025"},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo)

			service := newTestService(t, repo, cache, nil)
			_, err := service.QueryHistory(context.Background(), tt.req)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
