// Package services содержит бизнес-логику жизненного цикла парковочных
// сессий: регистрацию въезда и выезда, просмотр активных сессий и
// фильтрованные запросы к журналу. Единственная точка записи,
// открытая внешнему интерфейсу.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-ledger/internal/lib/plate"
	"github.com/magabrotheeeer/parking-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/parking-ledger/internal/models"
	"github.com/magabrotheeeer/parking-ledger/internal/tariff"
)

// SessionRepository определяет методы для работы с сессиями в хранилище.
type SessionRepository interface {
	// OpenSession добавляет активную сессию; у знака не может быть двух открытых.
	OpenSession(ctx context.Context, session models.Session) error
	// GetActiveSession возвращает активную сессию по номерному знаку.
	GetActiveSession(ctx context.Context, plate string) (*models.Session, error)
	// CloseSession атомарно удаляет активную сессию и добавляет запись журнала.
	CloseSession(ctx context.Context, entry models.LedgerEntry) error
	// ListActiveSessions возвращает активные сессии, самые давние первыми.
	ListActiveSessions(ctx context.Context) ([]*models.Session, error)
	// QueryHistory возвращает записи журнала по фильтру, самые свежие первыми.
	QueryHistory(ctx context.Context, filter models.HistoryFilter) ([]*models.LedgerEntry, error)
}

// Cache описывает методы для кэширования активных сессий.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// ReceiptPublisher публикует квитанции о завершённых стоянках для
// внешних потребителей. Ошибка публикации не отменяет операцию.
type ReceiptPublisher interface {
	PublishReceipt(entry models.LedgerEntry) error
}

// SessionService реализует бизнес-логику парковочного журнала.
// Источник текущего времени внедряется извне ради детерминированных
// тестов и ручной корректировки меток оператором.
type SessionService struct {
	repo     SessionRepository
	tariffs  *tariff.Engine
	cache    Cache
	receipts ReceiptPublisher
	log      *slog.Logger
	now      func() time.Time
}

// NewSessionService создает новый экземпляр SessionService.
// receipts может быть nil — публикация квитанций отключена.
// now == nil означает системные часы.
func NewSessionService(repo SessionRepository, tariffs *tariff.Engine, cache Cache,
	receipts ReceiptPublisher, log *slog.Logger, now func() time.Time) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		repo:     repo,
		tariffs:  tariffs,
		cache:    cache,
		receipts: receipts,
		log:      log,
		now:      now,
	}
}

// RegisterEntry регистрирует въезд: нормализует и проверяет номерной
// знак, проверяет категорию, подставляет текущее время при отсутствии
// метки и открывает сессию в хранилище.
func (s *SessionService) RegisterEntry(ctx context.Context, operator string, req models.DummyEntry) (*models.Session, error) {
	normalized, err := plate.Validate(req.Plate)
	if err != nil {
		return nil, err
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}

	enteredAt, err := s.resolveTimestamp(req.EnteredAt)
	if err != nil {
		return nil, fmt.Errorf("invalid entry timestamp: %w", err)
	}

	session := models.Session{
		Plate:     normalized,
		Category:  category,
		EnteredAt: enteredAt,
		Operator:  operator,
	}
	if err := s.repo.OpenSession(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("registered vehicle entry",
		slog.String("plate", session.Plate), slog.String("category", string(session.Category)))

	cacheKey := sessionCacheKey(session.Plate)
	if err := s.cache.Set(cacheKey, session, time.Hour); err != nil {
		s.log.Warn("failed to cache session", slog.String("key", cacheKey), sl.Err(err))
	}

	return &session, nil
}

// RegisterExit регистрирует выезд: находит активную сессию, вычисляет
// длительность и сумму тарифным движком и атомарно закрывает сессию.
// Запись журнала хранит ровно те цифры, что были выставлены к оплате.
func (s *SessionService) RegisterExit(ctx context.Context, operator string, req models.DummyExit) (*models.LedgerEntry, error) {
	normalized, err := plate.Validate(req.Plate)
	if err != nil {
		return nil, err
	}

	session, err := s.lookupActive(ctx, normalized)
	if err != nil {
		return nil, err
	}

	leftAt, err := s.resolveTimestamp(req.LeftAt)
	if err != nil {
		return nil, fmt.Errorf("invalid exit timestamp: %w", err)
	}

	duration := tariff.ComputeDuration(session.EnteredAt, leftAt)
	fee, err := s.tariffs.ComputeFee(session.Category, session.EnteredAt, leftAt)
	if err != nil {
		// Отсутствие тарифа по умолчанию — дефект конфигурации,
		// он доводится до оператора, а не маскируется нулевой суммой.
		return nil, err
	}

	entry := models.LedgerEntry{
		UID:           uuid.New().String(),
		Plate:         session.Plate,
		Category:      session.Category,
		EnteredAt:     session.EnteredAt,
		LeftAt:        leftAt,
		DurationHours: duration,
		Fee:           fee,
		Operator:      operator,
	}
	if err := s.repo.CloseSession(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info("registered vehicle exit",
		slog.String("plate", entry.Plate), slog.Float64("duration_hours", duration), slog.Int64("fee", fee))

	cacheKey := sessionCacheKey(entry.Plate)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove session from cache", slog.String("key", cacheKey), sl.Err(err))
	}

	if s.receipts != nil {
		if err := s.receipts.PublishReceipt(entry); err != nil {
			s.log.Warn("failed to publish receipt", slog.String("plate", entry.Plate), sl.Err(err))
		}
	}

	return &entry, nil
}

// ListActive возвращает все активные сессии, самые давние первыми.
func (s *SessionService) ListActive(ctx context.Context) ([]*models.Session, error) {
	return s.repo.ListActiveSessions(ctx)
}

// QueryHistory преобразует фильтр запроса и возвращает записи журнала,
// самые свежие первыми. Все условия фильтра объединяются через AND.
func (s *SessionService) QueryHistory(ctx context.Context, req models.DummyHistoryFilter) ([]*models.LedgerEntry, error) {
	filter := models.HistoryFilter{
		PlateSubstring: plate.Normalize(req.Plate),
	}

	if req.Category != "" {
		category, err := models.ParseCategory(req.Category)
		if err != nil {
			return nil, err
		}
		filter.Category = &category
	}
	if req.DateFrom != "" {
		from, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("invalid date_from: %w", err)
		}
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			return nil, fmt.Errorf("invalid date_to: %w", err)
		}
		// Верхняя граница включает весь указанный день.
		to = to.Add(24*time.Hour - time.Minute)
		filter.DateTo = &to
	}

	return s.repo.QueryHistory(ctx, filter)
}

func (s *SessionService) lookupActive(ctx context.Context, normalized string) (*models.Session, error) {
	cacheKey := sessionCacheKey(normalized)

	var cached models.Session
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read session from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && err == nil {
		return &cached, nil
	}

	return s.repo.GetActiveSession(ctx, normalized)
}

// resolveTimestamp парсит метку времени запроса либо берёт текущее
// время. Бизнес-время всегда усечено до минуты.
func (s *SessionService) resolveTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return s.now().Truncate(time.Minute), nil
	}
	ts, err := time.Parse(models.TimestampLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

func sessionCacheKey(plate string) string {
	return "session:" + plate
}
