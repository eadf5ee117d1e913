package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/parking-ledger/internal/models"
)

// Код SQLSTATE нарушения уникальности: первичный ключ по номерному
// знаку гарантирует не более одной открытой сессии на знак.
const uniqueViolationCode = "23505"

// OpenSession вставляет новую активную сессию. Возвращает
// models.ErrDuplicateSession, если у знака уже есть открытая сессия.
func (s *Storage) OpenSession(ctx context.Context, session models.Session) error {
	const op = "storage.OpenSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO active_sessions (plate, category, entered_at, operator)
			  VALUES ($1, $2, $3, $4)`
	_, err := s.DB.ExecContext(ctx, query,
		session.Plate, session.Category, session.EnteredAt, session.Operator)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%s: %w", op, models.ErrDuplicateSession)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetActiveSession возвращает активную сессию по номерному знаку.
// Возвращает models.ErrNoActiveSession, если открытой сессии нет.
func (s *Storage) GetActiveSession(ctx context.Context, plate string) (*models.Session, error) {
	const op = "storage.GetActiveSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT plate, category, entered_at, operator
			  FROM active_sessions WHERE plate = $1`
	row := s.DB.QueryRowContext(ctx, query, plate)

	var result models.Session
	if err := row.Scan(&result.Plate, &result.Category, &result.EnteredAt, &result.Operator); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNoActiveSession)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// CloseSession атомарно удаляет активную сессию и добавляет запись
// в журнал: либо происходит и то и другое, либо ничего. Запись журнала
// содержит уже вычисленные длительность и сумму — пересчёта не будет.
// Возвращает models.ErrNoActiveSession, если открытой сессии нет.
func (s *Storage) CloseSession(ctx context.Context, entry models.LedgerEntry) error {
	const op = "storage.CloseSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM active_sessions WHERE plate = $1`, entry.Plate)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNoActiveSession)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger (uid, plate, category, entered_at, left_at,
			 duration_hours, fee, operator)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.UID, entry.Plate, entry.Category, entry.EnteredAt, entry.LeftAt,
		entry.DurationHours, entry.Fee, entry.Operator)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListActiveSessions возвращает все активные сессии, отсортированные
// по времени въезда по возрастанию (самые давние первыми).
func (s *Storage) ListActiveSessions(ctx context.Context) ([]*models.Session, error) {
	const op = "storage.ListActiveSessions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT plate, category, entered_at, operator
			  FROM active_sessions
			  ORDER BY entered_at ASC, plate ASC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		var item models.Session
		if err := rows.Scan(&item.Plate, &item.Category, &item.EnteredAt, &item.Operator); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// QueryHistory возвращает записи журнала по фильтру. Все условия
// опциональны и объединяются через AND; сортировка — по времени
// въезда по убыванию (самые свежие первыми).
func (s *Storage) QueryHistory(ctx context.Context, filter models.HistoryFilter) ([]*models.LedgerEntry, error) {
	const op = "storage.QueryHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sb strings.Builder
	sb.WriteString(`SELECT uid, plate, category, entered_at, left_at,
			 duration_hours, fee, operator
		 FROM ledger
		 WHERE 1=1`)
	var args []any

	if filter.PlateSubstring != "" {
		args = append(args, "%"+filter.PlateSubstring+"%")
		fmt.Fprintf(&sb, " AND plate ILIKE $%d", len(args))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		fmt.Fprintf(&sb, " AND category = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		fmt.Fprintf(&sb, " AND entered_at >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		fmt.Fprintf(&sb, " AND entered_at <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY entered_at DESC, id DESC")

	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.LedgerEntry
	for rows.Next() {
		var item models.LedgerEntry
		if err := rows.Scan(&item.UID, &item.Plate, &item.Category, &item.EnteredAt,
			&item.LeftAt, &item.DurationHours, &item.Fee, &item.Operator); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
