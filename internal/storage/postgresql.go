// Package storage реализует хранилище сессий парковки на основе PostgreSQL:
// активные сессии с ключом по номерному знаку и неизменяемый журнал
// завершённых стоянок (только добавление, без обновления и удаления).
package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует операции над активными сессиями и журналом.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных: обе таблицы
// журнала должны существовать после применения миграций.
func CheckDatabaseReady(storage *Storage) error {
	for _, table := range []string{"active_sessions", "ledger"} {
		var exists bool
		err := storage.DB.QueryRow(`SELECT EXISTS (
	        SELECT FROM information_schema.tables
	        WHERE table_name = $1
	    )`, table).Scan(&exists)
		if err != nil || !exists {
			return fmt.Errorf("required table %s missing or query error: %w", table, err)
		}
	}
	return nil
}
