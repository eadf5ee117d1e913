// Package models содержит доменные структуры парковочного журнала:
// активные сессии, закрытые записи журнала и вспомогательные типы
// для приёма данных из внешних источников (например, JSON-запросы).
package models

import (
	"strings"
	"time"
)

// Category тип транспортного средства. Закрытое множество:
// расширение требует изменения таблицы тарифов, а не логики движка.
type Category string

const (
	// CategoryCar легковой автомобиль.
	CategoryCar Category = "car"
	// CategoryMotorcycle мотоцикл.
	CategoryMotorcycle Category = "motorcycle"
)

// ParseCategory приводит строку к Category без учёта регистра.
// Возвращает ErrInvalidCategory для значений вне закрытого множества.
func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryCar:
		return CategoryCar, nil
	case CategoryMotorcycle:
		return CategoryMotorcycle, nil
	default:
		return "", ErrInvalidCategory
	}
}

// Session представляет транспортное средство, находящееся на парковке.
// Номерной знак — естественный ключ: не более одной открытой сессии на знак.
type Session struct {
	Plate     string    `json:"plate"`      // Номерной знак (нормализованный)
	Category  Category  `json:"category"`   // Тип транспортного средства
	EnteredAt time.Time `json:"entered_at"` // Время въезда (точность до минуты)
	Operator  string    `json:"operator"`   // Оператор, зарегистрировавший въезд
}

// LedgerEntry неизменяемая запись о завершённой стоянке.
// Создаётся ровно один раз при закрытии сессии и далее не изменяется.
type LedgerEntry struct {
	UID           string    `json:"uid"`            // Стабильный идентификатор записи для экспорта
	Plate         string    `json:"plate"`          // Номерной знак
	Category      Category  `json:"category"`       // Тип транспортного средства
	EnteredAt     time.Time `json:"entered_at"`     // Время въезда
	LeftAt        time.Time `json:"left_at"`        // Время выезда (после нормализации >= въезда)
	DurationHours float64   `json:"duration_hours"` // Оплаченная длительность в часах, 2 знака
	Fee           int64     `json:"fee"`            // Сумма к оплате, целые денежные единицы
	Operator      string    `json:"operator"`       // Оператор, зарегистрировавший выезд
}

// DummyEntry используется для приёма данных о въезде из JSON-запроса,
// прежде чем конвертировать их в Session. Время приходит строкой,
// чтобы его можно было валидировать и парсить вручную.
type DummyEntry struct {
	Plate     string `json:"plate" validate:"required"`                              // Номерной знак как введён оператором
	Category  string `json:"category" validate:"required"`                           // Тип: car или motorcycle
	EnteredAt string `json:"entered_at,omitempty" validate:"omitempty,datetime=2006-01-02 15:04"` // Время въезда, пусто = текущее
}

// DummyExit используется для приёма данных о выезде из JSON-запроса.
type DummyExit struct {
	Plate  string `json:"plate" validate:"required"`                            // Номерной знак как введён оператором
	LeftAt string `json:"left_at,omitempty" validate:"omitempty,datetime=2006-01-02 15:04"` // Время выезда, пусто = текущее
}

// TimestampLayout формат бизнес-времени: дата, час и минута, без секунд.
const TimestampLayout = "2006-01-02 15:04"
