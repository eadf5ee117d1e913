// Package models: структуры фильтрации исторических запросов.
// Здесь определены как структура для слоя доступа к данным,
// так и структура для приёма параметров из HTTP-запроса.
package models

import "time"

// HistoryFilter параметры фильтрации журнала завершённых стоянок,
// передаваемые в слой доступа к данным. Все поля опциональны,
// условия объединяются через AND.
type HistoryFilter struct {
	PlateSubstring string     // Подстрока номерного знака (пустая строка — фильтра нет)
	Category       *Category  // Тип транспортного средства (nil, если фильтра нет)
	DateFrom       *time.Time // Нижняя граница даты въезда (включительно)
	DateTo         *time.Time // Верхняя граница даты въезда (включительно)
}

// DummyHistoryFilter используется для приёма параметров фильтра из
// query-строки до их валидации и преобразования в HistoryFilter.
// Даты приходят строками в формате 2006-01-02.
type DummyHistoryFilter struct {
	Plate    string `json:"plate,omitempty" validate:"omitempty"`                         // Подстрока номерного знака
	Category string `json:"category,omitempty" validate:"omitempty"`                      // car или motorcycle
	DateFrom string `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"` // Дата начала периода
	DateTo   string `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`   // Дата окончания периода
}
