package models

import "errors"

// Таксономия ошибок ядра. Все ошибки валидации и бизнес-правил
// возвращаются вызывающему как есть, ничего не глотается внутри движка.
var (
	// ErrInvalidPlate номерной знак не соответствует формату: 3 буквы и 2-3 цифры.
	ErrInvalidPlate = errors.New("invalid plate format")
	// ErrInvalidCategory тип транспортного средства вне закрытого множества.
	ErrInvalidCategory = errors.New("invalid vehicle category")
	// ErrDuplicateSession у номерного знака уже есть открытая сессия.
	ErrDuplicateSession = errors.New("plate already has an active session")
	// ErrNoActiveSession у номерного знака нет открытой сессии.
	ErrNoActiveSession = errors.New("no active session for plate")
	// ErrNoDefaultRate в таблице тарифов нет тарифа по умолчанию для категории.
	// Дефект конфигурации, а не ошибка входных данных: фатальна для оператора.
	ErrNoDefaultRate = errors.New("rate table has no default rate for category")
)
