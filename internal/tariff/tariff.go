// Package tariff реализует тарифный движок: преобразование пары
// временных меток (въезд, выезд) в оплачиваемую длительность и сумму
// по таблице тарифов. Движок не имеет состояния кроме своей таблицы
// и не обращается к внешним сервисам.
package tariff

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/parking-ledger/internal/models"
)

// BillingUnit минимальный оплачиваемый интервал. Любая начатая
// четверть часа оплачивается целиком.
const BillingUnit = 15 * time.Minute

// Rule одно правило таблицы тарифов: почасовая ставка для категории
// в заданный день недели (или "all") и диапазон часов въезда.
type Rule struct {
	Category string `yaml:"category"`  // car или motorcycle
	Day      string `yaml:"day"`       // monday..sunday или "all"
	HourFrom int    `yaml:"hour_from"` // Час начала действия (0-23)
	HourTo   int    `yaml:"hour_to"`   // Час окончания действия (включительно)
	Hourly   int64  `yaml:"hourly"`    // Ставка за полный час
}

// Table таблица тарифов. Defaults обязателен для каждой категории:
// разрешение ставки не может завершиться неудачей из-за отсутствия правила.
type Table struct {
	Rules    []Rule           `yaml:"rules"`
	Defaults map[string]int64 `yaml:"defaults"` // Категория -> ставка за час
}

// Engine тарифный движок поверх загруженной таблицы.
type Engine struct {
	table Table
}

// New создает движок и проверяет инвариант таблицы: для каждой
// категории из закрытого множества задан тариф по умолчанию.
func New(table Table) (*Engine, error) {
	const op = "tariff.New"
	for _, category := range []models.Category{models.CategoryCar, models.CategoryMotorcycle} {
		if _, ok := table.Defaults[string(category)]; !ok {
			return nil, fmt.Errorf("%s: %q: %w", op, category, models.ErrNoDefaultRate)
		}
	}
	return &Engine{table: table}, nil
}

// Load читает таблицу тарифов из YAML-файла и создает движок.
func Load(path string) (*Engine, error) {
	const op = "tariff.Load"
	var table Table
	if err := cleanenv.ReadConfig(path, &table); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	engine, err := New(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return engine, nil
}

// Resolve возвращает почасовую ставку для категории по моменту въезда.
// Порядок разрешения: правило для конкретного дня недели, затем правило
// "all", затем тариф категории по умолчанию.
func (e *Engine) Resolve(category models.Category, enteredAt time.Time) (int64, error) {
	const op = "tariff.Resolve"

	weekday := strings.ToLower(enteredAt.Weekday().String())
	hour := enteredAt.Hour()

	if hourly, ok := e.matchRule(category, weekday, hour); ok {
		return hourly, nil
	}
	if hourly, ok := e.matchRule(category, "all", hour); ok {
		return hourly, nil
	}
	hourly, ok := e.table.Defaults[string(category)]
	if !ok {
		return 0, fmt.Errorf("%s: %q: %w", op, category, models.ErrNoDefaultRate)
	}
	return hourly, nil
}

func (e *Engine) matchRule(category models.Category, day string, hour int) (int64, bool) {
	for _, rule := range e.table.Rules {
		if strings.ToLower(rule.Category) != string(category) {
			continue
		}
		if strings.ToLower(rule.Day) != day {
			continue
		}
		if hour < rule.HourFrom || hour > rule.HourTo {
			continue
		}
		return rule.Hourly, true
	}
	return 0, false
}

// ComputeDuration возвращает длительность стоянки в часах, округлённую
// до двух знаков. Если выезд раньше въезда, считается, что стоянка
// пересекла полночь, и к выезду добавляется ровно один календарный день.
// Стоянки длиннее суток, заданные только временем, движок не распознаёт:
// корректные даты — ответственность вызывающего.
func ComputeDuration(enteredAt, leftAt time.Time) float64 {
	span := normalizeSpan(enteredAt, leftAt)
	hours := span.Seconds() / 3600
	return math.Round(hours*100) / 100
}

// ComputeFee возвращает сумму к оплате: длительность округляется вверх
// до следующей четверти часа, минимум один блок, затем умножается на
// четверть почасовой ставки и округляется до целой денежной единицы.
// Сумма никогда не отрицательна и не убывает с ростом длительности.
func (e *Engine) ComputeFee(category models.Category, enteredAt, leftAt time.Time) (int64, error) {
	const op = "tariff.ComputeFee"

	hourly, err := e.Resolve(category, enteredAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	span := normalizeSpan(enteredAt, leftAt)
	blocks := int64(math.Ceil(span.Seconds() / BillingUnit.Seconds()))
	if blocks < 1 {
		// Нулевая или отрицательная длительность (рассинхронизация часов,
		// въезд и выезд в одну минуту) оплачивается минимальным блоком.
		blocks = 1
	}

	fee := math.Round(float64(blocks) * float64(hourly) / 4)
	return int64(fee), nil
}

func normalizeSpan(enteredAt, leftAt time.Time) time.Duration {
	if leftAt.Before(enteredAt) {
		leftAt = leftAt.AddDate(0, 0, 1)
	}
	return leftAt.Sub(enteredAt)
}
