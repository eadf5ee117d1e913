// Package plate реализует нормализацию и проверку формата номерного знака.
// Формат: три буквы и две или три цифры, без учёта регистра.
// Проверка на границе (GUI) носит справочный характер — авторитетная
// валидация выполняется здесь при каждом обращении к бизнес-логике.
package plate

import (
	"regexp"
	"strings"

	"github.com/magabrotheeeer/parking-ledger/internal/models"
)

var platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{2,3}$`)

// Normalize обрезает пробелы и приводит номерной знак к верхнему регистру.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate нормализует знак и проверяет его формат.
// Возвращает нормализованный знак или models.ErrInvalidPlate.
func Validate(raw string) (string, error) {
	normalized := Normalize(raw)
	if !platePattern.MatchString(normalized) {
		return "", models.ErrInvalidPlate
	}
	return normalized, nil
}
