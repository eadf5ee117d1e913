// Package middlewarectx содержит HTTP middleware парковочного журнала.
//
// OperatorMiddleware извлекает идентификатор оператора из заголовка
// X-Operator и добавляет его в контекст запроса для дальнейшего
// использования в обработчиках. Аутентификация оператора — забота
// внешнего коллаборатора; ядро лишь фиксирует, кто выполнил операцию.
package middlewarectx

import (
	"context"
	"net/http"
	"strings"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Operator — ключ для идентификатора оператора в контексте.
const Operator Key = "operator"

// DefaultOperator подставляется, когда вызывающая сторона не
// представилась.
const DefaultOperator = "system"

// OperatorMiddleware возвращает HTTP middleware, который кладёт
// идентификатор оператора из заголовка X-Operator в контекст запроса.
func OperatorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := strings.TrimSpace(r.Header.Get("X-Operator"))
			if operator == "" {
				operator = DefaultOperator
			}
			ctx := context.WithValue(r.Context(), Operator, operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
