// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNoSession — нет активной сессии.
	ErrNoSession = errors.New("нет активной сессии")
	// ErrForbidden — операция недоступна для роли или вида дашборда.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrViewNotFound — дашборд не смонтирован или уже размонтирован.
	ErrViewNotFound = errors.New("представление не найдено")
	// ErrNotFound — документ или клиент отсутствует в каталоге.
	ErrNotFound = errors.New("запись не найдена")
)
