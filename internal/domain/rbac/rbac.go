// Пакет rbac — определение роли пользователя портала и прав на дашборды.
// Роль администратора назначается по email администратора консультации
// либо по claim role=admin в JWT. Все остальные — клиенты.
package rbac

import "strings"

// Роли в порядке возрастания привилегий.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleClient: 1,
	RoleAdmin:  2,
}

// ResolveRole вычисляет роль пользователя.
// email сравнивается с adminEmail без учёта регистра;
// tokenRole — значение claim role из JWT (может быть пустым).
// Роль из токена может только повысить, не понизить.
func ResolveRole(email, adminEmail, tokenRole string) string {
	role := RoleClient
	if adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(adminEmail)) {
		role = RoleAdmin
	}
	return maxRole(role, strings.ToLower(strings.TrimSpace(tokenRole)))
}

// maxRole возвращает роль с максимальными привилегиями из двух.
// Неизвестная роль имеет нулевой вес.
func maxRole(a, b string) string {
	wa := roleWeight[a]
	wb := roleWeight[b]
	if wa >= wb {
		return a
	}
	return b
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// CanAccess проверяет, достаточно ли роли role для доступа уровня required.
func CanAccess(role, required string) bool {
	w, ok := roleWeight[role]
	if !ok {
		return false
	}
	return w >= roleWeight[required]
}
