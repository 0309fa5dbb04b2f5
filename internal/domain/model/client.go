// client.go — клиент консультанта (доступен только администратору).
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ClientRecord — клиент в справочнике администратора.
// Уникальность email обеспечивается backend, локально не проверяется.
type ClientRecord struct {
	// ID — непрозрачный идентификатор
	ID string `json:"_id"`
	// Name — имя клиента (обязательно)
	Name string `json:"name"`
	// Email — email клиента (обязательно)
	Email string `json:"email"`
	// PAN — номер PAN (опционально)
	PAN string `json:"pan,omitempty"`
	// GSTIN — номер GST (опционально)
	GSTIN string `json:"gstin,omitempty"`
	// Address — адрес (опционально)
	Address string `json:"address,omitempty"`
}

// ErrClientIncomplete — у клиента отсутствуют обязательные поля.
var ErrClientIncomplete = errors.New("не заполнены обязательные поля клиента")

// Validate проверяет наличие ID, имени и email.
func (c *ClientRecord) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("клиент %s: %w", c.ID, ErrClientIncomplete)
	}
	return nil
}

// Identity возвращает ключ записи в справочнике.
func (c ClientRecord) Identity() string {
	return c.ID
}
