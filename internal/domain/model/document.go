// document.go — запись документа в каталоге.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// OwnerRef — ссылка на клиента-владельца документа.
// В админском списке backend присылает объект клиента,
// в клиентском — только идентификатор (строкой).
type OwnerRef struct {
	// ID — идентификатор клиента
	ID string `json:"_id"`
	// Name — отображаемое имя
	Name string `json:"name,omitempty"`
	// Email — email клиента
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON поддерживает обе формы поля user: строку и объект.
func (o *OwnerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = OwnerRef{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("декодирование ссылки на владельца: %w", err)
		}
		*o = OwnerRef{ID: id}
		return nil
	}

	type ownerAlias OwnerRef
	var alias ownerAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("декодирование владельца: %w", err)
	}
	*o = OwnerRef(alias)
	return nil
}

// Populated сообщает, что backend прислал данные клиента, а не только ID.
func (o OwnerRef) Populated() bool {
	return o.Name != "" || o.Email != ""
}

// DocumentRecord — метаданные документа. Байты файла здесь не хранятся,
// FileURL открывается внешним обработчиком.
type DocumentRecord struct {
	// ID — непрозрачный идентификатор, стабилен на протяжении жизни записи
	ID string `json:"_id"`
	// FileName — отображаемое имя файла
	FileName string `json:"fileName"`
	// FileType — категория документа
	FileType FileType `json:"fileType"`
	// FinancialYear — финансовый год, свободный текст (например, "2024-25")
	FinancialYear string `json:"financialYear"`
	// Owner — клиент-владелец
	Owner OwnerRef `json:"user"`
	// FileURL — внешний адрес файла
	FileURL string `json:"fileUrl"`
	// CreatedAt — время создания на стороне backend (только для отображения)
	CreatedAt time.Time `json:"createdAt"`
}

// Ошибки валидации записи документа.
var (
	ErrEmptyID       = errors.New("пустой идентификатор")
	ErrEmptyFileName = errors.New("пустое имя файла")
)

// Validate проверяет инварианты записи: непустые ID и FileName.
// Тип документа не проверяется — ответ backend хранится как есть,
// записи неизвестного типа просто не попадают ни в одну категорию.
func (d *DocumentRecord) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(d.FileName) == "" {
		return fmt.Errorf("документ %s: %w", d.ID, ErrEmptyFileName)
	}
	return nil
}

// Identity возвращает ключ записи в каталоге.
func (d DocumentRecord) Identity() string {
	return d.ID
}
