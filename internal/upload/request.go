// Пакет upload — сборка запроса на загрузку документа (только администратор).
//
// Это чистая проверка перед сетевым вызовом: результат либо готовый
// *Request, либо *IncompleteError со списком незаполненных полей.
package upload

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bigkaa/zntax/portal-module/internal/domain/model"
)

// Имена полей формы загрузки (в порядке отчёта о незаполненных полях).
const (
	FieldClientID      = "clientId"
	FieldFile          = "file"
	FieldFinancialYear = "financialYear"
	FieldFileType      = "fileType"
)

// fieldOrder — фиксированный порядок полей в IncompleteError.
var fieldOrder = []string{FieldClientID, FieldFile, FieldFinancialYear, FieldFileType}

// File — выбранный локальный файл.
type File struct {
	// Name — имя файла, передаваемое backend
	Name string
	// ContentType — MIME-тип (пустой — application/octet-stream)
	ContentType string
	// Size — размер в байтах (0 — неизвестен)
	Size int64
	// Reader — содержимое файла; закрывает вызывающий код
	Reader io.Reader
}

// Fields — сырые значения формы загрузки.
type Fields struct {
	ClientID      string
	File          *File
	FinancialYear string
	FileType      string
}

// form — нормализованное представление Fields для валидатора.
// File — имя выбранного файла (пусто, если файл не выбран или без содержимого).
type form struct {
	ClientID      string `validate:"required" form:"clientId"`
	File          string `validate:"required" form:"file"`
	FinancialYear string `validate:"required" form:"financialYear"`
	FileType      string `validate:"required,filetype" form:"fileType"`
}

// Request — проверенный запрос на загрузку. Создаётся только через NewRequest.
type Request struct {
	clientID      string
	file          *File
	financialYear string
	fileType      model.FileType
}

// ClientID — идентификатор клиента-получателя.
func (r *Request) ClientID() string { return r.clientID }

// File — загружаемый файл.
func (r *Request) File() *File { return r.file }

// FinancialYear — финансовый год.
func (r *Request) FinancialYear() string { return r.financialYear }

// FileType — категория документа.
func (r *Request) FileType() model.FileType { return r.fileType }

// ContentType возвращает MIME-тип файла с fallback на application/octet-stream.
func (r *Request) ContentType() string {
	if r.file.ContentType == "" {
		return "application/octet-stream"
	}
	return r.file.ContentType
}

// ErrIncomplete — базовая ошибка незаполненной формы (для errors.Is).
var ErrIncomplete = errors.New("не заполнены обязательные поля загрузки")

// IncompleteError — перечень незаполненных полей.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIncomplete.Error(), strings.Join(e.Missing, ", "))
}

// Is позволяет сравнивать через errors.Is(err, ErrIncomplete).
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// validate — общий валидатор пакета (потокобезопасен, кэширует разбор тегов).
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// В ошибках используем имена полей формы, а не Go-имена
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("form")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// filetype — значение из закрытого перечисления model.FileType
	_ = v.RegisterValidation("filetype", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseFileType(fl.Field().String())
		return ok
	})

	return v
}

// NewRequest проверяет поля и собирает запрос.
// Текст из одних пробелов считается незаполненным, тип вне перечисления —
// невыбранным. Сеть не используется.
func NewRequest(fields Fields) (*Request, error) {
	normalized := form{
		ClientID:      strings.TrimSpace(fields.ClientID),
		FinancialYear: strings.TrimSpace(fields.FinancialYear),
		FileType:      strings.TrimSpace(fields.FileType),
	}
	if fields.File != nil && fields.File.Reader != nil {
		normalized.File = strings.TrimSpace(fields.File.Name)
	}

	if err := validate.Struct(normalized); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("проверка формы загрузки: %w", err)
		}
		return nil, incomplete(verrs)
	}

	ft, _ := model.ParseFileType(normalized.FileType)
	return &Request{
		clientID:      normalized.ClientID,
		file:          fields.File,
		financialYear: normalized.FinancialYear,
		fileType:      ft,
	}, nil
}

// incomplete собирает IncompleteError в фиксированном порядке полей.
func incomplete(verrs validator.ValidationErrors) *IncompleteError {
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()] = true
	}

	missing := make([]string, 0, len(failed))
	for _, name := range fieldOrder {
		if failed[name] {
			missing = append(missing, name)
		}
	}
	return &IncompleteError{Missing: missing}
}
