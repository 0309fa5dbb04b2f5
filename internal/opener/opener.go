// Пакет opener — передача файла документа внешнему обработчику.
// Портал не читает байты файла: он только проверяет, что URL можно открыть.
package opener

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupported — URL отсутствует, не разбирается или схема не разрешена.
var ErrUnsupported = errors.New("URL не поддерживается")

// DefaultSchemes — схемы, разрешённые по умолчанию.
var DefaultSchemes = []string{"http", "https"}

// Opener проверяет и разрешает URL файлов.
type Opener struct {
	schemes map[string]bool
}

// New создаёт Opener с набором разрешённых схем (без учёта регистра).
// Пустой набор означает DefaultSchemes.
func New(schemes []string) *Opener {
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	set := make(map[string]bool, len(schemes))
	for _, s := range schemes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			set[s] = true
		}
	}
	return &Opener{schemes: set}
}

// CanOpen сообщает, можно ли открыть URL.
func (o *Opener) CanOpen(rawURL string) bool {
	_, err := o.Open(rawURL)
	return err == nil
}

// Open проверяет URL и возвращает его нормализованную форму
// для передачи внешнему обработчику.
func (o *Opener) Open(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: пустой URL", ErrUnsupported)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if !o.schemes[strings.ToLower(u.Scheme)] {
		return "", fmt.Errorf("%w: схема %q", ErrUnsupported, u.Scheme)
	}
	if u.Host == "" && u.Opaque == "" {
		return "", fmt.Errorf("%w: нет адреса", ErrUnsupported)
	}

	return u.String(), nil
}
