// store.go — каталог документов текущего пользователя
// (администратор видит все документы, клиент — только свои).
package catalog

import (
	"strings"
	"sync"

	"github.com/bigkaa/zntax/portal-module/internal/domain/model"
)

// Bucket — одна категория сгруппированного представления.
type Bucket struct {
	// Type — категория документа
	Type model.FileType
	// Records — документы категории в порядке исходного списка
	Records []model.DocumentRecord
}

// Store — каталог документов с производными представлениями.
// Безопасен для конкурентного использования.
type Store struct {
	docs collection[model.DocumentRecord]

	filterMu sync.RWMutex
	filter   string
}

// NewStore создаёт пустой каталог в состоянии «не загружен».
func NewStore() *Store {
	return &Store{}
}

// Load заменяет каталог целиком. Пустой срез означает
// «документов подтверждённо нет», а не «данные не получены».
func (s *Store) Load(all []model.DocumentRecord) {
	s.docs.load(all)
}

// Upsert заменяет документ с тем же ID на месте или добавляет новый в конец.
func (s *Store) Upsert(record model.DocumentRecord) {
	s.docs.upsert(record)
}

// Remove удаляет документ по ID.
func (s *Store) Remove(id string) bool {
	return s.docs.remove(id)
}

// Get возвращает документ по ID.
func (s *Store) Get(id string) (model.DocumentRecord, bool) {
	return s.docs.get(id)
}

// All возвращает копию всего каталога.
func (s *Store) All() []model.DocumentRecord {
	return s.docs.all()
}

// Len — количество документов.
func (s *Store) Len() int {
	return s.docs.len()
}

// MarkLoading выставляет индикатор загрузки (сбрасывается в Load).
func (s *Store) MarkLoading() {
	s.docs.setLoading(true)
}

// CancelLoading сбрасывает индикатор загрузки без изменения данных
// (fetch завершился ошибкой или был отброшен).
func (s *Store) CancelLoading() {
	s.docs.setLoading(false)
}

// Loading сообщает, идёт ли загрузка.
func (s *Store) Loading() bool {
	return s.docs.isLoading()
}

// Loaded сообщает, был ли каталог хотя бы раз загружен.
// false — «данных ещё нет», true с Len() == 0 — «документов нет».
func (s *Store) Loaded() bool {
	return s.docs.isLoaded()
}

// FilterByYear возвращает документы, у которых FinancialYear содержит query
// без учёта регистра. Пустой запрос (или только пробелы) возвращает весь каталог.
// Форматы года не нормализуются: "FY24-25" и "2024-25" — разные строки.
func (s *Store) FilterByYear(query string) []model.DocumentRecord {
	return FilterByYear(s.docs.all(), query)
}

// SetFilter задаёт активный фильтр по финансовому году.
func (s *Store) SetFilter(query string) {
	s.filterMu.Lock()
	s.filter = query
	s.filterMu.Unlock()
}

// Filter возвращает активный фильтр.
func (s *Store) Filter() string {
	s.filterMu.RLock()
	defer s.filterMu.RUnlock()
	return s.filter
}

// Filtered — каталог, отфильтрованный активным фильтром.
func (s *Store) Filtered() []model.DocumentRecord {
	return s.FilterByYear(s.Filter())
}

// FilterByYear — чистая функция фильтрации, общая для Store и тестов.
func FilterByYear(records []model.DocumentRecord, query string) []model.DocumentRecord {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]model.DocumentRecord, 0, len(records))
	for _, r := range records {
		if q == "" || strings.Contains(strings.ToLower(r.FinancialYear), q) {
			out = append(out, r)
		}
	}
	return out
}

// GroupByType раскладывает документы по четырём фиксированным категориям.
// Всегда возвращает ровно четыре корзины в каноническом порядке, включая пустые:
// пропускать ли пустые категории, решает слой представления.
// Документы неизвестного типа не попадают ни в одну корзину.
func GroupByType(records []model.DocumentRecord) []Bucket {
	types := model.FileTypes()
	buckets := make([]Bucket, len(types))
	for i, ft := range types {
		buckets[i] = Bucket{Type: ft, Records: []model.DocumentRecord{}}
	}

	for _, r := range records {
		idx := r.FileType.Index()
		if idx < 0 {
			continue
		}
		buckets[idx].Records = append(buckets[idx].Records, r)
	}
	return buckets
}
