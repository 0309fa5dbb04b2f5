// Пакет catalog — in-memory каталоги view-model: документы, справочник клиентов
// и защита от устаревших ответов (Sequencer).
//
// Каталог заменяется целиком при каждом успешном fetch (без слияния).
// Сетевых операций пакет не выполняет и ошибок не возвращает:
// решение «не трогать» / «загрузить пустой список» принимает вызывающий код.
package catalog

import "sync"

// identifiable — запись с устойчивым идентификатором.
type identifiable interface {
	Identity() string
}

// collection — упорядоченная коллекция записей с флагами загрузки.
// Порядок — порядок ответа backend, сортировка не выполняется.
type collection[T identifiable] struct {
	mu      sync.RWMutex
	items   []T
	loaded  bool
	loading bool
}

// load заменяет коллекцию целиком и сбрасывает индикатор загрузки.
// Входной срез копируется: вызывающий код может его переиспользовать.
func (c *collection[T]) load(all []T) {
	items := make([]T, len(all))
	copy(items, all)

	c.mu.Lock()
	c.items = items
	c.loaded = true
	c.loading = false
	c.mu.Unlock()
}

// upsert заменяет запись с тем же ID на месте или добавляет в конец.
func (c *collection[T]) upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := item.Identity()
	for i := range c.items {
		if c.items[i].Identity() == id {
			c.items[i] = item
			return
		}
	}
	c.items = append(c.items, item)
}

// remove удаляет запись по ID. Возвращает false, если записи не было.
func (c *collection[T]) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Identity() == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// get возвращает запись по ID.
func (c *collection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if item.Identity() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// all возвращает копию коллекции.
func (c *collection[T]) all() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *collection[T]) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *collection[T]) isLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *collection[T]) isLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
