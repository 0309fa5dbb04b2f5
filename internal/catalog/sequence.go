// sequence.go — защита каталога от устаревших ответов.
//
// Каждый fetch получает номер; применить результат можно только
// для последнего выданного номера. Запрос, запущенный при смене токена,
// вытесняет запрос, запущенный при монтировании, а не встаёт за ним в очередь.
package catalog

import "sync"

// Sequencer выдаёт монотонно возрастающие номера запросов.
type Sequencer struct {
	mu     sync.Mutex
	last   uint64
	closed bool
}

// NewSequencer создаёт Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Next выдаёт номер нового запроса. Все ранее выданные номера
// становятся устаревшими.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Current сообщает, является ли seq последним выданным номером.
func (s *Sequencer) Current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && seq == s.last
}

// Apply выполняет fn, только если seq актуален и Sequencer не закрыт.
// fn выполняется под блокировкой: между проверкой и применением
// не может быть выдан новый номер.
func (s *Sequencer) Apply(seq uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.last {
		return false
	}
	fn()
	return true
}

// Close закрывает Sequencer: все последующие Apply игнорируются.
// Вызывается при размонтировании view.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed сообщает, закрыт ли Sequencer.
func (s *Sequencer) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
