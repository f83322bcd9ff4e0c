package realtime

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sequencer выдаёт монотонно возрастающие идентификаторы операций.
// Префикс узла (UUID) делает идентификаторы разных процессов различимыми в логах сервера.
type Sequencer struct {
	nodeID  string
	counter int64
	mu      sync.Mutex
}

// NewSequencer создает генератор со случайным идентификатором узла.
func NewSequencer() *Sequencer {
	return NewSequencerWithNodeID(uuid.New().String()[:8])
}

// NewSequencerWithNodeID создает генератор с заданным идентификатором узла.
// Используется в тестах для детерминированных идентификаторов.
func NewSequencerWithNodeID(nodeID string) *Sequencer {
	return &Sequencer{nodeID: nodeID}
}

// Next увеличивает счетчик и возвращает новый номер вместе с идентификатором.
func (s *Sequencer) Next() (int64, OperationID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	return s.counter, OperationID(fmt.Sprintf("op_%s_%d", s.nodeID, s.counter))
}

// Current возвращает последний выданный номер без изменения.
func (s *Sequencer) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counter
}

// NodeID возвращает идентификатор узла.
func (s *Sequencer) NodeID() string {
	return s.nodeID
}
