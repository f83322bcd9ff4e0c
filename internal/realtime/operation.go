package realtime

import "time"

// OperationID идентификатор локальной операции. Уникален в пределах процесса.
type OperationID string

// OperationStatus is the lifecycle state of a pending operation.
type OperationStatus string

const (
	StatusPending   OperationStatus = "PENDING"
	StatusSent      OperationStatus = "SENT"
	StatusConfirmed OperationStatus = "CONFIRMED"
	StatusFailed    OperationStatus = "FAILED"
)

const (
	// DefaultMaxRetries количество повторов по умолчанию для новой операции.
	DefaultMaxRetries = 3
	// DefaultConfirmedRetention сколько подтверждённая операция остаётся в реестре.
	DefaultConfirmedRetention = 5 * time.Second
)

// PendingOperation is a locally applied mutation awaiting server acknowledgement.
// Values returned by Manager getters are copies.
type PendingOperation struct {
	Timestamp    time.Time
	Data         State
	OriginalData State
	ID           OperationID
	Type         OperationType
	Status       OperationStatus
	Retries      int
	MaxRetries   int
}

// active сообщает, участвует ли операция в наложении на состояние.
func (op *PendingOperation) active() bool {
	return op.Status == StatusPending || op.Status == StatusSent || op.Status == StatusFailed
}

func (op *PendingOperation) clone() PendingOperation {
	return PendingOperation{
		ID:           op.ID,
		Type:         op.Type,
		Status:       op.Status,
		Data:         op.Data.Clone(),
		OriginalData: op.OriginalData.Clone(),
		Timestamp:    op.Timestamp,
		Retries:      op.Retries,
		MaxRetries:   op.MaxRetries,
	}
}

// operationEntry внутренняя запись реестра.
type operationEntry struct {
	op PendingOperation
	// suppressed поля, наложение которых отключено: удалённая запись
	// победила в конфликте или более поздняя операция уже подтверждена.
	suppressed map[string]struct{}
	stopPurge  func() bool
}

// OperationOption настраивает операцию при Apply.
type OperationOption func(*PendingOperation)

// WithMaxRetries задаёт лимит повторов для конкретной операции.
// Значение 0 означает откат при первой же ошибке.
func WithMaxRetries(n int) OperationOption {
	return func(op *PendingOperation) {
		if n < 0 {
			n = 0
		}
		op.MaxRetries = n
	}
}
