package realtime

import (
	"context"
	"fmt"
)

//go:generate moq -out transport_mock.go . Transport

// Transport delivers an operation to the server and waits for its
// acknowledgement. Timeouts and reconnects belong to the implementation.
type Transport interface {
	Request(ctx context.Context, msgType string, data State) (*Response, error)
}

// Response is the server acknowledgement of a request. Err is set for a
// negative acknowledgement; Data carries canonical values for a positive one.
type Response struct {
	Data State
	Err  *ResponseError
}

// Send drives one delivery attempt: MarkSent, transport request, then
// Confirm or Fail. When data is non-nil it is sent instead of the operation's
// own payload. Unknown or already confirmed operations are a no-op.
//
// Send is the only blocking method and the only one that returns delivery
// errors. The engine's bookkeeping is done by the time it returns, so the
// caller only decides whether to resend or surface the error.
func (m *Manager) Send(ctx context.Context, id OperationID, data State) error {
	m.mu.Lock()
	entry, ok := m.ops[id]
	if !ok || entry.op.Status == StatusConfirmed {
		m.mu.Unlock()
		return nil
	}
	if m.transport == nil {
		m.mu.Unlock()
		return ErrNoTransport
	}
	if entry.op.Status == StatusSent {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrOperationInFlight, id)
	}
	entry.op.Status = StatusSent
	msgType := string(entry.op.Type)
	payload := entry.op.Data.Clone()
	if data != nil {
		payload = data.Clone()
	}
	m.mu.Unlock()

	m.logger.Debug("Sending operation", "operation_id", id, "type", msgType)

	resp, err := m.transport.Request(ctx, msgType, payload)
	if err != nil {
		m.Fail(id, err)
		return fmt.Errorf("send operation %s: %w", id, err)
	}
	if resp != nil && resp.Err != nil {
		m.Fail(id, resp.Err)
		return fmt.Errorf("send operation %s: %w", id, resp.Err)
	}

	var serverData State
	if resp != nil {
		serverData = resp.Data
	}
	m.Confirm(id, serverData)

	return nil
}
