package transport

import (
	"context"
	"fmt"

	"github.com/iudanet/gophdash/internal/realtime"
	"github.com/iudanet/gophdash/pkg/api"
)

var _ realtime.Transport = (*Adapter)(nil)

// Adapter отправляет операции менеджера через websocket клиент
type Adapter struct {
	client *Client
}

func NewAdapter(c *Client) *Adapter {
	return &Adapter{client: c}
}

// Request реализует realtime.Transport: ACK подтверждает операцию,
// NACK и SERVER_ERROR возвращаются как *realtime.ResponseError.
func (a *Adapter) Request(ctx context.Context, msgType string, data realtime.State) (*realtime.Response, error) {
	reply, err := a.client.Request(ctx, api.MessageType(msgType), data)
	if err != nil {
		return nil, err
	}

	switch reply.Type {
	case api.TypeAck:
		return &realtime.Response{Data: realtime.State(reply.Data)}, nil
	case api.TypeNack, api.TypeServerError:
		re := &realtime.ResponseError{Code: string(reply.Type)}
		if reply.Error != nil {
			re.Code = reply.Error.Code
			re.Message = reply.Error.Message
		}
		return &realtime.Response{Err: re}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, reply.Type)
	}
}

// Bind направляет рассылку сервера в менеджер
func Bind(c *Client, m *realtime.Manager) {
	c.SetPushHandler(func(msg *api.Message) {
		m.ApplyRemoteUpdate(realtime.Patch{
			Type:   realtime.OperationType(msg.Type),
			Values: realtime.State(msg.Data),
		})
	})
}

// Sync загружает снапшот документа в менеджер и возвращает его версию.
// Initialize выполняется в потоке чтения, поэтому рассылка, пришедшая
// после снапшота, применяется поверх него.
func Sync(ctx context.Context, c *Client, m *realtime.Manager) (int64, error) {
	reply, err := c.request(ctx, api.TypeSyncRequest, nil, func(msg *api.Message) {
		if msg.Type == api.TypeSyncResponse {
			m.Initialize(realtime.State(msg.Data))
		}
	})
	if err != nil {
		return 0, err
	}
	if err := replyError(reply, api.TypeSyncResponse); err != nil {
		return 0, err
	}
	return reply.Version, nil
}
