package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/gophdash/internal/client/storage"
	"github.com/iudanet/gophdash/internal/client/transport"
	"github.com/iudanet/gophdash/internal/realtime"
)

// liveDocument сессия документа с привязанным менеджером.
// Сессия сама переподключается после разрыва.
type liveDocument struct {
	session *transport.Session
	manager *realtime.Manager
}

// connect подключается к документу и загружает его снапшот в менеджер
func (o *RootOptions) connect(ctx context.Context, sess *storage.Session) (*liveDocument, error) {
	server := o.Config.Server
	if sess.Server != "" && o.Server == "" {
		server = sess.Server
	}

	rc := o.Config.Reconnect
	session := transport.NewSession(transport.Config{
		ServerURL:      server,
		Document:       o.Config.Document,
		RequestTimeout: o.Config.RequestTimeout,
		PingInterval:   o.Config.PingInterval,
	}, transport.ReconnectPolicy{
		Attempts:   rc.Attempts,
		Delay:      rc.Delay,
		Multiplier: rc.Multiplier,
		MaxDelay:   rc.MaxDelay,
		Jitter:     reconnectJitter,
	}, sess.AccessToken, o.Logger)

	m := o.newManager(realtime.WithTransport(session))
	if err := session.Connect(ctx, m); err != nil {
		_ = session.Close()
		return nil, err
	}
	return &liveDocument{session: session, manager: m}, nil
}

func (d *liveDocument) Close() {
	_ = d.session.Close()
	d.manager.Clear()
}

// reconnectJitter доля случайного разброса задержки переподключения
const reconnectJitter = 0.2

// send отправляет операцию, повторяя пока менеджер оставляет ее в реестре.
// Ответ сервера с отказом не повторяется.
func (d *liveDocument) send(ctx context.Context, id realtime.OperationID) error {
	for {
		err := d.manager.Send(ctx, id, nil)
		if err == nil {
			return nil
		}

		var re *realtime.ResponseError
		if errors.As(err, &re) || ctx.Err() != nil {
			d.manager.Rollback(id)
			return err
		}
		if _, ok := d.manager.PendingOperation(id); !ok {
			return err
		}
	}
}

// record сохраняет итог синхронизации документа
func (o *RootOptions) record(ctx context.Context, d *liveDocument) error {
	store, err := o.openStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	return o.saveRecord(ctx, store, d.manager, d.session.Version())
}

func (o *RootOptions) saveRecord(ctx context.Context, store storage.SyncStorage, m *realtime.Manager, version int64) error {
	status := m.SyncStatus()
	err := store.SaveSyncRecord(ctx, storage.SyncRecord{
		At:       o.now(),
		Document: o.Config.Document,
		Version:  version,
		Pending:  status.PendingCount,
		Conflict: status.ConflictCount,
	})
	if err != nil {
		return fmt.Errorf("failed to save sync record: %w", err)
	}
	return nil
}
