package pgtrigger

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is a type alias of pgconn.Notification type.
type Notification = pgconn.Notification

// Closer is the interface which is implemented by the Listener.
// It's used to close the underline connection.
type Closer interface {
	Close(ctx context.Context) error
}

// Listener represents a postgres database LISTEN connection.
type Listener struct {
	conn *pgxpool.Conn

	channel string
	closed  uint32
}

var _ Closer = (*Listener)(nil)

// ErrEmptyPayload is returned when the notification payload is empty.
var ErrEmptyPayload = fmt.Errorf("empty payload")

// Listen listens for notifications on the given channel and returns a Listener instance.
// The listener holds a pool connection of its own until it is closed.
func (db *DB) Listen(ctx context.Context, channel string) (*Listener, error) {
	conn, err := db.Pool.Acquire(ctx) // Always on top.
	if err != nil {
		return nil, err
	}

	query := `LISTEN ` + pgx.Identifier{channel}.Sanitize()
	_, err = conn.Exec(ctx, query)
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	l := &Listener{
		conn:    conn,
		channel: channel,
	}
	return l, nil
}

// Notify sends a raw notification using pg_notify. It is sent through the transaction
// when called on a transactional DB, so it is delivered on commit.
func (db *DB) Notify(ctx context.Context, channel string, payload string) error {
	query := `SELECT pg_notify($1, $2);`
	_, err := db.Exec(ctx, query, channel, payload)
	return err
}

// Accept waits for a notification and returns it.
func (l *Listener) Accept(ctx context.Context) (*Notification, error) {
	nf, err := l.conn.Conn().WaitForNotification(ctx)
	if err != nil {
		return nil, err
	}

	if len(nf.Payload) == 0 {
		return nil, ErrEmptyPayload
	}

	return nf, nil
}

// Close unlistens and releases the listener connection.
func (l *Listener) Close(ctx context.Context) error {
	if l == nil {
		return nil
	}

	if l.conn == nil {
		return nil
	}

	if atomic.CompareAndSwapUint32(&l.closed, 0, 1) {
		defer l.conn.Release()

		query := `UNLISTEN ` + pgx.Identifier{l.channel}.Sanitize()
		_, err := l.conn.Exec(ctx, query)
		if err != nil {
			return err
		}
	}

	return nil
}
