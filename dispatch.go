package pgtrigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kataras/pgtrigger/catalog"

	"github.com/jackc/pgx/v5"
)

// Event is a row or statement event reported by the database
// to the dispatcher, see DB.Dispatch.
type Event struct {
	Table   string            // the table the event happened on.
	Type    catalog.EventType // INSERT, UPDATE or DELETE.
	ForEach bool              // true if reported by a FOR EACH ROW trigger.

	payload string
}

// GetPayload returns the raw payload of the notification.
func (e Event) GetPayload() string {
	return e.payload
}

// parseEvent decodes the payload the notify function produces:
// {"table": TG_TABLE_NAME, "change": TG_OP, "level": TG_LEVEL}.
func parseEvent(payload string) (Event, error) {
	evt := Event{payload: payload}

	var raw struct {
		Table  string `json:"table"`
		Change string `json:"change"`
		Level  string `json:"level"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return evt, fmt.Errorf("decode event: %w", err)
	}

	if raw.Table == "" {
		return evt, errors.New("decode event: empty table name")
	}
	evt.Table = raw.Table

	t, err := catalog.ParseEventType(raw.Change)
	if err != nil {
		return evt, fmt.Errorf("decode event: %w", err)
	}
	evt.Type = t

	forEach, ok := catalog.ParseOrientation(raw.Level)
	if !ok {
		return evt, fmt.Errorf("decode event: unexpected level %q", raw.Level)
	}
	evt.ForEach = forEach

	return evt, nil
}

// DispatchOptions is the options for the "DB.Dispatch" method.
type DispatchOptions struct {
	// Channel is the name of the postgres channel to listen on.
	// Defaults to catalog.DefaultChannel.
	Channel string

	// Function is the name of the postgres function
	// which notifies on table events, the
	// trigger name is <table_name>_<Function>_<row|statement>.
	// Defaults to catalog.DefaultFunction.
	Function string
}

// withDefaults returns a copy of the options with the defaults filled in,
// the caller's options are left untouched.
func (opts *DispatchOptions) withDefaults() DispatchOptions {
	var o DispatchOptions
	if opts != nil {
		o = *opts
	}

	o.setDefaults()
	return o
}

func (opts *DispatchOptions) setDefaults() {
	if opts.Channel == "" {
		opts.Channel = catalog.DefaultChannel
	}

	if opts.Function == "" {
		opts.Function = catalog.DefaultFunction
	}
}

// buildDispatchQueries returns the statements which create the notify function
// and, per table and orientation of the catalog's triggers, the trigger calling it.
func buildDispatchQueries(c *catalog.Catalog, channel, function string) []string {
	quotedFunction := pgx.Identifier{function}.Sanitize()

	queries := []string{fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
	BEGIN
	PERFORM pg_notify('%s', json_build_object('table', TG_TABLE_NAME, 'change', TG_OP, 'level', TG_LEVEL)::text);
	RETURN NULL;
	END;
	$$ LANGUAGE plpgsql;`, quotedFunction, escapeLiteral(channel))}

	for _, tableName := range c.TableNames() {
		td, _ := c.Table(tableName)

		for _, forEach := range []bool{true, false} {
			var events []catalog.EventType
			for _, event := range catalog.EventTypes {
				for _, t := range c.TriggersOn(tableName, event) {
					if t.ForEach == forEach {
						events = append(events, event)
						break
					}
				}
			}

			if len(events) == 0 {
				continue
			}

			orientation := catalog.Orientation(forEach)
			triggerName := pgx.Identifier{td.Name + "_" + function + "_" + strings.ToLower(orientation)}.Sanitize()
			queries = append(queries, fmt.Sprintf(`CREATE OR REPLACE TRIGGER %s
	AFTER %s
	ON %s
	FOR EACH %s
	EXECUTE FUNCTION %s();`, triggerName, catalog.JoinEventTypes(events), pgx.Identifier{td.SearchPath, td.Name}.Sanitize(), orientation, quotedFunction))
		}
	}

	return queries
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// PrepareDispatch installs, in one transaction, the notify function and the database triggers
// reporting the events of every table the registry's triggers are bound to.
// See "db.Dispatch" method for more.
func (db *DB) PrepareDispatch(ctx context.Context, opts *DispatchOptions) error {
	o := opts.withDefaults()
	queries := buildDispatchQueries(db.Snapshot().Catalog(), o.Channel, o.Function)

	return db.InTransaction(ctx, func(db *DB) error {
		for _, query := range queries {
			if _, err := db.Exec(ctx, query); err != nil {
				return fmt.Errorf("prepare dispatch: %w", err)
			}
		}

		return nil
	})
}

// Dispatch prepares the database (see PrepareDispatch) and starts listening for table events.
// Each event fires the matching trigger definitions of the registry inside a new transaction,
// which is committed when all of them succeed and rolled back otherwise.
//
// Notifications are delivered after the transaction that caused them commits,
// so the definitions run in a follow-up transaction, at most once per event.
// Use DB.Fire within the modifying transaction when the side effects must be atomic with it.
//
// The callback receives every event along with its decode or fire error, if any.
// The callback function can return an error to stop the listener.
// The callback function can return nil to continue listening.
// A nil callback fails with ErrNilCallback.
// A connection failure stops the listener after it is reported to the callback.
//
// The returned Closer stops the listener and waits for it to exit,
// canceling the given context does the same.
func (db *DB) Dispatch(ctx context.Context, opts *DispatchOptions, callback func(Event, error) error) (Closer, error) {
	if callback == nil {
		return nil, ErrNilCallback
	}

	o := opts.withDefaults()
	if err := db.PrepareDispatch(ctx, &o); err != nil {
		return nil, err
	}

	conn, err := db.Listen(ctx, o.Channel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer conn.Close(context.Background())

		dispatchEvents(ctx, conn, db.fireEvent, callback)
	}()

	return dispatcher{cancel: cancel, done: done}, nil
}

// ErrNilCallback is returned by Dispatch when no callback is given.
var ErrNilCallback = errors.New("dispatch: nil callback")

// acceptor is implemented by the Listener.
type acceptor interface {
	Accept(ctx context.Context) (*Notification, error)
}

// fireEvent fires the event's triggers in a transaction of their own.
func (db *DB) fireEvent(ctx context.Context, evt Event) error {
	return db.InTransaction(ctx, func(tx *DB) error {
		return tx.Fire(ctx, evt.Table, evt.Type, evt.ForEach)
	})
}

// dispatchEvents accepts notifications and fires them until ctx is done,
// the connection fails or the callback returns an error.
// An empty payload is reported to the callback and skipped.
func dispatchEvents(ctx context.Context, conn acceptor, fire func(context.Context, Event) error, callback func(Event, error) error) {
	for {
		notification, err := conn.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			if callback(Event{}, err) != nil || !errors.Is(err, ErrEmptyPayload) {
				return
			}

			continue
		}

		evt, err := parseEvent(notification.Payload)
		if err == nil {
			err = fire(ctx, evt)
		}

		if callback(evt, err) != nil {
			return
		}
	}
}

type dispatcher struct {
	cancel context.CancelFunc
	done   <-chan struct{}
}

func (d dispatcher) Close(ctx context.Context) error {
	d.cancel()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
