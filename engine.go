package pgtrigger

import (
	"context"

	"github.com/kataras/pgtrigger/catalog"
)

// ExecutorContext exposes the state of the transaction the engine
// is currently executing.
type ExecutorContext interface {
	// CurrentTxnID returns the identifier of the active transaction.
	CurrentTxnID() int64
}

// Engine is the execution engine a Definition fires its plan fragments through.
// See DB for the PostgreSQL implementation.
type Engine interface {
	// ExecutorContext returns the context of the active transaction.
	ExecutorContext() ExecutorContext
	// ExecuteQueryNoOutput executes a single plan fragment inside the transaction
	// identified by txnID, for its side effects only: no rows are returned to any client.
	// It must not return before the fragment has finished executing.
	ExecuteQueryNoOutput(ctx context.Context, fragmentID int64, params []any, txnID int64, sendTupleCount bool) error
}

type inputTableContextKey struct{}

// InputTable returns the table holding the rows which caused the trigger
// being fired, as passed to Definition.Fire. Engines may use it during
// fragment execution, it reports nil outside of Fire.
func InputTable(ctx context.Context) *catalog.Table {
	td, _ := ctx.Value(inputTableContextKey{}).(*catalog.Table)
	return td
}

func withInputTable(ctx context.Context, input *catalog.Table) context.Context {
	if input == nil {
		return ctx
	}

	return context.WithValue(ctx, inputTableContextKey{}, input)
}
