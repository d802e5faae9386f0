// Package pgtrigger binds data-modification events on database tables to ordered lists
// of compiled plan fragments and fires them inside an already open transaction.
package pgtrigger

import (
	"context"

	"github.com/kataras/pgtrigger/catalog"
)

// Definition is the runtime form of a catalog trigger: its event type,
// whether it fires per row or per statement, its source table and the flattened,
// ordered list of the plan fragments it executes.
//
// A Definition references the catalog's fragments and table, it never copies them,
// so the catalog must outlive it. Once published to the execution path
// (see Registry) a Definition should be treated as immutable,
// a catalog reload publishes new instances instead.
type Definition struct {
	eventType   catalog.EventType
	forEach     bool
	sourceTable *catalog.Table
	fragments   []*catalog.PlanFragment
}

// NewDefinition builds a Definition from the statements of a trigger.
// The fragment list is the concatenation, in catalog order, of every statement's fragments,
// each in the statement's own order. No deduplication or reordering takes place.
//
// An empty or nil statements map results in a Definition which fires nothing.
// An invalid event type leaves the default one, EventInsert, in place.
func NewDefinition(statements *catalog.Map[*catalog.Statement], typ catalog.EventType, forEach bool) *Definition {
	d := &Definition{
		eventType: catalog.EventInsert,
		forEach:   forEach,
	}
	d.SetType(typ)

	statements.Range(func(_ string, stmt *catalog.Statement) bool {
		stmt.Fragments.Range(func(_ string, f *catalog.PlanFragment) bool {
			d.fragments = append(d.fragments, f)
			return true
		})
		return true
	})

	return d
}

// NewDefinitionFromTrigger is a shortcut of NewDefinition for a catalog trigger.
func NewDefinitionFromTrigger(t *catalog.Trigger) *Definition {
	return NewDefinition(t.Statements, t.Event, t.ForEach)
}

// Fire executes the plan fragments, one after the other in list order,
// inside the transaction which is active on the engine.
// The input table holds the rows that caused the event, it is handed to the engine
// through the context (see InputTable), Fire does not inspect it.
//
// No transaction is started or committed here and no result rows are produced.
// The first engine error is returned as it is and the remaining fragments are not executed,
// the enclosing transaction decides what happens to the side effects of the ones already run.
func (d *Definition) Fire(ctx context.Context, engine Engine, input *catalog.Table) error {
	txnID := engine.ExecutorContext().CurrentTxnID()
	sendTupleCount := false

	ctx = withInputTable(ctx, input)

	for _, f := range d.fragments {
		if err := engine.ExecuteQueryNoOutput(ctx, f.ID, nil, txnID, sendTupleCount); err != nil {
			return err
		}
		sendTupleCount = false
	}

	return nil
}

// SetType sets the event type and reports true if t is INSERT, UPDATE or DELETE.
// Otherwise it reports false and the event type is left unchanged.
func (d *Definition) SetType(t catalog.EventType) bool {
	if !t.IsValid() {
		return false
	}

	d.eventType = t
	return true
}

// SetForEach sets whether the trigger fires once per row (true) or once per statement.
func (d *Definition) SetForEach(forEach bool) {
	d.forEach = forEach
}

// SetSourceTable sets the table the trigger is defined on.
func (d *Definition) SetSourceTable(td *catalog.Table) {
	d.sourceTable = td
}

// Type returns the event type.
func (d *Definition) Type() catalog.EventType {
	return d.eventType
}

// ForEach reports whether the trigger fires once per row.
func (d *Definition) ForEach() bool {
	return d.forEach
}

// SourceTable returns the table the trigger is defined on, it may be nil.
func (d *Definition) SourceTable() *catalog.Table {
	return d.sourceTable
}

// Fragments returns the plan fragments in firing order.
// The returned slice is a copy, the fragments are shared with the catalog.
func (d *Definition) Fragments() []*catalog.PlanFragment {
	fragments := make([]*catalog.PlanFragment, len(d.fragments))
	copy(fragments, d.fragments)
	return fragments
}
