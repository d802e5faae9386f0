// Package catalog describes the tables, triggers, statements and plan fragments
// a trigger binding is assembled from.
package catalog

import (
	"errors"
	"fmt"
)

var (
	// DefaultSearchPath is the default search path for the tables.
	DefaultSearchPath = "public"
	// DefaultChannel is the default postgres channel the dispatcher listens on.
	DefaultChannel = "trigger_event_notifications"
	// DefaultFunction is the default name of the postgres notify function.
	DefaultFunction = "trigger_event_notify"
)

var (
	// ErrInvalidEventType is returned when an event type is not INSERT, UPDATE or DELETE.
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrDuplicateFragment is returned when two plan fragments share the same id.
	ErrDuplicateFragment = errors.New("duplicate plan fragment id")
	// ErrUnknownTable is returned when a trigger is bound to a table the catalog does not know.
	ErrUnknownTable = errors.New("unknown table")
	// ErrDuplicateTrigger is returned when two triggers share the same name.
	ErrDuplicateTrigger = errors.New("duplicate trigger name")
	// ErrDuplicateName is returned when a statement or a plan fragment
	// is added under a name its owner already holds.
	ErrDuplicateName = errors.New("duplicate name")
)

// Catalog holds the tables, the triggers and the plan fragments they own.
// It is built once per (re)load and read-only afterwards:
// a reload produces a new Catalog instead of modifying the old one.
type Catalog struct {
	Tables   *Map[*Table]
	Triggers *Map[*Trigger]

	fragments map[int64]*PlanFragment
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		Tables:    NewMap[*Table](),
		Triggers:  NewMap[*Trigger](),
		fragments: make(map[int64]*PlanFragment),
	}
}

// AddTable registers a table. An empty search path is set to DefaultSearchPath.
func (c *Catalog) AddTable(td *Table) {
	if td.SearchPath == "" {
		td.SearchPath = DefaultSearchPath
	}

	c.Tables.Set(td.Name, td)
}

// AddTrigger registers a trigger and indexes its plan fragments by id.
// The trigger's table must be registered first.
func (c *Catalog) AddTrigger(t *Trigger) error {
	if !t.Event.IsValid() {
		return fmt.Errorf("trigger %s: %w: %d", t.Name, ErrInvalidEventType, t.Event)
	}

	if _, exists := c.Triggers.Get(t.Name); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTrigger, t.Name)
	}

	if _, ok := c.Tables.Get(t.TableName); !ok {
		return fmt.Errorf("trigger %s: %w: %s", t.Name, ErrUnknownTable, t.TableName)
	}

	ids := make(map[int64]struct{})
	var err error
	t.Statements.Range(func(stmtName string, s *Statement) bool {
		s.Fragments.Range(func(_ string, f *PlanFragment) bool {
			_, seen := ids[f.ID]
			if _, exists := c.fragments[f.ID]; exists || seen {
				err = fmt.Errorf("trigger %s: statement %s: %w: %d", t.Name, stmtName, ErrDuplicateFragment, f.ID)
				return false
			}
			ids[f.ID] = struct{}{}
			return true
		})
		return err == nil
	})
	if err != nil {
		return err
	}

	t.Statements.Range(func(_ string, s *Statement) bool {
		s.Fragments.Range(func(_ string, f *PlanFragment) bool {
			c.fragments[f.ID] = f
			return true
		})
		return true
	})

	c.Triggers.Set(t.Name, t)
	return nil
}

// Fragment returns the plan fragment with the given id.
func (c *Catalog) Fragment(id int64) (*PlanFragment, bool) {
	f, ok := c.fragments[id]
	return f, ok
}

// Table returns the table with the given name.
func (c *Catalog) Table(name string) (*Table, bool) {
	return c.Tables.Get(name)
}

// TableNames returns the registered table names in catalog order.
func (c *Catalog) TableNames() []string {
	return c.Tables.Keys()
}

// TriggersOn returns the triggers bound to the given table and event, in catalog order.
func (c *Catalog) TriggersOn(tableName string, event EventType) []*Trigger {
	var list []*Trigger
	c.Triggers.Range(func(_ string, t *Trigger) bool {
		if t.TableName == tableName && t.Event == event {
			list = append(list, t)
		}
		return true
	})

	return list
}
