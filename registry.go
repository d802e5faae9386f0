package pgtrigger

import (
	"context"
	"sync/atomic"

	"github.com/kataras/pgtrigger/catalog"
)

// Registry publishes the trigger definitions of a catalog to the execution path.
// A reload never modifies definitions already handed out, it builds
// a new Snapshot and swaps it in, so transactions firing triggers of the previous
// catalog keep a consistent view until they finish.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// NewRegistry returns a Registry publishing the definitions of the given catalog.
// A nil catalog is the same as an empty one.
func NewRegistry(c *catalog.Catalog) *Registry {
	r := new(Registry)
	r.Reload(c)
	return r
}

// Reload builds the definitions of the given catalog and publishes them.
// It returns the new snapshot.
func (r *Registry) Reload(c *catalog.Catalog) *Snapshot {
	s := newSnapshot(c)
	r.current.Store(s)
	return s
}

// Snapshot returns the currently published snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

type bindingKey struct {
	table   string
	event   catalog.EventType
	forEach bool
}

// Snapshot is an immutable set of trigger definitions built from one catalog.
type Snapshot struct {
	catalog     *catalog.Catalog
	definitions *catalog.Map[*Definition] // by trigger name.
	bindings    map[bindingKey][]*Definition
}

func newSnapshot(c *catalog.Catalog) *Snapshot {
	if c == nil {
		c = catalog.New()
	}

	s := &Snapshot{
		catalog:     c,
		definitions: catalog.NewMap[*Definition](),
		bindings:    make(map[bindingKey][]*Definition),
	}

	c.Triggers.Range(func(name string, t *catalog.Trigger) bool {
		d := NewDefinitionFromTrigger(t)
		if td, ok := c.Table(t.TableName); ok {
			d.SetSourceTable(td)
		}

		s.definitions.Set(name, d)

		key := bindingKey{table: t.TableName, event: t.Event, forEach: t.ForEach}
		s.bindings[key] = append(s.bindings[key], d)
		return true
	})

	return s
}

// Catalog returns the catalog the snapshot was built from.
// It should NOT be modified by the caller.
func (s *Snapshot) Catalog() *catalog.Catalog {
	return s.catalog
}

// Fragment returns the plan fragment with the given id.
func (s *Snapshot) Fragment(id int64) (*catalog.PlanFragment, bool) {
	return s.catalog.Fragment(id)
}

// Definition returns the definition of the trigger with the given name.
func (s *Snapshot) Definition(triggerName string) (*Definition, bool) {
	return s.definitions.Get(triggerName)
}

// Lookup returns the definitions bound to the table, event and orientation, in catalog order.
func (s *Snapshot) Lookup(tableName string, event catalog.EventType, forEach bool) []*Definition {
	return s.bindings[bindingKey{table: tableName, event: event, forEach: forEach}]
}

// Fire fires, in catalog order, every definition bound to the table, event and orientation
// inside the engine's active transaction. It stops on the first error and returns it.
func (s *Snapshot) Fire(ctx context.Context, engine Engine, tableName string, event catalog.EventType, forEach bool) error {
	for _, d := range s.Lookup(tableName, event, forEach) {
		if err := d.Fire(ctx, engine, d.SourceTable()); err != nil {
			return err
		}
	}

	return nil
}
