package catalog

import (
	"fmt"
	"strconv"
)

// PlanFragment is a compiled, engine-executable unit of a statement's plan.
type PlanFragment struct {
	ID   int64  // stable identifier used to invoke execution
	Name string // name of the fragment inside its statement, defaults to its id
	// PlanNodeTree is the serialized plan. The PostgreSQL engine executes it
	// as SQL text, other engines may only use it for diagnostics.
	PlanNodeTree string
}

// Key returns the name the fragment is stored under inside its statement:
// its Name or, when empty, its decimal ID.
func (f *PlanFragment) Key() string {
	if f.Name != "" {
		return f.Name
	}

	return strconv.FormatInt(f.ID, 10)
}

// Statement is a catalog entry representing one SQL statement
// which owns one or more plan fragments (e.g. for partitioned execution).
type Statement struct {
	Name      string
	SQL       string // the source SQL, informational
	Fragments *Map[*PlanFragment]
}

// NewStatement returns a statement with the given fragments added in order.
// It fails with ErrDuplicateName when two fragments share the same key.
func NewStatement(name string, fragments ...*PlanFragment) (*Statement, error) {
	stmt := &Statement{
		Name:      name,
		Fragments: NewMap[*PlanFragment](),
	}

	if err := stmt.AddFragments(fragments...); err != nil {
		return nil, err
	}

	return stmt, nil
}

// AddFragments appends the given fragments to the statement, keyed by PlanFragment.Key.
// A key the statement already holds fails with ErrDuplicateName,
// the fragments before it are kept.
func (s *Statement) AddFragments(fragments ...*PlanFragment) error {
	if s.Fragments == nil {
		s.Fragments = NewMap[*PlanFragment]()
	}

	for _, f := range fragments {
		if !s.Fragments.Add(f.Key(), f) {
			return fmt.Errorf("statement %s: %w: fragment %s", s.Name, ErrDuplicateName, f.Key())
		}
	}

	return nil
}
