package catalog

import "fmt"

// Trigger is the catalog entry of a trigger: on which table and event it
// fires, whether per row or per statement, and the statements it runs.
type Trigger struct {
	Name       string
	TableName  string
	Event      EventType
	ForEach    bool // true: FOR EACH ROW, false: FOR EACH STATEMENT
	Statements *Map[*Statement]
}

// Orientation returns ROW or STATEMENT.
func (t *Trigger) Orientation() string {
	return Orientation(t.ForEach)
}

// Orientation returns the CREATE TRIGGER orientation keyword for the flag.
func Orientation(forEach bool) string {
	if forEach {
		return "ROW"
	}

	return "STATEMENT"
}

// ParseOrientation reports whether the given level ("ROW", "STATEMENT")
// is the per-row one. TG_LEVEL values are accepted as they are.
func ParseOrientation(level string) (forEach bool, ok bool) {
	switch level {
	case "ROW", "row":
		return true, true
	case "STATEMENT", "statement":
		return false, true
	default:
		return false, false
	}
}

// AddStatements appends the given statements to the trigger, keyed by their name.
// A name the trigger already holds fails with ErrDuplicateName,
// the statements before it are kept.
func (t *Trigger) AddStatements(stmts ...*Statement) error {
	if t.Statements == nil {
		t.Statements = NewMap[*Statement]()
	}

	for _, s := range stmts {
		if !t.Statements.Add(s.Name, s) {
			return fmt.Errorf("trigger %s: %w: statement %s", t.Name, ErrDuplicateName, s.Name)
		}
	}

	return nil
}

// FragmentCount returns the number of plan fragments over all statements.
func (t *Trigger) FragmentCount() int {
	n := 0
	t.Statements.Range(func(_ string, s *Statement) bool {
		n += s.Fragments.Len()
		return true
	})
	return n
}
