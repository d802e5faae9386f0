package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML catalog document. Document order is kept as catalog order,
// so the fragments of a trigger fire in the order they are written, e.g.
//
//	tables:
//	  customers:
//	    columns:
//	      id: bigint
//	      email: text
//	triggers:
//	  - name: audit_new_customer # optional, defaults to customer_on_insert.
//	    table: customers
//	    event: insert
//	    for_each: row # or statement (default).
//	    statements:
//	      audit:
//	        sql: INSERT INTO audit_log(entry) VALUES('customer inserted');
//	        fragments:
//	          main:
//	            id: 10 # optional.
//	            plan: INSERT INTO audit_log(entry) VALUES('customer inserted');
//
// Fragments without an id are numbered after the highest explicit id of the document,
// an explicit id must be positive. A fragment without a plan executes its statement's sql.
// Repeated keys of a mapping are rejected, with ErrDuplicateName for statements and fragments.
func Load(r io.Reader) (*Catalog, error) {
	var doc yamlCatalog
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}

		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	c := New()

	err := rangeMapping(&doc.Tables, func(name string, node *yaml.Node) error {
		var yt yamlTable
		if err := node.Decode(&yt); err != nil {
			return err
		}

		td := &Table{
			SearchPath:  yt.SearchPath,
			Name:        name,
			Description: yt.Description,
		}

		err := rangeMapping(&yt.Columns, func(columnName string, node *yaml.Node) error {
			td.AddColumns(&Column{Name: columnName, Type: node.Value})
			return nil
		})
		if err != nil {
			return fmt.Errorf("columns: %w", err)
		}

		c.AddTable(td)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: tables: %w", err)
	}

	var (
		triggers []*Trigger
		pending  []*PlanFragment // fragments without an explicit id.
		maxID    int64
	)

	for i, yt := range doc.Triggers {
		t, err := yt.toTrigger()
		if err != nil {
			return nil, fmt.Errorf("catalog: triggers[%d]: %w", i, err)
		}

		t.Statements.Range(func(_ string, s *Statement) bool {
			s.Fragments.Range(func(_ string, f *PlanFragment) bool {
				if f.ID == 0 {
					pending = append(pending, f)
				} else if f.ID > maxID {
					maxID = f.ID
				}
				return true
			})
			return true
		})

		triggers = append(triggers, t)
	}

	for _, f := range pending {
		maxID++
		f.ID = maxID
	}

	for _, t := range triggers {
		if err := c.AddTrigger(t); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	return c, nil
}

// LoadFile reads the YAML catalog document stored at path, see Load.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

type (
	yamlCatalog struct {
		Tables   yaml.Node     `yaml:"tables"`
		Triggers []yamlTrigger `yaml:"triggers"`
	}

	yamlTable struct {
		SearchPath  string    `yaml:"search_path"`
		Description string    `yaml:"description"`
		Columns     yaml.Node `yaml:"columns"`
	}

	yamlTrigger struct {
		Name       string    `yaml:"name"`
		Table      string    `yaml:"table"`
		Event      string    `yaml:"event"`
		ForEach    string    `yaml:"for_each"`
		Statements yaml.Node `yaml:"statements"`
	}

	yamlStatement struct {
		SQL       string    `yaml:"sql"`
		Fragments yaml.Node `yaml:"fragments"`
	}

	yamlFragment struct {
		ID   *int64 `yaml:"id"` // nil when omitted.
		Plan string `yaml:"plan"`
	}
)

func (yt yamlTrigger) toTrigger() (*Trigger, error) {
	if yt.Table == "" {
		return nil, errors.New("missing table")
	}

	event, err := ParseEventType(yt.Event)
	if err != nil {
		return nil, err
	}

	forEach := false
	if yt.ForEach != "" {
		var ok bool
		if forEach, ok = ParseOrientation(yt.ForEach); !ok {
			return nil, fmt.Errorf("for_each: expected row or statement but got %q", yt.ForEach)
		}
	}

	t := &Trigger{
		Name:       yt.Name,
		TableName:  yt.Table,
		Event:      event,
		ForEach:    forEach,
		Statements: NewMap[*Statement](),
	}
	if t.Name == "" {
		t.Name = DefaultTriggerName(t.TableName, t.Event)
	}

	err = rangeMapping(&yt.Statements, func(stmtName string, node *yaml.Node) error {
		var ys yamlStatement
		if err := node.Decode(&ys); err != nil {
			return err
		}

		stmt := &Statement{Name: stmtName, SQL: ys.SQL, Fragments: NewMap[*PlanFragment]()}

		err := rangeMapping(&ys.Fragments, func(fragName string, node *yaml.Node) error {
			var yf yamlFragment
			if err := node.Decode(&yf); err != nil {
				return err
			}

			var id int64
			if yf.ID != nil {
				if id = *yf.ID; id <= 0 {
					return fmt.Errorf("id: expected a positive number but got %d", id)
				}
			}

			plan := yf.Plan
			if plan == "" {
				plan = ys.SQL
			}

			return stmt.AddFragments(&PlanFragment{ID: id, Name: fragName, PlanNodeTree: plan})
		})
		if err != nil {
			return fmt.Errorf("fragments: %w", err)
		}

		return t.AddStatements(stmt)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: statements: %w", t.Name, err)
	}

	return t, nil
}

// rangeMapping calls fn for every key/value pair of a mapping node in document order.
// An absent node is an empty mapping, a repeated key is an error.
func rangeMapping(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil
	}

	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if _, ok := seen[key.Value]; ok {
			return fmt.Errorf("line %d: %w: %s", key.Line, ErrDuplicateName, key.Value)
		}
		seen[key.Value] = struct{}{}

		if err := fn(key.Value, value); err != nil {
			return fmt.Errorf("%s: %w", key.Value, err)
		}
	}

	return nil
}
