package pgtrigger

import (
	"context"
	"errors"
	"testing"

	"github.com/kataras/pgtrigger/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryTestCatalog(t *testing.T, firstID int64) *catalog.Catalog {
	t.Helper()

	c := catalog.New()
	c.AddTable(&catalog.Table{Name: "customers"})

	audit := &catalog.Trigger{Name: "audit", TableName: "customers", Event: catalog.EventInsert, ForEach: true}
	require.NoError(t, audit.AddStatements(newStatement(t, "log",
		&catalog.PlanFragment{ID: firstID, Name: "f0"},
		&catalog.PlanFragment{ID: firstID + 1, Name: "f1"},
	)))
	require.NoError(t, c.AddTrigger(audit))

	count := &catalog.Trigger{Name: "count", TableName: "customers", Event: catalog.EventInsert, ForEach: true}
	require.NoError(t, count.AddStatements(newStatement(t, "bump", &catalog.PlanFragment{ID: firstID + 2, Name: "f0"})))
	require.NoError(t, c.AddTrigger(count))

	summary := &catalog.Trigger{Name: "summary", TableName: "customers", Event: catalog.EventInsert}
	require.NoError(t, summary.AddStatements(newStatement(t, "refresh", &catalog.PlanFragment{ID: firstID + 3, Name: "f0"})))
	require.NoError(t, c.AddTrigger(summary))

	return c
}

func TestRegistryLookup(t *testing.T) {
	c := newRegistryTestCatalog(t, 10)
	s := NewRegistry(c).Snapshot()

	assert.Same(t, c, s.Catalog())

	rows := s.Lookup("customers", catalog.EventInsert, true)
	require.Len(t, rows, 2)
	assert.Equal(t, []int64{10, 11}, fragmentIDs(rows[0].Fragments()))
	assert.Equal(t, []int64{12}, fragmentIDs(rows[1].Fragments()))

	customers, _ := c.Table("customers")
	for _, d := range rows {
		assert.Same(t, customers, d.SourceTable())
		assert.True(t, d.ForEach())
		assert.Equal(t, catalog.EventInsert, d.Type())
	}

	statements := s.Lookup("customers", catalog.EventInsert, false)
	require.Len(t, statements, 1)
	assert.False(t, statements[0].ForEach())

	assert.Empty(t, s.Lookup("customers", catalog.EventDelete, true))
	assert.Empty(t, s.Lookup("orders", catalog.EventInsert, true))

	d, ok := s.Definition("summary")
	require.True(t, ok)
	assert.Same(t, statements[0], d)

	f, ok := s.Fragment(13)
	require.True(t, ok)
	assert.Equal(t, int64(13), f.ID)
}

func TestRegistryFire(t *testing.T) {
	s := NewRegistry(newRegistryTestCatalog(t, 10)).Snapshot()

	engine := &recordingEngine{txnID: 9}
	require.NoError(t, s.Fire(context.Background(), engine, "customers", catalog.EventInsert, true))
	assert.Equal(t, []int64{10, 11, 12}, engine.fragmentIDs())

	customers, _ := s.Catalog().Table("customers")
	for _, c := range engine.calls {
		assert.Same(t, customers, c.input)
	}

	engine = &recordingEngine{txnID: 9, failOn: 11, failWith: errors.New("boom")}
	err := s.Fire(context.Background(), engine, "customers", catalog.EventInsert, true)
	require.EqualError(t, err, "boom")
	assert.Equal(t, []int64{10, 11}, engine.fragmentIDs(), "later triggers do not fire after a failure")

	engine = &recordingEngine{txnID: 9}
	require.NoError(t, s.Fire(context.Background(), engine, "customers", catalog.EventUpdate, true))
	assert.Empty(t, engine.calls)
}

func TestRegistryReloadPublishesNewSnapshot(t *testing.T) {
	r := NewRegistry(newRegistryTestCatalog(t, 10))
	before := r.Snapshot()
	beforeDefinition, _ := before.Definition("audit")

	after := r.Reload(newRegistryTestCatalog(t, 100))
	assert.Same(t, after, r.Snapshot())
	assert.NotSame(t, before, after)

	// definitions already handed out are left untouched.
	assert.Equal(t, []int64{10, 11}, fragmentIDs(beforeDefinition.Fragments()))

	afterDefinition, _ := after.Definition("audit")
	assert.Equal(t, []int64{100, 101}, fragmentIDs(afterDefinition.Fragments()))
}

func TestRegistryNilCatalog(t *testing.T) {
	s := NewRegistry(nil).Snapshot()
	require.NotNil(t, s.Catalog())
	assert.Empty(t, s.Lookup("customers", catalog.EventInsert, true))

	engine := &recordingEngine{}
	require.NoError(t, s.Fire(context.Background(), engine, "customers", catalog.EventInsert, true))
	assert.Empty(t, engine.calls)
}
