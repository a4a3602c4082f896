package taskdata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenDefaultWins(t *testing.T) {
	b := NewBundle()

	other := NewDataset()
	other.Set("value", 1)
	other.Set("shared", "other")
	b.AddDataset("other", other)

	def := NewDataset()
	def.Set("shared", "default")
	b.AddDataset("put", def)
	require.NoError(t, b.SetDefaultByAlias("put"))

	b.Flatten(true)

	result := b.DefaultDataset()
	require.Equal(t, 1, result.Get("value", nil))
	require.Equal(t, "default", result.Get("shared", nil))
}

func TestFlattenIdempotent(t *testing.T) {
	b := NewBundle()
	a := NewDataset()
	a.Set("x", 1)
	b.AddDataset("a", a)
	b.AddAlias("alias-a", 0)

	c := NewDataset()
	c.Set("y", 2)
	b.AddDataset("c", c)

	first := b.Flatten(false)
	second := first.Flatten(false)

	require.Equal(t, first.DefaultDataset().Values(), second.DefaultDataset().Values())
	require.Equal(t, 0, second.DefaultIndex())
}

func TestAliasIndexConsistencyAfterFlatten(t *testing.T) {
	b := NewBundle()
	b.AddDataset("a", NewDataset())
	b.AddDataset("b", NewDataset(), "alias-b")

	b.Flatten(true)

	for alias := range b.aliases {
		ds, err := b.ByAlias(alias)
		require.NoError(t, err)
		require.NotNil(t, ds)
	}
	_, err := b.ByIndex(b.DefaultIndex())
	require.NoError(t, err)
}

func TestInvalidAliasAndIndex(t *testing.T) {
	b := NewBundle()
	b.AddDataset("a", NewDataset())

	_, err := b.ByAlias("missing")
	require.Error(t, err)

	_, err = b.ByIndex(5)
	require.Error(t, err)

	require.Error(t, b.AddAlias("x", 5))
	require.Error(t, b.SetDefaultByIndex(5))
	require.Error(t, b.SetDefaultByAlias("missing"))
}

func TestAddTaskHistory(t *testing.T) {
	b := NewBundle()
	b.AddDataset("a", NewDataset())
	b.AddDataset("b", NewDataset())

	b.AddTaskHistory("task1")
	for _, ds := range b.Datasets() {
		require.Equal(t, []string{"task1"}, ds.History())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBundle()
	ds := NewDataset()
	ds.Set("a", 1)
	b.AddDataset("x", ds)

	clone := b.Clone()
	clone.DefaultDataset().Set("a", 2)

	require.Equal(t, 1, b.DefaultDataset().Get("a", nil))
	require.Equal(t, 2, clone.DefaultDataset().Get("a", nil))
}
