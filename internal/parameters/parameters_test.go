package parameters

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckMissing(t *testing.T) {
	list := NewList(
		Option{Name: "required", Type: TypeString},
		Option{Name: "optional", Default: "x", Type: TypeString},
	)

	missing := list.CheckMissing(map[string]any{})
	require.Equal(t, []string{"required"}, missing)

	missing = list.CheckMissing(map[string]any{"required": "value"})
	require.Empty(t, missing)
}

func TestConsolidateFillsDefaultsAndCoerces(t *testing.T) {
	list := NewList(
		Option{Name: "count", Default: 1, Type: TypeInt},
		Option{Name: "name", Type: TypeString},
		Option{Name: "enabled", Default: false, Type: TypeBool},
	)

	out, err := list.Consolidate(map[string]any{"name": "workflow", "count": "7", "enabled": "true"})
	require.NoError(t, err)
	require.Equal(t, 7, out["count"])
	require.Equal(t, "workflow", out["name"])
	require.Equal(t, true, out["enabled"])
}

func TestConsolidateOmitsMissingRequired(t *testing.T) {
	list := NewList(Option{Name: "required", Type: TypeString})

	out, err := list.Consolidate(map[string]any{})
	require.NoError(t, err)
	_, present := out["required"]
	require.False(t, present)
}

func TestExtend(t *testing.T) {
	a := NewList(Option{Name: "a"})
	b := NewList(Option{Name: "b"})
	a.Extend(b)
	require.Len(t, a.Options(), 2)
}
