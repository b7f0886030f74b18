package depspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insys-icom/medusa/internal/value"
)

func TestPartition(t *testing.T) {
	tbl := value.Table{
		"SRC1": value.NewSequence([]value.Value{value.NewScalar("1.1"), value.NewScalar("1.2")}),
	}
	clauses := []value.AnyClause{{VarName: "DYN1", ListRef: "@{SRC1}"}}

	spec, err := Partition([]string{"one", "two", "one"}, clauses, tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, spec.Static)
	require.Len(t, spec.Dynamic, 1)
	assert.Equal(t, "DYN1", spec.Dynamic[0].VarName)
	assert.Equal(t, []string{"1.1", "1.2"}, spec.Dynamic[0].Options)
}

func TestEffectiveDeps_OrdersStaticThenDynamic(t *testing.T) {
	spec := DepSpec{
		Static:  []string{"one", "two"},
		Dynamic: []DynChoice{{VarName: "PORT", Options: []string{"12", "34"}}},
	}
	eff := spec.EffectiveDeps(map[string]string{"PORT": "34"})
	assert.Equal(t, []string{"one", "two", "34"}, eff)
}

func TestEffectiveDeps_DedupesAcrossStaticAndDynamic(t *testing.T) {
	spec := DepSpec{
		Static:  []string{"shared"},
		Dynamic: []DynChoice{{VarName: "PORT", Options: []string{"shared"}}},
	}
	eff := spec.EffectiveDeps(map[string]string{"PORT": "shared"})
	assert.Equal(t, []string{"shared"}, eff)
}

func TestStaticSet(t *testing.T) {
	spec := DepSpec{Static: []string{"a", "b"}}
	set := spec.StaticSet()
	_, ok := set["a"]
	assert.True(t, ok)
	_, ok = set["c"]
	assert.False(t, ok)
}
