package suite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insys-icom/medusa/internal/value"
)

func TestParse_VariablesFixture(t *testing.T) {
	const src = `
*** Settings ***
Metadata    medusa:stage    my${STAGE}
Metadata    medusa:deps    plain    ${SCALAR_STRING}    ${SCALAR_NUMBER}    @{LIST}
Metadata    medusa:timeout    2,5,3

*** Variables ***
${SCALAR_STRING}    hello
${SCALAR_NUMBER}    ${42}
${STAGE}    Special_Stage
@{LIST}    one    two    3
@{LIST_OF_LISTS}    [one,two,three]    [a,b,c]    [1,2,3]
`
	s, err := Parse("variables.robot", strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "hello", s.Variables["SCALAR_STRING"].Scalar)
	assert.Equal(t, "42", s.Variables["SCALAR_NUMBER"].Scalar)
	assert.Equal(t, []string{"one", "two", "3"}, s.Variables["LIST"].Strings())

	lol := s.Variables["LIST_OF_LISTS"]
	require.Equal(t, value.KindSequence, lol.Kind)
	require.Len(t, lol.Sequence, 3)
	assert.Equal(t, []string{"one", "two", "three"}, lol.Sequence[0].Strings())

	require.Len(t, s.Entries, 3)
	assert.Equal(t, "medusa:stage", s.Entries[0].Key)
	assert.Equal(t, []string{"my${STAGE}"}, s.Entries[0].Tokens)
	assert.Equal(t, "medusa:deps", s.Entries[1].Key)
}

func TestParse_DictVariable(t *testing.T) {
	const src = `
*** Variables ***
&{RUNS}    working=2s    broken=10s
`
	s, err := Parse("dict.robot", strings.NewReader(src))
	require.NoError(t, err)

	runs := s.Variables["RUNS"]
	require.Equal(t, value.KindMapping, runs.Kind)
	require.Len(t, runs.Mapping, 2)
	assert.Equal(t, "working", runs.Mapping[0].Key)
	assert.Equal(t, "2s", runs.Mapping[0].Val.Scalar)
}

func TestParse_UnboundVariable(t *testing.T) {
	const src = `
*** Variables ***
${DYN1}    None
`
	s, err := Parse("unbound.robot", strings.NewReader(src))
	require.NoError(t, err)
	assert.True(t, s.Variables["DYN1"].IsUnbound())
}

func TestParse_IgnoresOtherSections(t *testing.T) {
	const src = `
*** Test Cases ***
Some Test
    Log    hello
`
	s, err := Parse("tc.robot", strings.NewReader(src))
	require.NoError(t, err)
	assert.Empty(t, s.Entries)
	assert.Empty(t, s.Variables)
}
