package desk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropdownGroup_ExclusiveOpen(t *testing.T) {
	g := NewDropdownGroup()
	g.Open("tx-1")
	assert.True(t, g.IsOpen("tx-1"))

	g.Open("tx-2")
	assert.False(t, g.IsOpen("tx-1"))
	assert.True(t, g.IsOpen("tx-2"))
	assert.Equal(t, "tx-2", g.Current())
}

func TestDropdownGroup_CloseOnlyAffectsOwner(t *testing.T) {
	g := NewDropdownGroup()
	g.Open("tx-1")
	g.Close("tx-2")
	assert.True(t, g.IsOpen("tx-1"))
	g.Close("tx-1")
	assert.Empty(t, g.Current())
}

func TestDropdownGroup_Toggle(t *testing.T) {
	g := NewDropdownGroup()
	assert.True(t, g.Toggle("a"))
	assert.True(t, g.Toggle("b"))
	assert.False(t, g.IsOpen("a"))
	assert.False(t, g.Toggle("b"))
	assert.Empty(t, g.Current())
}

func TestDropdownGroup_GroupsAreIndependent(t *testing.T) {
	a, b := NewDropdownGroup(), NewDropdownGroup()
	a.Open("x")
	b.Open("y")
	assert.True(t, a.IsOpen("x"))
	assert.True(t, b.IsOpen("y"))
	assert.False(t, a.IsOpen(""))
}

func TestDropdownGroup_OnChange(t *testing.T) {
	g := NewDropdownGroup()
	var seen []string
	g.OnChange(func(cur string) { seen = append(seen, cur) })

	g.Open("a")
	g.Open("a")
	g.Open("b")
	g.CloseAll()
	g.CloseAll()
	assert.Equal(t, []string{"a", "b", ""}, seen)
}
