package org

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Tree {
	// ceo <- head <- mgr <- agent1, agent2 ; other has no manager
	return NewTree(map[string]string{
		"ceo":    "",
		"head":   "ceo",
		"mgr":    "head",
		"agent1": "mgr",
		"agent2": "mgr",
		"other":  "",
	})
}

func TestValidateManager(t *testing.T) {
	tree := sampleTree()

	require.NoError(t, tree.ValidateManager("other", "mgr"))
	require.NoError(t, tree.ValidateManager("agent1", ""))
	assert.ErrorIs(t, tree.ValidateManager("mgr", "mgr"), ErrSelfManager)
	assert.ErrorIs(t, tree.ValidateManager("ceo", "agent1"), ErrManagerCycle)
	assert.ErrorIs(t, tree.ValidateManager("head", "mgr"), ErrManagerCycle)
}

func TestReports(t *testing.T) {
	tree := sampleTree()

	assert.Equal(t, map[string]struct{}{"mgr": {}, "agent1": {}, "agent2": {}}, tree.Reports("head"))
	assert.Empty(t, tree.Reports("agent1"))
	assert.Empty(t, tree.Reports("unknown"))
}

func TestCyclesReportsExistingLoops(t *testing.T) {
	tree := NewTree(map[string]string{
		"a": "b",
		"b": "c",
		"c": "a",
		"d": "a",
		"e": "",
	})

	assert.Equal(t, [][]string{{"a", "b", "c"}}, tree.Cycles())
	assert.Empty(t, sampleTree().Cycles())

	// Reports terminates even on a loop.
	assert.Len(t, tree.Reports("a"), 3)
}
