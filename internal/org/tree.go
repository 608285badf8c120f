// Package org models the manager hierarchy as an arena of user ids.
package org

import (
	"errors"
	"slices"
)

var (
	// ErrManagerCycle is returned when a manager assignment would close a loop.
	ErrManagerCycle = errors.New("manager assignment would create a reporting cycle")
	// ErrSelfManager is returned when a user is set as their own manager.
	ErrSelfManager = errors.New("user cannot manage themselves")
)

// Tree maps each user id to its manager id. Missing managers are treated as
// roots; the tree holds no pointers between nodes.
type Tree struct {
	parent   map[string]string
	children map[string][]string
}

// NewTree builds the arena from user id to manager id pairs. Empty manager
// ids are roots.
func NewTree(managers map[string]string) *Tree {
	t := &Tree{
		parent:   make(map[string]string, len(managers)),
		children: make(map[string][]string),
	}
	ids := make([]string, 0, len(managers))
	for id := range managers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		mgr := managers[id]
		if mgr == "" {
			continue
		}
		t.parent[id] = mgr
		t.children[mgr] = append(t.children[mgr], id)
	}
	return t
}

// ManagerOf returns the direct manager id, if any.
func (t *Tree) ManagerOf(userID string) (string, bool) {
	mgr, ok := t.parent[userID]
	return mgr, ok
}

// ValidateManager checks that making managerID the manager of userID keeps
// the hierarchy acyclic. An empty managerID clears the link and is valid.
func (t *Tree) ValidateManager(userID, managerID string) error {
	if managerID == "" {
		return nil
	}
	if managerID == userID {
		return ErrSelfManager
	}
	seen := map[string]struct{}{}
	for cur := managerID; cur != ""; {
		if cur == userID {
			return ErrManagerCycle
		}
		if _, ok := seen[cur]; ok {
			// Pre-existing loop above the new manager that does not pass
			// through userID.
			return nil
		}
		seen[cur] = struct{}{}
		cur = t.parent[cur]
	}
	return nil
}

// Reports returns every user that transitively reports to managerID.
func (t *Tree) Reports(managerID string) map[string]struct{} {
	out := map[string]struct{}{}
	queue := append([]string(nil), t.children[managerID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := out[id]; ok || id == managerID {
			continue
		}
		out[id] = struct{}{}
		queue = append(queue, t.children[id]...)
	}
	return out
}

// Cycles returns each reporting loop once, as the sorted ids on the loop.
func (t *Tree) Cycles() [][]string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(t.parent))
	ids := make([]string, 0, len(t.parent))
	for id := range t.parent {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var cycles [][]string
	for _, start := range ids {
		if state[start] != unvisited {
			continue
		}
		var path []string
		cur := start
		for cur != "" && state[cur] == unvisited {
			state[cur] = active
			path = append(path, cur)
			cur = t.parent[cur]
		}
		if cur != "" && state[cur] == active {
			idx := slices.Index(path, cur)
			loop := append([]string(nil), path[idx:]...)
			slices.Sort(loop)
			cycles = append(cycles, loop)
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return cycles
}
