// Package graph provides the subtask dependency DAG used by the
// decomposer and the executor.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found among subtasks.
var ErrCycleDetected = errors.New("circular dependency detected")

// Graph represents a directed acyclic graph of subtask dependencies.
// Subtasks are nodes, and edges represent "blocked by" relationships.
type Graph struct {
	// nodes maps subtask ID to the subtask itself.
	nodes map[string]*models.Subtask
	// edges maps subtask ID to IDs of subtasks it depends on.
	edges map[string][]string
	// order preserves declaration order for deterministic iteration.
	order []string
	// terminal tracks which subtasks have reached a terminal state.
	terminal map[string]bool
}

// New creates a new empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*models.Subtask),
		edges:    make(map[string][]string),
		terminal: make(map[string]bool),
	}
}

// Build constructs the dependency graph from a slice of subtasks.
// Returns an error if a cycle is detected or a dependency references an
// unknown subtask.
func (g *Graph) Build(subtasks []*models.Subtask) error {
	for _, st := range subtasks {
		if _, dup := g.nodes[st.ID]; dup {
			return fmt.Errorf("duplicate subtask %s", st.ID)
		}
		g.nodes[st.ID] = st
		g.edges[st.ID] = nil
		g.order = append(g.order, st.ID)
	}

	for _, st := range subtasks {
		for _, depID := range st.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("subtask %s depends on unknown subtask %s", st.ID, depID)
			}
			g.edges[st.ID] = append(g.edges[st.ID], depID)
		}
	}

	if g.HasCycle() {
		return ErrCycleDetected
	}

	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with coloring to detect back edges.
func (g *Graph) HasCycle() bool {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1

		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				// Back edge - cycle detected.
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}

		colors[id] = 2
		return false
	}

	for _, id := range g.order {
		if colors[id] == 0 {
			if visit(id) {
				return true
			}
		}
	}

	return false
}

// TopologicalSort returns subtask IDs in an order where all dependencies
// come before the subtasks that depend on them.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if g.HasCycle() {
		return nil, ErrCycleDetected
	}

	visited := make(map[string]bool, len(g.nodes))
	var result []string

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		for _, depID := range g.edges[id] {
			visit(depID)
		}

		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}

	return result, nil
}

// Ready returns subtask IDs that are not yet terminal and whose every
// dependency has reached a terminal state. The result follows
// declaration order for deterministic batch composition.
func (g *Graph) Ready() []string {
	var ready []string

	for _, id := range g.order {
		if g.terminal[id] {
			continue
		}

		allDepsTerminal := true
		for _, depID := range g.edges[id] {
			if !g.terminal[depID] {
				allDepsTerminal = false
				break
			}
		}

		if allDepsTerminal {
			ready = append(ready, id)
		}
	}

	return ready
}

// MarkTerminal marks a subtask as having reached a terminal state.
// This affects subsequent calls to Ready and HasPending.
func (g *Graph) MarkTerminal(subtaskID string) {
	g.terminal[subtaskID] = true
}

// HasPending returns true if any subtask has not reached a terminal state.
func (g *Graph) HasPending() bool {
	for _, id := range g.order {
		if !g.terminal[id] {
			return true
		}
	}
	return false
}

// PendingIDs returns the IDs of subtasks that have not reached a
// terminal state, in declaration order.
func (g *Graph) PendingIDs() []string {
	var pending []string
	for _, id := range g.order {
		if !g.terminal[id] {
			pending = append(pending, id)
		}
	}
	return pending
}

// Subtask returns the subtask for a given ID, or nil if not found.
func (g *Graph) Subtask(subtaskID string) *models.Subtask {
	return g.nodes[subtaskID]
}

// Subtasks returns all subtasks in declaration order.
func (g *Graph) Subtasks() []*models.Subtask {
	out := make([]*models.Subtask, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Size returns the number of subtasks in the graph.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// HasDependencies returns true if any subtask declares a dependency.
func (g *Graph) HasDependencies() bool {
	for _, deps := range g.edges {
		if len(deps) > 0 {
			return true
		}
	}
	return false
}

// Dependencies returns the IDs of subtasks that the given subtask depends on.
func (g *Graph) Dependencies(subtaskID string) []string {
	return g.edges[subtaskID]
}

// Dependents returns the IDs of subtasks that depend on the given
// subtask, sorted for deterministic output.
func (g *Graph) Dependents(subtaskID string) []string {
	var dependents []string
	for id, deps := range g.edges {
		for _, depID := range deps {
			if depID == subtaskID {
				dependents = append(dependents, id)
				break
			}
		}
	}
	sort.Strings(dependents)
	return dependents
}
