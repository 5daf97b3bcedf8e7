// Package dag indexes the dependency edges between the stages of a flow.
// It answers upstream queries for selection context and finds cycles and
// dangling references for snapshot diagnostics.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed graph of stage ids. An edge runs from a dependency to
// the stage that waited on it.
type Graph struct {
	order      []string
	deps       map[string][]string // stage -> stages it waited on
	dependents map[string][]string // stage -> stages waiting on it
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// AddStage registers a stage id. Adding a known id is a no-op.
func (g *Graph) AddStage(id string) {
	if g.Has(id) {
		return
	}
	g.order = append(g.order, id)
	g.deps[id] = []string{}
	g.dependents[id] = []string{}
}

// Has reports whether id was registered.
func (g *Graph) Has(id string) bool {
	_, ok := g.deps[id]
	return ok
}

// AddDependency records that stage waited on dependsOn.
func (g *Graph) AddDependency(stage, dependsOn string) error {
	if !g.Has(stage) {
		return fmt.Errorf("stage %q does not exist", stage)
	}
	if !g.Has(dependsOn) {
		return fmt.Errorf("stage %q depends on unknown stage %q", stage, dependsOn)
	}
	if stage == dependsOn {
		return fmt.Errorf("stage %q depends on itself", stage)
	}

	if !contains(g.deps[stage], dependsOn) {
		g.deps[stage] = append(g.deps[stage], dependsOn)
	}
	if !contains(g.dependents[dependsOn], stage) {
		g.dependents[dependsOn] = append(g.dependents[dependsOn], stage)
	}
	return nil
}

// Dependencies returns the direct dependencies of a stage.
func (g *Graph) Dependencies(id string) []string {
	return g.deps[id]
}

// Dependents returns the stages that directly waited on id.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// StageCount returns the number of registered stages.
func (g *Graph) StageCount() int {
	return len(g.order)
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, d := range g.deps {
		count += len(d)
	}
	return count
}

// Upstream returns every stage id reachable through dependencies of id,
// sorted. The stage itself is not included.
func (g *Graph) Upstream(id string) []string {
	seen := make(map[string]bool)

	var walk func(string)
	walk = func(cur string) {
		for _, dep := range g.deps[cur] {
			if !seen[dep] {
				seen[dep] = true
				walk(dep)
			}
		}
	}
	walk(id)

	result := make([]string, 0, len(seen))
	for dep := range seen {
		result = append(result, dep)
	}
	sort.Strings(result)
	return result
}

// Roots returns stages with no dependencies in registration order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.deps[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// FindCycle returns a cycle path (first id repeated at the end) if one exists.
func (g *Graph) FindCycle() ([]string, bool) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	parent := make(map[string]string)

	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, next := range g.dependents[id] {
			if !visited[next] {
				parent[next] = id
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				cycle = []string{next}
				for cur := id; cur != next; cur = parent[cur] {
					cycle = append([]string{cur}, cycle...)
				}
				cycle = append([]string{next}, cycle...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] && dfs(id) {
			return cycle, true
		}
	}
	return nil, false
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
