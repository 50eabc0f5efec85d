package automaton

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Table is the portable form of an automaton: the trie shape plus the
// pattern arena, with nodes numbered breadth-first from the root (id 0)
// and failure links omitted. Failure links are derived state and are
// recomputed on import, so a Table round-trips across processes and
// versions without trusting stored links.
type Table struct {
	Patterns []string
	Nodes    []TableNode
}

// TableNode is one trie state in a Table. Children maps a codepoint to the
// id of the child node. Output lists pattern indices that terminate at
// this state in the trie itself; matches inherited via failure links are
// not stored.
type TableNode struct {
	Children map[rune]int32
	Output   []int32
}

// TableError reports why FromTable rejected a table. Node is the offending
// node id, or -1 when the problem is not tied to a single node.
type TableError struct {
	Reason string
	Node   int32
}

func (e *TableError) Error() string {
	if e.Node < 0 {
		return fmt.Sprintf("automaton: invalid table: %s", e.Reason)
	}
	return fmt.Sprintf("automaton: invalid table: %s (node %d)", e.Reason, e.Node)
}

// Table exports the automaton. Node ids are assigned by a breadth-first
// walk with children visited in ascending symbol order, so the same
// pattern list always exports the same table.
func (a *Automaton) Table() *Table {
	t := &Table{
		Patterns: make([]string, len(a.patterns)),
		Nodes:    make([]TableNode, len(a.nodes)),
	}
	copy(t.Patterns, a.patterns)

	// First pass assigns ids in visit order, second pass emits nodes with
	// child references translated to the new numbering.
	ids := make([]int32, len(a.nodes))
	order := make([]int32, 1, len(a.nodes))
	order[0] = root
	for qi := 0; qi < len(order); qi++ {
		n := order[qi]
		for _, r := range sortedSymbols(a.nodes[n].children) {
			child := a.nodes[n].children[r]
			ids[child] = int32(len(order))
			order = append(order, child)
		}
	}

	for id, arenaIdx := range order {
		src := &a.nodes[arenaIdx]
		var tn TableNode
		if len(src.children) > 0 {
			tn.Children = make(map[rune]int32, len(src.children))
			for r, child := range src.children {
				tn.Children[r] = ids[child]
			}
		}
		if src.local > 0 {
			tn.Output = append([]int32(nil), src.output[:src.local]...)
		}
		t.Nodes[id] = tn
	}
	return t
}

// FromTable reconstructs an automaton from an exported table. The trie
// shape is validated before use: the table must have a root, every child
// reference must land on an existing non-root node with exactly one
// parent, every node must be reachable from the root, and output indices
// must point into the pattern arena. Violations are reported as a
// *TableError. Failure links and inherited outputs are recomputed, never
// read from the table.
func FromTable(t *Table) (*Automaton, error) {
	if t == nil || len(t.Nodes) == 0 {
		return nil, &TableError{Reason: "missing root", Node: -1}
	}
	for _, p := range t.Patterns {
		if p == "" {
			return nil, &TableError{Reason: "empty pattern", Node: -1}
		}
	}

	total := int32(len(t.Nodes))
	parent := make([]int32, total)
	for i := range parent {
		parent[i] = -1
	}
	for id := range t.Nodes {
		for _, child := range t.Nodes[id].Children {
			if child < 0 || child >= total {
				return nil, &TableError{Reason: "dangling child reference", Node: int32(id)}
			}
			if child == root {
				return nil, &TableError{Reason: "edge into root", Node: int32(id)}
			}
			if parent[child] != -1 {
				return nil, &TableError{Reason: "duplicate parent", Node: child}
			}
			parent[child] = int32(id)
		}
	}

	// Single-parent nodes hanging off the root form a tree exactly when
	// everything is reachable; anything left over is an orphan or a
	// detached cycle.
	seen := make([]bool, total)
	seen[root] = true
	reached := int32(1)
	queue := []int32{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range t.Nodes[cur].Children {
			if !seen[child] {
				seen[child] = true
				reached++
				queue = append(queue, child)
			}
		}
	}
	if reached != total {
		for id, ok := range seen {
			if !ok {
				return nil, &TableError{Reason: "unreachable node", Node: int32(id)}
			}
		}
	}

	nodes := make([]node, total)
	for id := range t.Nodes {
		tn := &t.Nodes[id]
		n := node{children: make(map[rune]int32, len(tn.Children))}
		for r, child := range tn.Children {
			n.children[r] = child
		}
		if len(tn.Output) > 0 {
			n.output = make([]int32, len(tn.Output))
			for i, pi := range tn.Output {
				if pi < 0 || pi >= int32(len(t.Patterns)) {
					return nil, &TableError{Reason: "pattern index out of range", Node: int32(id)}
				}
				n.output[i] = pi
			}
			n.local = int32(len(tn.Output))
		}
		nodes[id] = n
	}

	wireFailLinks(nodes)

	a := &Automaton{
		nodes:    nodes,
		patterns: make([]string, len(t.Patterns)),
		lengths:  make([]int32, len(t.Patterns)),
	}
	copy(a.patterns, t.Patterns)
	for i, p := range t.Patterns {
		a.lengths[i] = int32(utf8.RuneCountInString(p))
	}
	return a, nil
}

func sortedSymbols(children map[rune]int32) []rune {
	if len(children) == 0 {
		return nil
	}
	symbols := make([]rune, 0, len(children))
	for r := range children {
		symbols = append(symbols, r)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	return symbols
}
