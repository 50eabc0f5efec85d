// Package automaton implements multi-pattern substring matching over
// Unicode text using an Aho-Corasick automaton.
//
// A Builder accumulates literal patterns into a trie keyed by codepoint.
// Finalize computes failure links and output sets breadth-first and returns
// an immutable Automaton that scans text in a single left-to-right pass,
// reporting every occurrence of every pattern, including overlapping and
// nested occurrences. Offsets are codepoint positions, not byte positions.
package automaton

import (
	"errors"
	"unicode/utf8"
)

var (
	// ErrEmptyPattern is returned by Insert for the empty string, which
	// would otherwise match at every position.
	ErrEmptyPattern = errors.New("automaton: empty pattern")

	// ErrAlreadyFinalized is returned when a Builder is used after
	// Finalize has succeeded.
	ErrAlreadyFinalized = errors.New("automaton: builder already finalized")
)

// root is the index of the root node in the node arena.
const root int32 = 0

// node is a single trie state. Nodes live in a flat arena and refer to
// each other by index, so the whole automaton is two allocations plus
// the child maps.
type node struct {
	children map[rune]int32

	// output lists indices into the pattern arena for every pattern that
	// ends at this state. The first local entries terminate here in the
	// trie itself; the remainder are inherited from the failure chain
	// during finalization.
	output []int32
	local  int32

	fail int32
}

// Builder accumulates patterns for an Automaton. The zero value is not
// usable; call NewBuilder. A Builder is not safe for concurrent use.
type Builder struct {
	nodes     []node
	patterns  []string
	lengths   []int32 // codepoint length per pattern
	byPattern map[string]int32
	finalized bool
}

// NewBuilder returns an empty Builder containing only the root state.
func NewBuilder() *Builder {
	return &Builder{
		nodes:     []node{{children: make(map[rune]int32)}},
		byPattern: make(map[string]int32),
	}
}

// Insert adds one literal pattern. Inserting the same pattern twice is a
// no-op: the automaton reports each occurrence once regardless of how many
// times the pattern was inserted. The empty string is rejected with
// ErrEmptyPattern, and any Insert after Finalize fails with
// ErrAlreadyFinalized.
func (b *Builder) Insert(pattern string) error {
	if b.finalized {
		return ErrAlreadyFinalized
	}
	if pattern == "" {
		return ErrEmptyPattern
	}
	if _, seen := b.byPattern[pattern]; seen {
		return nil
	}

	idx := int32(len(b.patterns))
	b.patterns = append(b.patterns, pattern)
	b.lengths = append(b.lengths, int32(utf8.RuneCountInString(pattern)))
	b.byPattern[pattern] = idx

	cur := root
	for _, r := range pattern {
		next, ok := b.nodes[cur].children[r]
		if !ok {
			next = int32(len(b.nodes))
			b.nodes = append(b.nodes, node{children: make(map[rune]int32)})
			b.nodes[cur].children[r] = next
		}
		cur = next
	}

	term := &b.nodes[cur]
	term.output = append(term.output, idx)
	term.local++
	return nil
}

// Len reports how many distinct patterns have been inserted so far.
func (b *Builder) Len() int {
	return len(b.patterns)
}

// Finalize computes failure links and output sets and returns the finished
// Automaton. The Builder is consumed: further Insert or Finalize calls fail
// with ErrAlreadyFinalized. An empty pattern set is valid and yields an
// automaton that matches nothing.
func (b *Builder) Finalize() (*Automaton, error) {
	if b.finalized {
		return nil, ErrAlreadyFinalized
	}
	b.finalized = true

	wireFailLinks(b.nodes)

	a := &Automaton{
		nodes:    b.nodes,
		patterns: b.patterns,
		lengths:  b.lengths,
	}
	b.nodes = nil
	b.patterns = nil
	b.lengths = nil
	return a, nil
}

// wireFailLinks walks the trie breadth-first, assigning each node its
// failure link (the node for the longest proper suffix of its path that is
// also a path in the trie) and extending its output set with the failure
// target's. Level order guarantees the target's set is already complete
// when a node inherits it, so one append per node closes the whole set.
func wireFailLinks(nodes []node) {
	queue := make([]int32, 0, len(nodes))
	for _, child := range nodes[root].children {
		nodes[child].fail = root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for r, child := range nodes[cur].children {
			// Follow cur's failure chain to the deepest state with an
			// edge for r. Chains strictly decrease in depth, so the
			// target can never be child itself.
			f := nodes[cur].fail
			target := root
			for {
				if next, ok := nodes[f].children[r]; ok {
					target = next
					break
				}
				if f == root {
					break
				}
				f = nodes[f].fail
			}

			nodes[child].fail = target
			nodes[child].output = append(nodes[child].output, nodes[target].output...)
			queue = append(queue, child)
		}
	}
}

// New builds and finalizes an automaton from patterns in one call.
func New(patterns []string) (*Automaton, error) {
	b := NewBuilder()
	for _, p := range patterns {
		if err := b.Insert(p); err != nil {
			return nil, err
		}
	}
	return b.Finalize()
}

// Match is one pattern occurrence found by Search. Start and End are
// inclusive codepoint offsets into the scanned text: the occurrence covers
// text[Start..End] counted in runes. A single-codepoint pattern has
// Start == End.
type Match struct {
	Pattern string
	Start   int
	End     int
}

// Automaton is a finalized pattern matcher. It is immutable and safe for
// concurrent use from any number of goroutines.
type Automaton struct {
	nodes    []node
	patterns []string
	lengths  []int32
}

// PatternCount reports how many distinct patterns the automaton holds.
func (a *Automaton) PatternCount() int {
	return len(a.patterns)
}

// NodeCount reports the number of trie states including the root.
func (a *Automaton) NodeCount() int {
	return len(a.nodes)
}

// Patterns returns a copy of the pattern set in insertion order.
func (a *Automaton) Patterns() []string {
	out := make([]string, len(a.patterns))
	copy(out, a.patterns)
	return out
}

// step advances one codepoint: follow the failure chain until a state has
// an edge for r, or fall back to the root.
func (a *Automaton) step(cur int32, r rune) int32 {
	for {
		if next, ok := a.nodes[cur].children[r]; ok {
			return next
		}
		if cur == root {
			return root
		}
		cur = a.nodes[cur].fail
	}
}

// Search scans text once and returns every occurrence of every pattern,
// overlaps and nested matches included. Matches are ordered by End
// ascending; matches sharing an End are ordered longest pattern first
// (the state's own patterns precede those inherited from shorter
// suffixes). Returns nil when nothing matches.
func (a *Automaton) Search(text string) []Match {
	var matches []Match
	cur := root
	pos := 0
	for _, r := range text {
		cur = a.step(cur, r)
		for _, pi := range a.nodes[cur].output {
			matches = append(matches, Match{
				Pattern: a.patterns[pi],
				Start:   pos - int(a.lengths[pi]) + 1,
				End:     pos,
			})
		}
		pos++
	}
	return matches
}

// ContainsAny reports whether any pattern occurs in text. It stops at the
// first hit instead of collecting matches.
func (a *Automaton) ContainsAny(text string) bool {
	cur := root
	for _, r := range text {
		cur = a.step(cur, r)
		if len(a.nodes[cur].output) > 0 {
			return true
		}
	}
	return false
}

// Redact replaces every codepoint covered by at least one match with
// replacement and returns the result. Overlapping matches are unioned
// first, so each covered position is replaced exactly once and the output
// always has the same codepoint length as the input. Text without matches
// is returned unchanged.
func (a *Automaton) Redact(text string, replacement rune) string {
	matches := a.Search(text)
	if len(matches) == 0 {
		return text
	}

	runes := []rune(text)
	covered := make([]bool, len(runes))
	for _, m := range matches {
		for i := m.Start; i <= m.End; i++ {
			covered[i] = true
		}
	}

	for i, hit := range covered {
		if hit {
			runes[i] = replacement
		}
	}
	return string(runes)
}
