package automaton

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAutomaton inserts every pattern and finalizes, failing the test on
// any error.
func buildAutomaton(t *testing.T, patterns ...string) *Automaton {
	t.Helper()
	b := NewBuilder()
	for _, p := range patterns {
		require.NoError(t, b.Insert(p))
	}
	a, err := b.Finalize()
	require.NoError(t, err)
	return a
}

// sortMatches orders matches by End, then Start, then Pattern so result
// slices from different sources can be compared directly.
func sortMatches(matches []Match) []Match {
	out := append([]Match(nil), matches...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].End != out[j].End {
			return out[i].End < out[j].End
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

// naiveSearch is the oracle: direct rune comparison of every pattern at
// every start position. Quadratic but obviously correct.
func naiveSearch(patterns []string, text string) []Match {
	runes := []rune(text)
	var out []Match
	for _, p := range patterns {
		pr := []rune(p)
		if len(pr) == 0 || len(pr) > len(runes) {
			continue
		}
		for start := 0; start+len(pr) <= len(runes); start++ {
			if string(runes[start:start+len(pr)]) == p {
				out = append(out, Match{Pattern: p, Start: start, End: start + len(pr) - 1})
			}
		}
	}
	return sortMatches(out)
}

// =============================================================================
// Builder
// =============================================================================

func TestInsert_RejectsEmptyPattern(t *testing.T) {
	b := NewBuilder()
	err := b.Insert("")
	assert.ErrorIs(t, err, ErrEmptyPattern)
	assert.Zero(t, b.Len())
}

func TestInsert_DuplicateIsNoOp(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert("leak"))
	require.NoError(t, b.Insert("leak"))
	assert.Equal(t, 1, b.Len())

	a, err := b.Finalize()
	require.NoError(t, err)
	// One occurrence in the text, reported once despite the double insert.
	assert.Len(t, a.Search("a leak here"), 1)
}

func TestInsert_AfterFinalizeFails(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert("x"))
	_, err := b.Finalize()
	require.NoError(t, err)

	assert.ErrorIs(t, b.Insert("y"), ErrAlreadyFinalized)
}

func TestFinalize_SecondCallFails(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert("x"))
	a, err := b.Finalize()
	require.NoError(t, err)

	again, err := b.Finalize()
	assert.Nil(t, again)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	// The automaton from the first call keeps working.
	assert.True(t, a.ContainsAny("axb"))
}

func TestFinalize_EmptyBuilder(t *testing.T) {
	a, err := NewBuilder().Finalize()
	require.NoError(t, err)
	assert.Zero(t, a.PatternCount())
	assert.Equal(t, 1, a.NodeCount()) // just the root
	assert.Nil(t, a.Search("anything at all"))
	assert.False(t, a.ContainsAny("anything at all"))
}

// =============================================================================
// Search
// =============================================================================

func TestSearch_TextbookScenario(t *testing.T) {
	// Every prefix relation and failure transition in one small set.
	a := buildAutomaton(t, "a", "ab", "bc", "bca", "c", "caa")

	got := a.Search("abccab")
	want := []Match{
		{Pattern: "a", Start: 0, End: 0},
		{Pattern: "ab", Start: 0, End: 1},
		{Pattern: "bc", Start: 1, End: 2},
		{Pattern: "c", Start: 2, End: 2},
		{Pattern: "c", Start: 3, End: 3},
		{Pattern: "a", Start: 4, End: 4},
		{Pattern: "ab", Start: 4, End: 5},
	}
	assert.Equal(t, want, got)
}

func TestSearch_SuffixChain(t *testing.T) {
	a := buildAutomaton(t, "he", "she", "his", "hers")

	got := a.Search("ahishers")
	want := []Match{
		{Pattern: "his", Start: 1, End: 3},
		{Pattern: "she", Start: 3, End: 5},
		{Pattern: "he", Start: 4, End: 5},
		{Pattern: "hers", Start: 4, End: 7},
	}
	assert.Equal(t, want, got)
}

func TestSearch_OverlappingSelfSimilar(t *testing.T) {
	// "aaaa" contains aa three times and aaa twice, all overlapping.
	a := buildAutomaton(t, "aa", "aaa")

	got := a.Search("aaaa")
	want := []Match{
		{Pattern: "aa", Start: 0, End: 1},
		{Pattern: "aaa", Start: 0, End: 2},
		{Pattern: "aa", Start: 1, End: 2},
		{Pattern: "aaa", Start: 1, End: 3},
		{Pattern: "aa", Start: 2, End: 3},
	}
	assert.Equal(t, want, got)
}

func TestSearch_EndOffsetsNonDecreasing(t *testing.T) {
	a := buildAutomaton(t, "ab", "b", "abab", "ba")
	got := a.Search("abababab")
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].End, got[i-1].End,
			"match %d ends before match %d", i, i-1)
	}
}

func TestSearch_MultiBytePatterns(t *testing.T) {
	// Offsets count codepoints, not bytes: 日 is 3 bytes, 🎉 is 4.
	a := buildAutomaton(t, "日本", "🎉", "héllo")

	got := a.Search("à日本🎉 héllo")
	want := []Match{
		{Pattern: "日本", Start: 1, End: 2},
		{Pattern: "🎉", Start: 3, End: 3},
		{Pattern: "héllo", Start: 5, End: 9},
	}
	assert.Equal(t, want, got)
}

func TestSearch_PatternIsWholeText(t *testing.T) {
	a := buildAutomaton(t, "exact")
	got := a.Search("exact")
	assert.Equal(t, []Match{{Pattern: "exact", Start: 0, End: 4}}, got)
}

func TestSearch_PatternLongerThanText(t *testing.T) {
	a := buildAutomaton(t, "longpattern")
	assert.Nil(t, a.Search("long"))
}

func TestSearch_EmptyText(t *testing.T) {
	a := buildAutomaton(t, "x")
	assert.Nil(t, a.Search(""))
}

func TestSearch_SingleCodepointPattern(t *testing.T) {
	a := buildAutomaton(t, "x")
	got := a.Search("x")
	require.Len(t, got, 1)
	assert.Equal(t, got[0].Start, got[0].End)
}

func TestSearch_InsertionOrderIrrelevant(t *testing.T) {
	patterns := []string{"he", "she", "his", "hers", "e", "s"}
	text := "ushers and heirs"

	forward := buildAutomaton(t, patterns...)

	reversed := NewBuilder()
	for i := len(patterns) - 1; i >= 0; i-- {
		require.NoError(t, reversed.Insert(patterns[i]))
	}
	backward, err := reversed.Finalize()
	require.NoError(t, err)

	assert.Equal(t, forward.Search(text), backward.Search(text))
}

func TestSearch_MatchesNaiveOracle(t *testing.T) {
	// Random small-alphabet sets stress failure transitions hard: nearly
	// every pattern is a substring of some other.
	rng := rand.New(rand.NewSource(42))
	alphabet := "abc"

	for trial := 0; trial < 20; trial++ {
		seen := map[string]bool{}
		var patterns []string
		for len(patterns) < 12 {
			n := 1 + rng.Intn(4)
			var sb strings.Builder
			for i := 0; i < n; i++ {
				sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
			}
			p := sb.String()
			if !seen[p] {
				seen[p] = true
				patterns = append(patterns, p)
			}
		}

		var tb strings.Builder
		for i := 0; i < 200; i++ {
			tb.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		text := tb.String()

		a := buildAutomaton(t, patterns...)
		got := sortMatches(a.Search(text))
		want := naiveSearch(patterns, text)
		require.Equal(t, want, got, "trial %d: patterns %v", trial, patterns)
	}
}

// =============================================================================
// Failure links and output closure
// =============================================================================

func TestFinalize_OutputClosureMatchesFailChain(t *testing.T) {
	// Recompute every node's full output set independently by walking its
	// failure chain and collecting locally terminal patterns.
	a := buildAutomaton(t, "she", "he", "e", "hers", "s", "ersatz")

	for id := range a.nodes {
		n := &a.nodes[id]
		want := append([]int32(nil), n.output[:n.local]...)
		for f := n.fail; f != root; f = a.nodes[f].fail {
			fn := &a.nodes[f]
			want = append(want, fn.output[:fn.local]...)
		}
		assert.Equal(t, want, n.output, "node %d output closure", id)
	}
}

func TestFinalize_FailLinksDecreaseDepth(t *testing.T) {
	a := buildAutomaton(t, "abcd", "bcd", "cd", "d", "bc")

	depth := make(map[int32]int)
	depth[root] = 0
	queue := []int32{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range a.nodes[cur].children {
			depth[child] = depth[cur] + 1
			queue = append(queue, child)
		}
	}

	for id := range a.nodes {
		if int32(id) == root {
			continue
		}
		assert.Less(t, depth[a.nodes[id].fail], depth[int32(id)],
			"node %d fail link must point strictly shallower", id)
	}
}

// =============================================================================
// ContainsAny
// =============================================================================

func TestContainsAny_HitAndMiss(t *testing.T) {
	a := buildAutomaton(t, "secret", "token")

	assert.True(t, a.ContainsAny("the secret is out"))
	assert.True(t, a.ContainsAny("token"))
	assert.True(t, a.ContainsAny("xxtokenxx"))
	assert.False(t, a.ContainsAny("nothing to see"))
	assert.False(t, a.ContainsAny(""))
}

func TestContainsAny_MatchViaFailureLink(t *testing.T) {
	// "shers" never completes "she"+"rs" directly; the hit on "hers"
	// arrives through failure transitions.
	a := buildAutomaton(t, "she", "hers")
	assert.True(t, a.ContainsAny("xshersx"))
}

// =============================================================================
// Redact
// =============================================================================

func TestRedact_SingleMatch(t *testing.T) {
	a := buildAutomaton(t, "hunter2")
	got := a.Redact("my password is hunter2.", '*')
	assert.Equal(t, "my password is *******.", got)
}

func TestRedact_OverlapsCollapseToUnion(t *testing.T) {
	// "ab" covers 0-1 and "bc" covers 1-2; position 1 is replaced once.
	a := buildAutomaton(t, "ab", "bc")
	assert.Equal(t, "***", a.Redact("abc", '*'))
}

func TestRedact_NestedMatches(t *testing.T) {
	a := buildAutomaton(t, "aaa", "aa")
	assert.Equal(t, "x####y", a.Redact("xaaaay", '#'))
}

func TestRedact_NoMatchReturnsInputUnchanged(t *testing.T) {
	a := buildAutomaton(t, "secret")
	in := "all clear"
	assert.Equal(t, in, a.Redact(in, '*'))
}

func TestRedact_PreservesCodepointLength(t *testing.T) {
	a := buildAutomaton(t, "日本", "key")
	in := "a日本b key c"
	out := a.Redact(in, '█')
	assert.Equal(t, len([]rune(in)), len([]rune(out)))
	assert.Equal(t, "a██b ███ c", out)
}

func TestRedact_AdjacentMatches(t *testing.T) {
	a := buildAutomaton(t, "ab")
	assert.Equal(t, "****", a.Redact("abab", '*'))
}

// =============================================================================
// Accessors
// =============================================================================

func TestAutomaton_Counts(t *testing.T) {
	a := buildAutomaton(t, "he", "she")
	assert.Equal(t, 2, a.PatternCount())
	// root + h,e + s,h,e
	assert.Equal(t, 6, a.NodeCount())
	assert.ElementsMatch(t, []string{"he", "she"}, a.Patterns())
}

func TestAutomaton_PatternsReturnsCopy(t *testing.T) {
	a := buildAutomaton(t, "he", "she")
	got := a.Patterns()
	got[0] = "tampered"
	assert.ElementsMatch(t, []string{"he", "she"}, a.Patterns())
}
