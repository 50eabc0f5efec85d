package blocklist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corey/sieve/blocklists"
)

// BuiltinPrefix marks a source that resolves to an embedded list instead
// of a file path, e.g. "builtin:secrets".
const BuiltinPrefix = "builtin:"

// builtinDescriptions gives each embedded list a one-line summary for
// `sieve lists`. A .txt file without an entry here still resolves; it
// just lists with an empty description.
var builtinDescriptions = map[string]string{
	"secrets": "credential and API token fingerprints",
	"markers": "internal-distribution markers",
}

// BuiltinList describes one embedded list.
type BuiltinList struct {
	Name        string
	Patterns    int
	Description string
}

// IsBuiltin reports whether source names an embedded list.
func IsBuiltin(source string) bool {
	return strings.HasPrefix(source, BuiltinPrefix)
}

// Resolve loads the patterns behind a source: "builtin:NAME" reads the
// embedded list NAME, anything else is a file path.
func Resolve(source string) ([]string, error) {
	if !IsBuiltin(source) {
		return LoadFile(source)
	}

	name := strings.TrimPrefix(source, BuiltinPrefix)
	data, err := blocklists.FS.ReadFile(name + ".txt")
	if err != nil {
		available := make([]string, 0, len(builtinDescriptions))
		for _, b := range Builtins() {
			available = append(available, b.Name)
		}
		return nil, fmt.Errorf("unknown builtin list %q (have: %s)", name, strings.Join(available, ", "))
	}

	patterns, err := Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("builtin %s: %w", name, err)
	}
	return patterns, nil
}

// Builtins enumerates the embedded lists with their pattern counts,
// sorted by name.
func Builtins() []BuiltinList {
	entries, err := blocklists.FS.ReadDir(".")
	if err != nil {
		return nil
	}

	var lists []BuiltinList
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".txt")
		if !ok {
			continue
		}
		count := 0
		if data, err := blocklists.FS.ReadFile(entry.Name()); err == nil {
			if patterns, err := Parse(strings.NewReader(string(data))); err == nil {
				count = len(patterns)
			}
		}
		lists = append(lists, BuiltinList{
			Name:        name,
			Patterns:    count,
			Description: builtinDescriptions[name],
		})
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].Name < lists[j].Name })
	return lists
}
