package test

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// --- Scan Fixtures ---

type scanFixture struct {
	Comment  string           `json:"_comment,omitempty"`
	Name     string           `json:"name"`
	Patterns []string         `json:"patterns"`
	Text     string           `json:"text"`
	Expected []fixtureFinding `json:"expected"`
}

type fixtureFinding struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Pattern string `json:"pattern"`
}

func loadScanFixtures(path string) ([]scanFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scan fixtures: %w", err)
	}

	var fixtures []scanFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parse scan fixtures: %w", err)
	}
	return fixtures, nil
}

// --- Synthetic Corpus Builders ---

// tokenStems seed the synthetic pattern generator with realistic
// credential shapes.
var tokenStems = []string{
	"AKIA%04d",
	"ghp_%04dabcdef",
	"xoxb-%04d-secret",
	"sk_live_%04d",
	"token_%04d_internal",
	"-----BEGIN %04d KEY-----",
	"hunter%04d",
	"passwd=%04d",
}

// buildPatterns generates n distinct credential-shaped patterns.
func buildPatterns(n int) []string {
	patterns := make([]string, 0, n)
	for i := 0; i < n; i++ {
		patterns = append(patterns, fmt.Sprintf(tokenStems[i%len(tokenStems)], i))
	}
	return patterns
}

// buildCleanLine returns a line of roughly width bytes with no pattern hits.
func buildCleanLine(width int) string {
	var sb strings.Builder
	for sb.Len() < width {
		sb.WriteString("GET /api/v2/widgets?page=7 200 12ms user=alice ")
	}
	return sb.String()[:width]
}

// buildDenseLine returns a line of roughly width bytes where every few
// words is a hit from patterns.
func buildDenseLine(width int, patterns []string) string {
	var sb strings.Builder
	i := 0
	for sb.Len() < width {
		sb.WriteString("connect retry=3 key=")
		sb.WriteString(patterns[i%len(patterns)])
		sb.WriteString(" ")
		i++
	}
	return sb.String()[:width]
}

// buildDocument returns a lines-long document with a hit on every hitEvery-th
// line (0 = no hits at all).
func buildDocument(lines, hitEvery int, patterns []string) string {
	var sb strings.Builder
	for i := 1; i <= lines; i++ {
		if hitEvery > 0 && i%hitEvery == 0 {
			fmt.Fprintf(&sb, "%d: request denied credential=%s remote=10.0.0.%d\n",
				i, patterns[i%len(patterns)], i%255)
			continue
		}
		fmt.Fprintf(&sb, "%d: request ok path=/health remote=10.0.0.%d\n", i, i%255)
	}
	return sb.String()
}
