package lyrics

import "strings"

// Delimiter is the sentinel the generation endpoint expects around the
// lyrics block.
const Delimiter = "##"

// Format prepares raw lyrics for the generation endpoint: blank lines are
// dropped, the remaining lines are trimmed and rejoined, and the whole block
// is wrapped with the sentinel delimiter.
func Format(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return Delimiter + strings.Join(kept, "\n") + Delimiter
}
