package consumer

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	trailingSpaceRegex = regexp.MustCompile(`[ \t]+\n`)
	blankRunRegex      = regexp.MustCompile(`\n{3,}`)
	paragraphSplit     = regexp.MustCompile(`\n{2,}`)
)

// NormalizeAnswer canonicalizes captured answer text: CR and trailing
// whitespace stripped, runs of blank lines collapsed to one, duplicate
// paragraphs dropped (first occurrence and order preserved), then
// consecutive duplicate lines dropped. Idempotent.
func NormalizeAnswer(text string) string {
	t := strings.ReplaceAll(text, "\r", "")
	t = trailingSpaceRegex.ReplaceAllString(t, "\n")
	t = blankRunRegex.ReplaceAllString(t, "\n\n")
	t = strings.TrimSpace(t)
	if t == "" {
		return t
	}

	// Paragraph dedup on exact trimmed content.
	paragraphs := paragraphSplit.Split(t, -1)
	seen := make(map[string]struct{}, len(paragraphs))
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		key := strings.TrimSpace(p)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, key)
	}
	t = strings.Join(kept, "\n\n")

	// Consecutive duplicate lines within the surviving text.
	lines := strings.Split(t, "\n")
	out := make([]string, 0, len(lines))
	prev := ""
	for _, line := range lines {
		if strings.TrimSpace(line) == strings.TrimSpace(prev) {
			continue
		}
		out = append(out, line)
		prev = line
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// HashAnswer returns the content hash used for idempotent acknowledgment.
func HashAnswer(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
