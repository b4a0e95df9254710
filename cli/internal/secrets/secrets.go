// Package secrets scans added diff lines for values that look like
// credentials before the diff is sent to a provider or committed. Regex
// heuristics only; a hit is a warning for the user to confirm, not a block.
package secrets

import (
	"regexp"
	"strings"
)

// patterns match common credential assignments and well-known token shapes
// on a single added line.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|passwd|pwd|secret|api[_-]?key|token|credential|private[_-]?key)\s*[:=]\s*["']?[A-Za-z0-9_/\-+=]{8,}["']?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
}

// Scan returns one warning per added line that looks like it introduces a
// credential. Only "+" lines are inspected; "+++" file markers and context
// lines are skipped.
func Scan(diffText string) []string {
	var warnings []string
	for _, line := range strings.Split(diffText, "\n") {
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		content := strings.TrimSpace(line[1:])
		for _, p := range patterns {
			if p.MatchString(content) {
				warnings = append(warnings, "Potential credentials detected in line: "+content)
				break
			}
		}
	}
	return warnings
}
