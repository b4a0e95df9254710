// Package diff produces the staged change set as prompt-ready text.
//
// The diff is captured once per invocation with a fixed 5-line context
// window and git's minimal-edit heuristic so regenerate cycles see the same
// input. Metadata lines (diff --git headers, index lines, @@ hunk markers)
// carry no signal for a commit message and are filtered out before the text
// reaches a provider.
package diff

import (
	"context"
	"errors"
	"strings"

	"gai/cli/internal/erruser"
	"gai/cli/internal/git"
)

// ErrNoStagedChanges indicates the index has nothing staged. Callers must
// not contact a provider when this is returned.
var ErrNoStagedChanges = errors.New("no staged changes")

// maxPromptChars caps the diff text sent to a provider.
const maxPromptChars = 32 * 1024

// Diff is an immutable snapshot of the staged changes.
type Diff struct {
	raw string
}

// Staged checks the repository precondition, captures the staged diff, and
// filters metadata lines. Returns ErrNotRepository (wrapped) outside a
// repository without running any diff command, and ErrNoStagedChanges
// (wrapped) when nothing is staged.
func Staged(ctx context.Context, g *git.Git) (Diff, error) {
	if err := g.CheckRepository(ctx); err != nil {
		return Diff{}, err
	}
	raw, err := g.StagedDiff(ctx)
	if err != nil {
		return Diff{}, err
	}
	filtered := stripMetadata(raw)
	if strings.TrimSpace(filtered) == "" {
		return Diff{}, erruser.New("No staged changes found. Stage your changes with 'git add' first.", ErrNoStagedChanges)
	}
	return Diff{raw: filtered}, nil
}

// Text returns the filtered diff text.
func (d Diff) Text() string { return d.raw }

// Bytes returns the size of the filtered diff in bytes.
func (d Diff) Bytes() int { return len(d.raw) }

// Lines returns the number of lines in the filtered diff.
func (d Diff) Lines() int {
	if d.raw == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(d.raw, "\n"), "\n") + 1
}

// ForPrompt returns the diff text capped at maxPromptChars, with a marker
// appended when truncation occurred.
func (d Diff) ForPrompt() string {
	if len(d.raw) <= maxPromptChars {
		return d.raw
	}
	return d.raw[:maxPromptChars] + "\n\n[truncated]"
}

// stripMetadata drops per-file and per-hunk metadata lines from a unified
// diff, keeping file name markers (---/+++) and content lines.
func stripMetadata(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git") ||
			strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "@@") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
