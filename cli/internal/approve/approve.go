// Package approve drives the interactive decision loop around a commit
// message candidate: present it, read one of a/e/r/q, and apply, edit,
// regenerate, or abort. The loop is an explicit state machine with three
// terminal outcomes; it owns no subprocesses or sockets itself and talks to
// git, the editor, and the provider through narrow interfaces so it can run
// entirely in-memory under test.
package approve

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"gai/cli/internal/commitmsg"
	"gai/cli/internal/provider"
)

// Outcome is the terminal state of one approval loop.
type Outcome int

const (
	// Done: the candidate was committed.
	Done Outcome = iota
	// Aborted: the user quit without committing. Not an error.
	Aborted
	// Failed: the run ended after a rejected commit without a later
	// successful one.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Committer applies the final message. Implemented by *git.Git.
type Committer interface {
	Commit(ctx context.Context, message string) error
}

// Editor opens the user's editor pre-filled with message and returns the
// edited text verbatim.
type Editor interface {
	Edit(ctx context.Context, message string) (string, error)
}

// Loop holds the collaborators for one approval session. The diff text and
// generation options are fixed for the lifetime of the loop; regenerate
// reuses them unchanged.
type Loop struct {
	In         io.Reader
	Out        io.Writer
	Generator  provider.Generator
	GenOptions provider.Options
	DiffText   string
	Editor     Editor
	Committer  Committer
}

// Run presents the first candidate and loops on user decisions until a
// terminal outcome. Decisions are case-insensitive single letters; anything
// else re-prompts without side effects. A rejected commit surfaces the
// error and keeps the candidate so the user can edit or regenerate; quitting
// after such a rejection yields Failed instead of Aborted.
func (l *Loop) Run(ctx context.Context, cand commitmsg.Candidate) (Outcome, error) {
	in := bufio.NewReader(l.In)
	commitRejected := false
	for {
		l.present(cand)
		choice, err := readChoice(in)
		if err != nil {
			// EOF on stdin behaves like quit.
			fmt.Fprintln(l.Out)
			return l.quitOutcome(commitRejected), nil
		}
		switch choice {
		case "a":
			if err := l.Committer.Commit(ctx, cand.Message()); err != nil {
				commitRejected = true
				l.warn(err)
				continue
			}
			color.New(color.FgGreen).Fprintln(l.Out, "✔ Commit successful!")
			return Done, nil
		case "e":
			edited, err := l.Editor.Edit(ctx, cand.Message())
			if err != nil {
				l.warn(err)
				continue
			}
			next, err := commitmsg.FromEdited(edited)
			if err != nil {
				l.warn(errors.New("The edited message is empty; keeping the previous candidate."))
				continue
			}
			cand = next
		case "r":
			raw, err := l.Generator.Generate(ctx, l.DiffText, l.GenOptions)
			if err != nil {
				l.warn(err)
				continue
			}
			next, err := commitmsg.Sanitize(raw, l.GenOptions.Oneline)
			if err != nil {
				l.warn(err)
				continue
			}
			cand = next
		case "q":
			fmt.Fprintln(l.Out, "Commit aborted.")
			return l.quitOutcome(commitRejected), nil
		default:
			fmt.Fprintln(l.Out, "Invalid choice. Please try again.")
		}
	}
}

func (l *Loop) quitOutcome(commitRejected bool) Outcome {
	if commitRejected {
		return Failed
	}
	return Aborted
}

func (l *Loop) present(cand commitmsg.Candidate) {
	fmt.Fprintln(l.Out, "\n---")
	color.New(color.Bold).Fprintln(l.Out, "Suggested Commit Message:")
	fmt.Fprintln(l.Out, cand.Message())
	fmt.Fprintln(l.Out, "---")
	fmt.Fprint(l.Out, "[A]pply, [E]dit, [R]egenerate, or [Q]uit? (a/e/r/q) ")
}

func (l *Loop) warn(err error) {
	color.New(color.FgYellow).Fprintln(l.Out, err.Error())
	if u := errors.Unwrap(err); u != nil {
		fmt.Fprintf(l.Out, "Details: %v\n", u)
	}
}

func readChoice(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
