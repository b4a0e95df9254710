// Package git is the exec boundary to the git binary: repository discovery,
// the staged-diff query, the commit step, and the path of the commit message
// file used by the editor. The pipeline never mutates the index beyond the
// final commit.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"gai/cli/internal/erruser"
)

// ErrNotRepository indicates the working directory is not inside a git
// repository. Checked before any diff command runs.
var ErrNotRepository = errors.New("not a git repository")

// ErrCommitFailed indicates git commit exited non-zero (e.g. a hook rejected
// the message).
var ErrCommitFailed = errors.New("git commit failed")

// Runner runs a git subcommand and returns its stdout. Implementations
// return an error on non-zero exit. The CLI uses execRunner; tests pass a
// fake so the pipeline runs without spawning subprocesses.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// Git wraps a Runner with the operations the pipeline needs.
// Zero value is not valid; use New.
type Git struct {
	runner Runner
}

// New builds a Git bound to runner. A nil runner uses the real git binary
// in dir (empty dir = current working directory).
func New(runner Runner, dir string) *Git {
	if runner == nil {
		runner = &execRunner{dir: dir}
	}
	return &Git{runner: runner}
}

// CheckRepository verifies the current directory is inside a git work tree.
// Runs "git rev-parse --is-inside-work-tree"; a non-zero exit returns an
// error wrapping ErrNotRepository.
func (g *Git) CheckRepository(ctx context.Context) error {
	_, err := g.runner.Run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return erruser.New("Not a Git repository. Initialize one or move into an existing repository.",
			errors.Join(ErrNotRepository, err))
	}
	return nil
}

// StagedDiff returns the raw staged diff: "git diff --staged --minimal
// --unified=5". Output is empty when nothing is staged; the caller decides
// whether that is an error. Read-only.
func (g *Git) StagedDiff(ctx context.Context) (string, error) {
	out, err := g.runner.Run(ctx, "diff", "--staged", "--minimal", "--unified=5", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", erruser.New("Could not read the staged diff.", err)
	}
	return out, nil
}

// Commit runs "git commit -m message" with the final message verbatim
// (subject plus optional body, blank-line separated). Hook failures and
// other non-zero exits return an error wrapping ErrCommitFailed.
func (g *Git) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return erruser.New("Refusing to commit an empty message.", ErrCommitFailed)
	}
	_, err := g.runner.Run(ctx, "commit", "-m", message)
	if err != nil {
		return erruser.New("git commit was rejected.", errors.Join(ErrCommitFailed, err))
	}
	return nil
}

// MessageFilePath returns the absolute path of COMMIT_EDITMSG in the
// repository's git directory, resolved via "git rev-parse --git-dir".
func (g *Git) MessageFilePath(ctx context.Context) (string, error) {
	out, err := g.runner.Run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", erruser.New("Could not locate the .git directory.", err)
	}
	dir := strings.TrimSpace(out)
	path, err := filepath.Abs(filepath.Join(dir, "COMMIT_EDITMSG"))
	if err != nil {
		return "", fmt.Errorf("resolve message file: %w", err)
	}
	return path, nil
}

// execRunner runs the real git binary with a minimal environment.
type execRunner struct {
	dir string
}

func (r *execRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}

// minimalEnv returns the environment for git subprocesses: PATH, no terminal
// prompts, no pager. HOME is kept so user-level git config (author identity,
// hooks path) still applies to the commit step.
func minimalEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_PAGER=cat",
	}
	if home := os.Getenv("HOME"); home != "" {
		env = append(env, "HOME="+home)
	} else if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			env = append(env, "HOME="+profile)
		}
	}
	return env
}
