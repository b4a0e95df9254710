package approve

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"gai/cli/internal/erruser"
	"gai/cli/internal/git"
)

// GitEditor is the external-editor boundary: it writes the candidate to the
// repository's COMMIT_EDITMSG, runs the user's editor on it, and reads the
// buffer back verbatim.
type GitEditor struct {
	Git *git.Git
	// Command overrides $EDITOR when set. Empty falls back to $EDITOR,
	// then vim.
	Command string
}

// Edit implements the Editor interface.
func (e *GitEditor) Edit(ctx context.Context, message string) (string, error) {
	path, err := e.Git.MessageFilePath(ctx)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(message+"\n"), 0o644); err != nil {
		return "", erruser.New("Could not write the commit message file.", err)
	}

	editor := e.Command
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vim"
	}
	// $EDITOR may carry arguments (e.g. "code --wait").
	parts := strings.Fields(editor)
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", erruser.New("The editor exited with an error; the message was not changed.", err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", erruser.New("Could not read the edited commit message.", err)
	}
	return string(edited), nil
}
