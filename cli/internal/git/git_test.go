package git

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner records invocations and returns canned results keyed by the
// first git argument.
type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	errs    map[string]error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	if err, ok := f.errs[args[0]]; ok {
		return "", err
	}
	return f.outputs[args[0]], nil
}

func TestCheckRepository_insideRepo(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{outputs: map[string]string{"rev-parse": "true\n"}}
	g := New(r, "")
	if err := g.CheckRepository(context.Background()); err != nil {
		t.Fatalf("CheckRepository: %v", err)
	}
	if len(r.calls) != 1 || r.calls[0][1] != "--is-inside-work-tree" {
		t.Errorf("calls = %v, want one rev-parse --is-inside-work-tree", r.calls)
	}
}

func TestCheckRepository_outsideRepo(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{errs: map[string]error{"rev-parse": errors.New("exit status 128")}}
	g := New(r, "")
	err := g.CheckRepository(context.Background())
	if err == nil {
		t.Fatal("CheckRepository: want error outside a repository")
	}
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("error should wrap ErrNotRepository: %v", err)
	}
}

func TestStagedDiff_passesStableFlags(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{outputs: map[string]string{"diff": "+added line\n"}}
	g := New(r, "")
	out, err := g.StagedDiff(context.Background())
	if err != nil {
		t.Fatalf("StagedDiff: %v", err)
	}
	if out != "+added line\n" {
		t.Errorf("StagedDiff = %q", out)
	}
	got := strings.Join(r.calls[0], " ")
	for _, flag := range []string{"--staged", "--minimal", "--unified=5", "--no-color", "--no-ext-diff"} {
		if !strings.Contains(got, flag) {
			t.Errorf("diff invocation %q missing %s", got, flag)
		}
	}
}

func TestCommit_passesMessageVerbatim(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{outputs: map[string]string{"commit": ""}}
	g := New(r, "")
	msg := "feat(auth): add token refresh\n\n- refresh before expiry"
	if err := g.Commit(context.Background(), msg); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	want := []string{"commit", "-m", msg}
	if len(r.calls) != 1 || strings.Join(r.calls[0], "\x00") != strings.Join(want, "\x00") {
		t.Errorf("commit invocation = %v, want %v", r.calls[0], want)
	}
}

func TestCommit_hookRejection(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{errs: map[string]error{"commit": errors.New("exit status 1")}}
	g := New(r, "")
	err := g.Commit(context.Background(), "feat: x")
	if !errors.Is(err, ErrCommitFailed) {
		t.Errorf("error should wrap ErrCommitFailed: %v", err)
	}
}

func TestCommit_emptyMessageRejectedLocally(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{}
	g := New(r, "")
	err := g.Commit(context.Background(), "   \n")
	if !errors.Is(err, ErrCommitFailed) {
		t.Errorf("error should wrap ErrCommitFailed: %v", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("git should not be invoked for an empty message, got %v", r.calls)
	}
}

func TestMessageFilePath(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{outputs: map[string]string{"rev-parse": ".git\n"}}
	g := New(r, "")
	path, err := g.MessageFilePath(context.Background())
	if err != nil {
		t.Fatalf("MessageFilePath: %v", err)
	}
	if filepath.Base(path) != "COMMIT_EDITMSG" {
		t.Errorf("path = %q, want COMMIT_EDITMSG basename", path)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("path = %q, want absolute", path)
	}
}
