package approve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gai/cli/internal/commitmsg"
	"gai/cli/internal/provider"
)

// fakeGenerator returns canned outputs in order, then an error.
type fakeGenerator struct {
	outputs []string
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ provider.Options) (string, error) {
	f.calls++
	if f.calls <= len(f.outputs) {
		return f.outputs[f.calls-1], nil
	}
	if f.err != nil {
		return "", f.err
	}
	return "", errors.New("no more outputs")
}

func (f *fakeGenerator) Name() string { return "fake" }

// fakeEditor returns a fixed edit result.
type fakeEditor struct {
	result string
	err    error
	calls  int
	seen   []string
}

func (f *fakeEditor) Edit(_ context.Context, message string) (string, error) {
	f.calls++
	f.seen = append(f.seen, message)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

// fakeCommitter records committed messages; errs are consumed one per call.
type fakeCommitter struct {
	committed []string
	errs      []error
	calls     int
}

func (f *fakeCommitter) Commit(_ context.Context, message string) error {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.committed = append(f.committed, message)
	return nil
}

func newLoop(input string, gen *fakeGenerator, ed *fakeEditor, com *fakeCommitter) (*Loop, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Loop{
		In:        strings.NewReader(input),
		Out:       out,
		Generator: gen,
		DiffText:  "+diff\n",
		Editor:    ed,
		Committer: com,
	}, out
}

func mustCandidate(t *testing.T, raw string) commitmsg.Candidate {
	t.Helper()
	c, err := commitmsg.Sanitize(raw, false)
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	return c
}

func TestRun_quitAtFirstPresentation(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{}
	com := &fakeCommitter{}
	loop, out := newLoop("q\n", gen, &fakeEditor{}, com)

	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: initial"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Aborted {
		t.Errorf("outcome = %v, want Aborted", outcome)
	}
	if com.calls != 0 {
		t.Errorf("commit invoked %d times, want 0", com.calls)
	}
	if gen.calls != 0 {
		t.Errorf("generator invoked %d times, want 0", gen.calls)
	}
	if !strings.Contains(out.String(), "Commit aborted.") {
		t.Error("quit should print the abort notice")
	}
}

func TestRun_applyCommitsCandidateVerbatim(t *testing.T) {
	t.Parallel()
	com := &fakeCommitter{}
	loop, out := newLoop("a\n", &fakeGenerator{}, &fakeEditor{}, com)

	cand := mustCandidate(t, "feat(auth): add token refresh\n\n- refresh before expiry")
	outcome, err := loop.Run(context.Background(), cand)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Done {
		t.Errorf("outcome = %v, want Done", outcome)
	}
	want := "feat(auth): add token refresh\n\n- refresh before expiry"
	if len(com.committed) != 1 || com.committed[0] != want {
		t.Errorf("committed = %q, want %q", com.committed, want)
	}
	if !strings.Contains(out.String(), "Commit successful!") {
		t.Error("apply should print the success notice")
	}
}

func TestRun_regenerateRegenerateEditApply(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{outputs: []string{
		"feat: second candidate",
		"feat: third candidate\n\n- with body",
	}}
	ed := &fakeEditor{result: "docs: hand-written subject\n\nhand-written body\n"}
	com := &fakeCommitter{}
	loop, _ := newLoop("r\nr\ne\na\n", gen, ed, com)

	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: first candidate"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Done {
		t.Errorf("outcome = %v, want Done", outcome)
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
	// Edit opened on the candidate from the second regeneration.
	if len(ed.seen) != 1 || !strings.HasPrefix(ed.seen[0], "feat: third candidate") {
		t.Errorf("editor pre-fill = %q, want third candidate", ed.seen)
	}
	// Apply committed the edited text, not any generated one.
	want := "docs: hand-written subject\n\nhand-written body"
	if len(com.committed) != 1 || com.committed[0] != want {
		t.Errorf("committed = %q, want %q", com.committed, want)
	}
}

func TestRun_invalidInputRepromptsWithoutSideEffects(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{}
	com := &fakeCommitter{}
	loop, out := newLoop("x\nzz\nq\n", gen, &fakeEditor{}, com)

	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: x"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Aborted {
		t.Errorf("outcome = %v, want Aborted", outcome)
	}
	if gen.calls != 0 || com.calls != 0 {
		t.Errorf("invalid input must not touch generator (%d) or committer (%d)", gen.calls, com.calls)
	}
	if got := strings.Count(out.String(), "Invalid choice."); got != 2 {
		t.Errorf("invalid notices = %d, want 2", got)
	}
}

func TestRun_decisionsAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	com := &fakeCommitter{}
	loop, _ := newLoop("A\n", &fakeGenerator{}, &fakeEditor{}, com)
	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: x"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Done || com.calls != 1 {
		t.Errorf("outcome = %v, commits = %d", outcome, com.calls)
	}
}

func TestRun_rejectedCommitKeepsCandidate(t *testing.T) {
	t.Parallel()
	hookErr := errors.New("commit-msg hook rejected")
	com := &fakeCommitter{errs: []error{hookErr, nil}}
	loop, out := newLoop("a\na\n", &fakeGenerator{}, &fakeEditor{}, com)

	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: keep me"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Done {
		t.Errorf("outcome = %v, want Done after retrying apply", outcome)
	}
	if len(com.committed) != 1 || com.committed[0] != "feat: keep me" {
		t.Errorf("committed = %q; the candidate must survive a rejected commit", com.committed)
	}
	if !strings.Contains(out.String(), hookErr.Error()) {
		t.Error("the commit error must be surfaced to the user")
	}
}

func TestRun_quitAfterRejectedCommitIsFailed(t *testing.T) {
	t.Parallel()
	com := &fakeCommitter{errs: []error{errors.New("hook rejected")}}
	loop, _ := newLoop("a\nq\n", &fakeGenerator{}, &fakeEditor{}, com)

	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: x"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Failed {
		t.Errorf("outcome = %v, want Failed", outcome)
	}
}

func TestRun_regenerateFailureKeepsPreviousCandidate(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{err: fmt.Errorf("chat: %w", provider.ErrUnavailable)}
	com := &fakeCommitter{}
	loop, out := newLoop("r\na\n", gen, &fakeEditor{}, com)

	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: survivor"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Done {
		t.Errorf("outcome = %v, want Done", outcome)
	}
	if len(com.committed) != 1 || com.committed[0] != "feat: survivor" {
		t.Errorf("committed = %q, want the pre-failure candidate", com.committed)
	}
	if !strings.Contains(out.String(), "provider unavailable") {
		t.Error("the provider error must be surfaced")
	}
}

func TestRun_emptyEditKeepsPreviousCandidate(t *testing.T) {
	t.Parallel()
	ed := &fakeEditor{result: "\n\n"}
	com := &fakeCommitter{}
	loop, _ := newLoop("e\na\n", &fakeGenerator{}, ed, com)

	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: original"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Done {
		t.Errorf("outcome = %v, want Done", outcome)
	}
	if len(com.committed) != 1 || com.committed[0] != "feat: original" {
		t.Errorf("committed = %q, want the original candidate", com.committed)
	}
}

func TestRun_onelineRegenerateHasNoBody(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{outputs: []string{"fix: short\n\n- stray body line"}}
	com := &fakeCommitter{}
	loop, _ := newLoop("r\na\n", gen, &fakeEditor{}, com)
	loop.GenOptions = provider.Options{Oneline: true}

	outcome, err := loop.Run(context.Background(), commitmsg.Candidate{Subject: "fix: first"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Done {
		t.Errorf("outcome = %v", outcome)
	}
	if len(com.committed) != 1 || com.committed[0] != "fix: short" {
		t.Errorf("committed = %q, want bare subject in oneline mode", com.committed)
	}
}

func TestRun_eofBehavesLikeQuit(t *testing.T) {
	t.Parallel()
	com := &fakeCommitter{}
	loop, _ := newLoop("", &fakeGenerator{}, &fakeEditor{}, com)
	outcome, err := loop.Run(context.Background(), mustCandidate(t, "feat: x"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != Aborted || com.calls != 0 {
		t.Errorf("outcome = %v, commits = %d; EOF should abort cleanly", outcome, com.calls)
	}
}
