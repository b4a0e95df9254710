// Package commitmsg normalizes raw provider output into a commit message
// candidate. Sanitize applies, in order: reasoning-block removal, wrapper
// trimming (whitespace, quotes, code fences), and the subject/body split.
// Grammar is not validated; a malformed message stays visible so the user
// can edit or regenerate.
package commitmsg

import (
	"errors"
	"regexp"
	"strings"

	"gai/cli/internal/erruser"
)

// ErrEmptyMessage indicates sanitizing left no subject line. An empty
// candidate must never reach the commit step.
var ErrEmptyMessage = errors.New("empty commit message")

// thinkBlock matches a delimited reasoning span some models emit before the
// actual message. The content must never reach the commit.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// extraBlankLines collapses runs of blank lines left behind by block removal.
var extraBlankLines = regexp.MustCompile(`\n\s*\n\s*\n`)

// Candidate is a commit message not yet committed. Candidates are value
// types; edits and regenerations produce new ones.
type Candidate struct {
	Subject string
	Body    []string
}

// Message renders the candidate verbatim for git: subject, then a blank
// line and the body when present.
func (c Candidate) Message() string {
	if len(c.Body) == 0 {
		return c.Subject
	}
	return c.Subject + "\n\n" + strings.Join(c.Body, "\n")
}

// Sanitize turns raw provider output into a candidate. In oneline mode the
// body is dropped. Returns ErrEmptyMessage (wrapped) when nothing remains
// after cleanup.
func Sanitize(raw string, oneline bool) (Candidate, error) {
	cleaned := thinkBlock.ReplaceAllString(raw, "")
	cleaned = extraBlankLines.ReplaceAllString(cleaned, "\n\n")
	cleaned = trimWrappers(cleaned)
	return split(cleaned, oneline)
}

// FromEdited builds a candidate from editor output. Edited text is trusted:
// only whitespace trimming and the subject/body split are applied, no
// reasoning-block or wrapper handling.
func FromEdited(text string) (Candidate, error) {
	return split(strings.TrimSpace(text), false)
}

func split(text string, oneline bool) (Candidate, error) {
	var subject string
	var body []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if subject == "" {
			subject = strings.TrimSpace(line)
			continue
		}
		body = append(body, line)
	}
	if subject == "" {
		return Candidate{}, erruser.New("The model returned an empty commit message. Try regenerating or another model.", ErrEmptyMessage)
	}
	if oneline {
		body = nil
	}
	return Candidate{Subject: subject, Body: body}, nil
}

// trimWrappers strips surrounding whitespace, code fences, and quote pairs
// the model may have added around the whole message.
func trimWrappers(s string) string {
	for {
		before := s
		s = strings.TrimSpace(s)
		s = trimCodeFence(s)
		s = trimQuotePair(s)
		if s == before {
			return s
		}
	}
}

// trimCodeFence removes a leading ``` line (with optional language tag) and
// a trailing ``` line when both are present.
func trimCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s
	if idx := strings.Index(rest, "\n"); idx >= 0 {
		rest = rest[idx+1:]
	} else {
		return strings.TrimPrefix(rest, "```")
	}
	rest = strings.TrimRight(rest, " \t\n")
	if strings.HasSuffix(rest, "```") {
		rest = strings.TrimSuffix(rest, "```")
	}
	return rest
}

// trimQuotePair removes one pair of matching quotes wrapping the whole text.
func trimQuotePair(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first != last {
		return s
	}
	switch first {
	case '"', '\'', '`':
		return s[1 : len(s)-1]
	}
	return s
}
