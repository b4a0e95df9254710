// Package prompt builds the system and user prompts sent to a provider.
package prompt

// systemBase instructs the model to write a Conventional Commits message
// and to emit only the raw message, no reasoning or preamble.
const systemBase = `You are to act as an expert author of git commit messages. Your mission is to create clean and comprehensive commit messages following the Conventional Commits specification. You must explain WHAT the changes are and WHY they were made.

I will provide you with the output of 'git diff --staged' and you must convert it into a proper commit message.

**COMMIT FORMAT RULES:**
- Use ONLY these conventional commit keywords: fix, feat, build, chore, ci, docs, style, refactor, perf, test
- Format: <type>[optional scope]: <description>
- Use present tense (e.g. 'add feature' not 'added feature')
- Keep the subject line under 50 characters

**OUTPUT REQUIREMENTS:**
- Your response MUST contain ONLY the raw commit message text
- NO introductory phrases like 'Here is the commit message:'
- NO internal reasoning, thinking, or deliberation in the output
- NO markdown formatting or code blocks
- NO quotation marks around the message`

const bodyRules = `

**BODY FORMAT:**
- Leave a blank line after the subject
- Use bullet points (- ) for multiple changes
- Start each bullet with a verb (add, fix, update, remove)
- Lines in the body must not exceed 72 characters
- Focus on WHAT changed and WHY, not HOW`

const onelineRules = `

**ONELINE MODE:**
- Output exactly one line: the subject
- NO body, NO blank lines, NO bullet points`

// System returns the system prompt. In oneline mode the model is told to
// produce a single subject line and no body.
func System(oneline bool) string {
	if oneline {
		return systemBase + onelineRules
	}
	return systemBase + bodyRules
}

// User wraps the diff text as the user message.
func User(diff string) string {
	return "Generate a commit message for this git diff:\n\n" + diff
}
