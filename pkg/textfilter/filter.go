// Package textfilter cleans model narration before it enters the
// narrative history. Models occasionally wrap prose in markdown fences,
// prefix it with a speaker label, or pad it with blank lines; none of
// that belongs in the transcript.
package textfilter

import (
	"regexp"
	"strings"
)

// Labels models sometimes prepend to their own narration even when told
// not to. Matched case-insensitively at the start of the text.
var roleLabelRegex = regexp.MustCompile(`(?i)^\s*(game master|gm|narrator|dm)\s*:\s*`)

// codeFenceRegex matches a fence line, with or without a language tag.
var codeFenceRegex = regexp.MustCompile("^```[a-zA-Z]*$")

// blankRunRegex collapses runs of three or more newlines to a paragraph
// break.
var blankRunRegex = regexp.MustCompile(`\n{3,}`)

// CleanNarration normalizes raw model narration for display. It strips a
// leading role label, unwraps a fully fenced block, collapses excess
// blank lines, and trims surrounding whitespace. Empty input stays
// empty; deciding what to do about it is the caller's job.
func CleanNarration(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = unwrapFence(text)
	text = roleLabelRegex.ReplaceAllString(text, "")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// unwrapFence removes a code fence only when it encloses the whole text;
// fences inside mixed prose are left alone.
func unwrapFence(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}
	first := strings.TrimSpace(lines[0])
	last := strings.TrimSpace(lines[len(lines)-1])
	if !codeFenceRegex.MatchString(first) || last != "```" {
		return text
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}
