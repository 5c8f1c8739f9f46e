// Package parse extracts structure from raw capture text: inline #tags,
// links, and the escaping applied before text is persisted.
package parse

import (
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`#(\w+)`)
	stripPattern = regexp.MustCompile(`#\w*`)
	linkPattern  = regexp.MustCompile(`https?://[^\s]+`)
)

// ParseTags returns the tag names referenced in text, in order of
// appearance. A bare "#" is not a tag.
func ParseTags(text string) []string {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// ParseLinks returns the URLs referenced in text, in order of appearance.
func ParseLinks(text string) []string {
	return linkPattern.FindAllString(text, -1)
}

// StripTags removes tag markup from text, leaving the surrounding words.
func StripTags(text string) string {
	return strings.TrimSpace(stripPattern.ReplaceAllString(text, ""))
}

// Escape normalizes text for persistence: backslashes and double quotes are
// escaped so stored bodies survive later re-serialization unchanged.
func Escape(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	return strings.ReplaceAll(text, `"`, `\"`)
}
