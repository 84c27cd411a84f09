// Package text cleans upstream copy for display.
package text

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

var (
	lineBreak = regexp.MustCompile(`\r?\n`)
	bareURL   = regexp.MustCompile(`https?://[^\s<]+`)
	emblem    = regexp.MustCompile(`^.*_(\w*).*$`)
)

// Decode unescapes HTML entities left in upstream names.
func Decode(s string) string {
	return html.UnescapeString(s)
}

// Description links bare URLs and turns line breaks into <br /> tags.
func Description(s string) string {
	s = bareURL.ReplaceAllStringFunc(s, func(u string) string {
		return `<a href="` + u + `" target="_blank" rel="noopener noreferrer">` + u + `</a>`
	})
	return strings.Join(lineBreak.Split(s, -1), "<br />")
}

// EmblemIcon reduces an emblem image path to its icon token.
func EmblemIcon(path string) string {
	return emblem.ReplaceAllString(path, "$1")
}

// Possessive adds 's, or a bare apostrophe after a trailing s.
func Possessive(s string) string {
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, "s") {
		return s + "'"
	}
	return s + "'s"
}

// Sentence sorts non-empty names and joins them as "a, b & c".
func Sentence(names []string) string {
	list := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			list = append(list, n)
		}
	}
	sort.Strings(list)
	switch len(list) {
	case 0:
		return ""
	case 1:
		return list[0]
	}
	return strings.Join(list[:len(list)-1], ", ") + " & " + list[len(list)-1]
}
