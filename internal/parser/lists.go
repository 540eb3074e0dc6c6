package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Entry is one "<count>x <name>" line of a monster or loot section.
type Entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

var entryRe = regexp.MustCompile(`(?i)^(\d+)\s*x\s+(\S.*)$`)

// ExtractSection returns the body that follows the first of headers
// (case-insensitive, optional trailing colon) up to the first of stops found
// at the start of a line, or the end of text.
func ExtractSection(text string, headers, stops []string) (string, bool) {
	return newSectionRule(headers, stops).extract(text)
}

// sectionRule is ExtractSection with its patterns compiled once.
type sectionRule struct {
	header *regexp.Regexp
	stop   *regexp.Regexp
}

func newSectionRule(headers, stops []string) sectionRule {
	var r sectionRule
	if len(headers) > 0 {
		r.header = regexp.MustCompile(`(?i)(?:` + alternation(headers) + `)[ \t]*:?`)
	}
	if len(stops) > 0 {
		r.stop = regexp.MustCompile(`(?im)^[ \t]*(?:` + alternation(stops) + `)`)
	}
	return r
}

// newInlineSectionRule is newSectionRule for layouts that may run both
// sections together on one line. A stop label followed by a colon ends the
// body wherever it appears after whitespace.
func newInlineSectionRule(headers, stops []string) sectionRule {
	r := newSectionRule(headers, nil)
	if len(stops) > 0 {
		alt := alternation(stops)
		r.stop = regexp.MustCompile(`(?im)^[ \t]*(?:` + alt + `)|\s(?:` + alt + `)[ \t]*:`)
	}
	return r
}

func alternation(labels []string) string {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		parts := strings.Fields(l)
		if len(parts) == 0 {
			continue
		}
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		quoted = append(quoted, strings.Join(parts, `[ \t]+`))
	}
	return strings.Join(quoted, "|")
}

func (r sectionRule) extract(text string) (string, bool) {
	if r.header == nil {
		return "", false
	}
	loc := r.header.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	body := text[loc[1]:]
	if r.stop != nil {
		if end := r.stop.FindStringIndex(body); end != nil {
			body = body[:end[0]]
		}
	}
	return body, true
}

// ParseEntries splits a section body into entries by line and by comma.
// Segments that are not "<count>x <name>" are skipped. Duplicates are kept
// in document order.
func ParseEntries(body string) []Entry {
	return parseEntries(body, nil)
}

func parseEntries(body string, skip func(segment string)) []Entry {
	entries := make([]Entry, 0)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, seg := range strings.Split(line, ",") {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}
			e, ok := parseEntry(seg)
			if !ok {
				if skip != nil {
					skip(seg)
				}
				continue
			}
			entries = append(entries, e)
		}
	}
	return entries
}

func parseEntry(seg string) (Entry, bool) {
	m := entryRe.FindStringSubmatch(seg)
	if m == nil {
		return Entry{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return Entry{}, false
	}
	name := strings.TrimSpace(m[2])
	if name == "" {
		return Entry{}, false
	}
	return Entry{Name: name, Count: n}, true
}
