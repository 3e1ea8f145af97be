// Package filter narrows a pane's listing with a small query language.
//
// A query is a space separated list of terms that must all match:
//
//	report          name contains "report"
//	*.tar.gz        name glob
//	ext:go          extension is .go
//	size:>1MiB      larger than one mebibyte
//	modified:>=week changed in the last seven days
//
// Quotes keep spaces inside a term: name:"my notes".
package filter

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/justyntemme/twinpane/internal/fs"
	"golang.org/x/text/cases"
)

// TermType is what a term matches against.
type TermType int

const (
	TermName TermType = iota
	TermExt
	TermSize
	TermModified
)

// Operator compares sizes and dates.
type Operator int

const (
	OpEquals Operator = iota
	OpGreater
	OpLess
	OpGreaterEq
	OpLessEq
)

// Term is one parsed query term.
type Term struct {
	Type     TermType
	Value    string // folded for name and ext terms
	Operator Operator
	Size     int64
	Time     time.Time
	Invalid  bool // size or date could not be parsed; the term matches nothing
}

// Query is a parsed filter. The zero Query matches every row.
type Query struct {
	Terms []Term
	Raw   string
}

// Parse parses input relative to now. Relative dates such as "today" and
// "week" are resolved once, here.
func Parse(input string, now time.Time) *Query {
	q := &Query{Raw: input}
	input = strings.TrimSpace(input)
	if input == "" {
		return q
	}
	fold := cases.Fold()
	for _, part := range splitRespectingQuotes(input) {
		q.Terms = append(q.Terms, parseTerm(part, now, fold))
	}
	return q
}

// IsEmpty reports whether q matches everything.
func (q *Query) IsEmpty() bool {
	return q == nil || len(q.Terms) == 0
}

func splitRespectingQuotes(s string) []string {
	var parts []string
	var current strings.Builder
	quote := rune(0)

	for _, r := range s {
		switch {
		case (r == '"' || r == '\'') && quote == 0:
			quote = r
		case r == quote:
			quote = 0
		case r == ' ' && quote == 0:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func parseTerm(s string, now time.Time, fold cases.Caser) Term {
	if idx := strings.Index(s, ":"); idx > 0 {
		value := strings.Trim(s[idx+1:], "\"'")
		switch strings.ToLower(s[:idx]) {
		case "name", "filename", "file":
			return Term{Type: TermName, Value: fold.String(value)}

		case "ext", "extension", "type":
			if !strings.HasPrefix(value, ".") {
				value = "." + value
			}
			return Term{Type: TermExt, Value: fold.String(value)}

		case "size":
			op, num := parseOperator(value)
			n, err := humanize.ParseBytes(num)
			return Term{Type: TermSize, Value: value, Operator: op, Size: int64(n), Invalid: err != nil}

		case "modified", "date", "mtime":
			op, date := parseOperator(value)
			t, ok := parseDate(date, now)
			return Term{Type: TermModified, Value: value, Operator: op, Time: t, Invalid: !ok}
		}
	}
	return Term{Type: TermName, Value: fold.String(s)}
}

func parseOperator(s string) (Operator, string) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, ">="):
		return OpGreaterEq, strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, "<="):
		return OpLessEq, strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, ">"):
		return OpGreater, strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "<"):
		return OpLess, strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "="):
		return OpEquals, strings.TrimSpace(s[1:])
	}
	return OpEquals, s
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
}

func parseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	y, m, d := now.Date()
	switch s {
	case "today":
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case "yesterday":
		return time.Date(y, m, d-1, 0, 0, 0, 0, now.Location()), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	case "year":
		return now.AddDate(-1, 0, 0), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Matcher evaluates rows against a query. It is not safe for concurrent
// use.
type Matcher struct {
	query *Query
	fold  cases.Caser
}

// NewMatcher returns a Matcher for q. A nil q matches everything.
func NewMatcher(q *Query) *Matcher {
	return &Matcher{query: q, fold: cases.Fold()}
}

// Match reports whether row satisfies every term. The parent row always
// matches so a filtered pane can still go up.
func (m *Matcher) Match(row fs.Row) bool {
	if row.Imaginary || m.query.IsEmpty() {
		return true
	}
	for _, t := range m.query.Terms {
		if !m.matchTerm(t, row) {
			return false
		}
	}
	return true
}

// Apply returns the matching rows, keeping their order. rows is not
// modified.
func (m *Matcher) Apply(rows []fs.Row) []fs.Row {
	if m.query.IsEmpty() {
		return rows
	}
	out := make([]fs.Row, 0, len(rows))
	for _, r := range rows {
		if m.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *Matcher) matchTerm(t Term, row fs.Row) bool {
	if t.Invalid {
		return false
	}
	switch t.Type {
	case TermName:
		return matchGlob(m.fold.String(row.FileName()), t.Value)

	case TermExt:
		// Directories have no extension column; "a.d" is a name.
		return !row.IsDir() && m.fold.String(row.Ext) == t.Value

	case TermSize:
		return !row.IsDir() && compareInt(row.Size, t.Size, t.Operator)

	case TermModified:
		return compareTime(row.ModTime, t.Time, t.Operator)
	}
	return true
}

// matchGlob matches * wildcards. A pattern without one is a substring match.
func matchGlob(name, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return strings.Contains(name, pattern)
	}

	parts := strings.Split(pattern, "*")
	if parts[0] != "" && !strings.HasPrefix(name, parts[0]) {
		return false
	}
	last := parts[len(parts)-1]
	if last != "" && !strings.HasSuffix(name, last) {
		return false
	}

	pos := len(parts[0])
	end := len(name) - len(last)
	if end < pos {
		return false
	}
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(name[pos:end], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}
	return true
}

func compareInt(val, target int64, op Operator) bool {
	switch op {
	case OpGreater:
		return val > target
	case OpLess:
		return val < target
	case OpGreaterEq:
		return val >= target
	case OpLessEq:
		return val <= target
	}
	return val == target
}

func compareTime(val, target time.Time, op Operator) bool {
	switch op {
	case OpGreater:
		return val.After(target)
	case OpLess:
		return val.Before(target)
	case OpGreaterEq:
		return !val.Before(target)
	case OpLessEq:
		return !val.After(target)
	}
	// Equality is by calendar day in target's zone.
	vy, vm, vd := val.In(target.Location()).Date()
	ty, tm, td := target.Date()
	return vy == ty && vm == tm && vd == td
}
