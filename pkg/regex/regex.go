// Package regex implements the regex and transliteration glue (spec
// §4.7): Match and Substitution objects that compile once and execute
// many times, an options bitset (case-insensitive, multiline, dotall,
// extended, extract, global), and transliteration (`tr/.../.../`
// style) character mapping with range expansion on either side.
//
// Grounded on github.com/dlclark/regexp2, the one full-featured
// (.NET-style) regex engine the retrieved pack names in its go.mod
// (caddyserver-caddy): its RegexOptions bitset already covers
// case-insensitivity, multiline, dotall (Singleline) and extended
// mode (IgnorePatternWhitespace) directly, so the spec's option
// bitset maps onto it field-for-field instead of needing a
// hand-rolled translation layer — the standard library's regexp
// package has no dotall/extended-mode support at all, so it wouldn't
// cover the spec's option set regardless.
package regex

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

// Option is one bit of the spec §4.7 option set.
type Option uint32

const (
	CaseInsensitive Option = 1 << iota
	Multiline
	DotAll
	Extended
	Extract
	Global
)

const knownOptions = CaseInsensitive | Multiline | DotAll | Extended | Extract | Global

func toEngineOptions(o Option) regexp2.RegexOptions {
	var out regexp2.RegexOptions
	if o&CaseInsensitive != 0 {
		out |= regexp2.IgnoreCase
	}
	if o&Multiline != 0 {
		out |= regexp2.Multiline
	}
	if o&DotAll != 0 {
		out |= regexp2.Singleline
	}
	if o&Extended != 0 {
		out |= regexp2.IgnorePatternWhitespace
	}
	return out
}

func checkOptions(o Option, sink value.Sink) bool {
	if o&^knownOptions != 0 {
		sink.RaiseSystem(exception.RegexOptionError, "unrecognized regex option bit")
		return false
	}
	return true
}

// toUTF8 transcodes target to UTF-8 for matching, per spec §4.7 ("the
// target is transcoded to UTF-8 for matching; results are returned in
// UTF-8"). Go strings are UTF-8 already at the host-language boundary
// in this runtime (pkg/value.Value.s), so this is the identity
// transform; it exists as the named seam other string-encoding
// backed hosts would hook into.
func toUTF8(s string) string { return s }

// Match is a compiled pattern usable for boolean testing and capture
// extraction (spec §4.7 "match" object).
type Match struct {
	re   *regexp2.Regexp
	opts Option
}

// NewMatch compiles pattern under opts. An unrecognized option bit
// raises REGEX-OPTION-ERROR; a pattern the engine rejects raises
// REGEX-COMPILATION-ERROR. Either failure returns (nil, false).
func NewMatch(pattern string, opts Option, sink value.Sink) (*Match, bool) {
	if !checkOptions(opts, sink) {
		return nil, false
	}
	re, err := regexp2.Compile(pattern, toEngineOptions(opts))
	if err != nil {
		sink.RaiseSystem(exception.RegexCompilationErr, err.Error())
		return nil, false
	}
	return &Match{re: re, opts: opts}, true
}

// Test reports whether target matches m's pattern at all.
func (m *Match) Test(target string, sink value.Sink) (matched bool, ok bool) {
	matched, err := m.re.MatchString(toUTF8(target))
	if err != nil {
		sink.RaiseSystem(exception.RegexCompilationErr, err.Error())
		return false, false
	}
	return matched, true
}

// Extract returns the captured substrings (spec §4.7 "extract
// (substring capture)"): one entry per capture group in the first
// match, or — when the Global option is set — the concatenation of
// every match's capture groups in order. A pattern with no capture
// groups yields the whole matched substring per match instead.
func (m *Match) Extract(target string, sink value.Sink) (groups []string, ok bool) {
	target = toUTF8(target)
	match, err := m.re.FindStringMatch(target)
	if err != nil {
		sink.RaiseSystem(exception.RegexCompilationErr, err.Error())
		return nil, false
	}
	for match != nil {
		groups = append(groups, groupStrings(match)...)
		if m.opts&Global == 0 {
			break
		}
		match, err = m.re.FindNextMatch(match)
		if err != nil {
			sink.RaiseSystem(exception.RegexCompilationErr, err.Error())
			return nil, false
		}
	}
	return groups, true
}

func groupStrings(match *regexp2.Match) []string {
	gs := match.Groups()
	if len(gs) <= 1 {
		return []string{match.String()}
	}
	out := make([]string, 0, len(gs)-1)
	for _, g := range gs[1:] {
		out = append(out, g.String())
	}
	return out
}

// Substitution is a compiled pattern paired with a replacement,
// reusable across targets (spec §4.7 "substitution" object).
type Substitution struct {
	re   *regexp2.Regexp
	opts Option
}

// NewSubstitution compiles pattern under opts for repeated
// replacement. Same failure modes as NewMatch.
func NewSubstitution(pattern string, opts Option, sink value.Sink) (*Substitution, bool) {
	if !checkOptions(opts, sink) {
		return nil, false
	}
	re, err := regexp2.Compile(pattern, toEngineOptions(opts))
	if err != nil {
		sink.RaiseSystem(exception.RegexCompilationErr, err.Error())
		return nil, false
	}
	return &Substitution{re: re, opts: opts}, true
}

// Replace substitutes the first match (or, with the Global option,
// every match) of s's pattern in target with replacement.
func (s *Substitution) Replace(target, replacement string, sink value.Sink) (string, bool) {
	count := 1
	if s.opts&Global != 0 {
		count = -1
	}
	out, err := s.re.Replace(toUTF8(target), replacement, 0, count)
	if err != nil {
		sink.RaiseSystem(exception.RegexCompilationErr, err.Error())
		return "", false
	}
	return out, true
}

// Transliteration implements `tr/from/to/` style per-character
// mapping, including range expansion (`a-z`) on either side (spec
// §4.7). Unmapped characters pass through unchanged.
type Transliteration struct {
	mapping map[rune]rune
}

// NewTransliteration expands from and to (each may use `a-z`-style
// ranges) and builds the per-character mapping. When to is shorter
// than the expanded from, its final character pads the remainder —
// the classic `tr` behavior — and an empty to leaves every character
// in from unchanged.
func NewTransliteration(from, to string) *Transliteration {
	fr := expandRanges(from)
	tr := expandRanges(to)

	mapping := make(map[rune]rune, len(fr))
	for i, r := range fr {
		switch {
		case i < len(tr):
			mapping[r] = tr[i]
		case len(tr) > 0:
			mapping[r] = tr[len(tr)-1]
		default:
			mapping[r] = r
		}
	}
	return &Transliteration{mapping: mapping}
}

// expandRanges expands `a-z` style ranges (low-to-high, inclusive)
// into their member runes; a lone trailing `-` or a descending range
// is taken literally rather than expanded.
func expandRanges(s string) []rune {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' && runes[i+2] >= runes[i] {
			for c := runes[i]; c <= runes[i+2]; c++ {
				out = append(out, c)
			}
			i += 2
			continue
		}
		out = append(out, runes[i])
	}
	return out
}

// Apply returns target with every mapped character replaced.
func (t *Transliteration) Apply(target string) string {
	var b strings.Builder
	b.Grow(len(target))
	for _, r := range target {
		if m, ok := t.mapping[r]; ok {
			b.WriteRune(m)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
