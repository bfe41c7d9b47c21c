package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorelang/coreruntime/pkg/exception"
)

func TestMatchBasic(t *testing.T) {
	var sink exception.Sink
	m, ok := NewMatch(`\d+`, 0, &sink)
	require.True(t, ok)

	matched, ok := m.Test("abc123", &sink)
	require.True(t, ok)
	assert.True(t, matched)

	matched, ok = m.Test("abc", &sink)
	require.True(t, ok)
	assert.False(t, matched)
}

func TestMatchCaseInsensitive(t *testing.T) {
	var sink exception.Sink
	m, ok := NewMatch("hello", CaseInsensitive, &sink)
	require.True(t, ok)
	matched, _ := m.Test("HELLO world", &sink)
	assert.True(t, matched)
}

func TestMatchCompilationErrorRaisesSink(t *testing.T) {
	var sink exception.Sink
	_, ok := NewMatch("(unterminated", 0, &sink)
	assert.False(t, ok)
	assert.True(t, sink.HasException())
	assert.Equal(t, exception.RegexCompilationErr, sink.Current().ErrorCode)
}

func TestMatchUnknownOptionRaisesSink(t *testing.T) {
	var sink exception.Sink
	_, ok := NewMatch("x", Option(1<<30), &sink)
	assert.False(t, ok)
	assert.Equal(t, exception.RegexOptionError, sink.Current().ErrorCode)
}

func TestExtractSubstringsWithCaptureGroups(t *testing.T) {
	var sink exception.Sink
	m, ok := NewMatch(`(\w+)=(\d+)`, 0, &sink)
	require.True(t, ok)

	groups, ok := m.Extract("count=42", &sink)
	require.True(t, ok)
	assert.Equal(t, []string{"count", "42"}, groups)
}

func TestExtractGlobalConcatenatesAllMatches(t *testing.T) {
	var sink exception.Sink
	m, ok := NewMatch(`(\w)=(\d)`, Global, &sink)
	require.True(t, ok)

	groups, ok := m.Extract("a=1,b=2", &sink)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "1", "b", "2"}, groups)
}

func TestRoundTripMatchAndExtractNonEmpty(t *testing.T) {
	var sink exception.Sink
	m, ok := NewMatch(`(\d+)`, 0, &sink)
	require.True(t, ok)

	matched, _ := m.Test("x42y", &sink)
	groups, _ := m.Extract("x42y", &sink)
	assert.Equal(t, matched, len(groups) > 0)
}

func TestSubstitutionFirstOnly(t *testing.T) {
	var sink exception.Sink
	s, ok := NewSubstitution(`\d+`, 0, &sink)
	require.True(t, ok)

	out, ok := s.Replace("a1 b2 c3", "#", &sink)
	require.True(t, ok)
	assert.Equal(t, "a# b2 c3", out)
}

func TestSubstitutionGlobal(t *testing.T) {
	var sink exception.Sink
	s, ok := NewSubstitution(`\d+`, Global, &sink)
	require.True(t, ok)

	out, ok := s.Replace("a1 b2 c3", "#", &sink)
	require.True(t, ok)
	assert.Equal(t, "a# b# c#", out)
}

func TestTransliterationRangeExpansion(t *testing.T) {
	tr := NewTransliteration("a-c", "A-C")
	assert.Equal(t, "ABC", tr.Apply("abc"))
	assert.Equal(t, "xyz", tr.Apply("xyz"), "unmapped characters pass through unchanged")
}

func TestTransliterationShortToPadsWithLastChar(t *testing.T) {
	tr := NewTransliteration("abc", "X")
	assert.Equal(t, "XXX", tr.Apply("abc"))
}

func TestTransliterationMixedLiteralAndRange(t *testing.T) {
	tr := NewTransliteration("a-cz", "1-3!")
	assert.Equal(t, "123!", tr.Apply("abcz"))
}
