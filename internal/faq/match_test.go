package faq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func answerOf(t *testing.T, idx int) string {
	t.Helper()
	entries := Default().Entries()
	require.Less(t, idx, len(entries))
	return entries[idx].Answer
}

func TestDefault_HasFiveEntries(t *testing.T) {
	require.Equal(t, 5, Default().Len())
}

func TestMatch_ExactQuestionReturnsOwnAnswer(t *testing.T) {
	for _, e := range Default().Entries() {
		variants := []string{
			e.Question,
			strings.TrimSuffix(e.Question, "?"),
			strings.ToUpper(e.Question),
			strings.ToLower(strings.TrimSuffix(e.Question, "?")),
		}
		for _, v := range variants {
			got, ok := Default().Match(v)
			require.True(t, ok, "message=%q", v)
			require.Equal(t, e.Answer, got, "message=%q", v)
		}
	}
}

func TestMatch_HowWorkAndHowUseAreDistinct(t *testing.T) {
	work, ok := Default().Match("How does this work?")
	require.True(t, ok)
	require.Equal(t, answerOf(t, 0), work)

	use, ok := Default().Match("how do I use this")
	require.True(t, ok)
	require.Equal(t, answerOf(t, 1), use)

	require.NotEqual(t, work, use)
}

func TestMatch_StatusKeyword(t *testing.T) {
	got, ok := Default().Match("what's my status")
	require.True(t, ok)
	require.Equal(t, answerOf(t, 3), got)

	got, ok = Default().Match("Any STATUS update for the pothole on 5th street?")
	require.True(t, ok)
	require.Equal(t, answerOf(t, 3), got)
}

func TestMatch_KeywordPairs(t *testing.T) {
	cases := []struct {
		name    string
		message string
		entry   int
	}{
		{name: "happening now", message: "anything happening right now with my report", entry: 2},
		{name: "not resolved", message: "my complaint was not resolved yet", entry: 4},
		{name: "reverse containment", message: "what is", entry: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Default().Match(tc.message)
			require.True(t, ok)
			require.Equal(t, answerOf(t, tc.entry), got)
		})
	}
}

func TestMatch_NoOverlap(t *testing.T) {
	_, ok := Default().Match("Where is the nearest hospital?")
	require.False(t, ok)
}

func TestMatch_EmptyAndWhitespace(t *testing.T) {
	for _, msg := range []string{"", " ", "\t\n  "} {
		_, ok := Default().Match(msg)
		require.False(t, ok, "message=%q", msg)
	}
}

func TestMatch_EntryMajorOrder(t *testing.T) {
	// Fires the {how, work} rule of entry 0 and the phrase rule of entry 1.
	msg := "how to use it to get my work done"
	got, ok := Default().Match(msg)
	require.True(t, ok)
	require.Equal(t, answerOf(t, 0), got)
}

func TestMatch_FirstListedWinsOnCustomStore(t *testing.T) {
	s := NewStore([]Entry{
		{Question: "What is the status of the road?", Answer: "first"},
		{Question: "What is the status of my request?", Answer: "second"},
	})
	got, ok := s.Match("status please")
	require.True(t, ok)
	require.Equal(t, "first", got)
}

func TestMatch_Idempotent(t *testing.T) {
	for _, msg := range []string{"how do I use this", "tell me a joke", "what's my status"} {
		a1, ok1 := Default().Match(msg)
		a2, ok2 := Default().Match(msg)
		require.Equal(t, ok1, ok2)
		require.Equal(t, a1, a2)
	}
}

func TestMatch_NilAndEmptyStore(t *testing.T) {
	var s *Store
	_, ok := s.Match("how does this work")
	require.False(t, ok)

	_, ok = (&Store{}).Match("how does this work")
	require.False(t, ok)
}

func TestEntries_ReturnsCopy(t *testing.T) {
	entries := Default().Entries()
	entries[0].Answer = "tampered"
	require.NotEqual(t, "tampered", Default().Entries()[0].Answer)
}

func TestNewStore_CopiesInput(t *testing.T) {
	in := []Entry{{Question: "Q?", Answer: "A"}}
	s := NewStore(in)
	in[0].Answer = "changed"
	require.Equal(t, "A", s.Entries()[0].Answer)
}
