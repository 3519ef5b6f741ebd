package faq

import "strings"

// keywordRules fire when every keyword appears in both the message and the question.
var keywordRules = [][]string{
	{"how", "work"},
	{"how", "use"},
	{"status"},
	{"happening", "now"},
	{"not", "resolved"},
}

// Match returns the answer of the first entry whose phrase or keyword rules fire
// for message. Entries are checked in store order and all rules of an entry are
// evaluated before the next entry is considered.
func (s *Store) Match(message string) (string, bool) {
	if s == nil || strings.TrimSpace(message) == "" {
		return "", false
	}
	msg := strings.ToLower(message)
	for _, e := range s.entries {
		if entryMatches(msg, strings.ToLower(e.Question)) {
			return e.Answer, true
		}
	}
	return "", false
}

func entryMatches(msg, question string) bool {
	phrase := strings.TrimSuffix(question, "?")
	if phrase != "" && (strings.Contains(msg, phrase) || strings.Contains(phrase, msg)) {
		return true
	}
	for _, rule := range keywordRules {
		if containsAll(msg, rule) && containsAll(question, rule) {
			return true
		}
	}
	return false
}

func containsAll(s string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(s, k) {
			return false
		}
	}
	return true
}
