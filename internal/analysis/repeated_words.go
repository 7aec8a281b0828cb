package analysis

import (
	"strings"
	"unicode"
)

// RepeatedWordsReport lists words that appear twice or more in a row.
type RepeatedWordsReport struct {
	Repeated []string       `json:"repeated"`
	Counts   map[string]int `json:"counts,omitempty"`
}

// RepeatedWords finds consecutive duplicated words, a common typo in
// translated text. Matching is case-insensitive and ignores punctuation
// attached to a word.
func RepeatedWords(text string) RepeatedWordsReport {
	report := RepeatedWordsReport{Repeated: []string{}}

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '-'
	})

	seen := make(map[string]bool)
	counts := make(map[string]int)
	prev := ""
	for _, w := range words {
		word := strings.ToLower(strings.Trim(w, "'-"))
		if word == "" {
			prev = ""
			continue
		}
		if word == prev {
			counts[word]++
			if !seen[word] {
				seen[word] = true
				report.Repeated = append(report.Repeated, word)
			}
		}
		prev = word
	}

	if len(counts) > 0 {
		report.Counts = counts
	}
	return report
}
