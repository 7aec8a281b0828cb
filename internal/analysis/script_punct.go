package analysis

import (
	"strings"
	"unicode"
)

// ScriptPunctReport summarizes script and punctuation properties of a text.
type ScriptPunctReport struct {
	LangCode       string         `json:"lang_code,omitempty"`
	LangName       string         `json:"lang_name,omitempty"`
	DominantScript string         `json:"dominant_script"`
	Direction      string         `json:"direction"`
	Letters        int            `json:"letters"`
	Punctuation    map[string]int `json:"punctuation"`
	QuoteStyle     string         `json:"quote_style,omitempty"`
	Scripts        map[string]int `json:"scripts"`
}

var scriptTables = []struct {
	name  string
	table *unicode.RangeTable
}{
	{"Latin", unicode.Latin},
	{"Greek", unicode.Greek},
	{"Cyrillic", unicode.Cyrillic},
	{"Arabic", unicode.Arabic},
	{"Hebrew", unicode.Hebrew},
	{"Syriac", unicode.Syriac},
	{"Thaana", unicode.Thaana},
	{"Devanagari", unicode.Devanagari},
	{"Bengali", unicode.Bengali},
	{"Tamil", unicode.Tamil},
	{"Thai", unicode.Thai},
	{"Myanmar", unicode.Myanmar},
	{"Ethiopic", unicode.Ethiopic},
	{"Armenian", unicode.Armenian},
	{"Georgian", unicode.Georgian},
	{"Hangul", unicode.Hangul},
	{"Han", unicode.Han},
	{"Hiragana", unicode.Hiragana},
	{"Katakana", unicode.Katakana},
}

var rtlScripts = map[string]bool{
	"Arabic": true,
	"Hebrew": true,
	"Syriac": true,
	"Thaana": true,
}

// ScriptPunct profiles the dominant script, writing direction and
// punctuation style of text. It never fails: an empty or unrecognized input
// yields an empty report.
func ScriptPunct(text, langCode, langName string) ScriptPunctReport {
	report := ScriptPunctReport{
		LangCode:    strings.TrimSpace(langCode),
		LangName:    strings.TrimSpace(langName),
		Direction:   "ltr",
		Punctuation: make(map[string]int),
		Scripts:     make(map[string]int),
	}

	var (
		singleQuotes int
		doubleQuotes int
		angleQuotes  int
		curlyQuotes  int
	)

	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			report.Letters++
			if name, ok := scriptOf(r); ok {
				report.Scripts[name]++
			}
		case unicode.IsPunct(r):
			report.Punctuation[string(r)]++
			switch r {
			case '\'':
				singleQuotes++
			case '"':
				doubleQuotes++
			case '«', '»':
				angleQuotes++
			case '‘', '’', '“', '”':
				curlyQuotes++
			}
		}
	}

	best, bestCount := "", 0
	for name, count := range report.Scripts {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	report.DominantScript = best
	if rtlScripts[best] {
		report.Direction = "rtl"
	}

	switch {
	case angleQuotes > doubleQuotes && angleQuotes > curlyQuotes:
		report.QuoteStyle = "guillemets"
	case curlyQuotes > doubleQuotes:
		report.QuoteStyle = "curly"
	case doubleQuotes > 0 || singleQuotes > 0:
		report.QuoteStyle = "straight"
	}

	return report
}

func scriptOf(r rune) (string, bool) {
	for _, s := range scriptTables {
		if unicode.Is(s.table, r) {
			return s.name, true
		}
	}
	return "", false
}
