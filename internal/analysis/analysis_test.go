package analysis

import (
	"reflect"
	"testing"
)

func TestScriptPunctLatin(t *testing.T) {
	report := ScriptPunct(`He said "hello", then left.`, "en", "English")

	if report.DominantScript != "Latin" {
		t.Fatalf("DominantScript = %q, want %q", report.DominantScript, "Latin")
	}
	if report.Direction != "ltr" {
		t.Fatalf("Direction = %q, want %q", report.Direction, "ltr")
	}
	if report.QuoteStyle != "straight" {
		t.Fatalf("QuoteStyle = %q, want %q", report.QuoteStyle, "straight")
	}
	if report.Punctuation[","] != 2 {
		t.Fatalf("comma count = %d, want 2", report.Punctuation[","])
	}
	if report.LangCode != "en" || report.LangName != "English" {
		t.Fatalf("language echo = (%q, %q), want (en, English)", report.LangCode, report.LangName)
	}
}

func TestScriptPunctArabicIsRTL(t *testing.T) {
	report := ScriptPunct("مرحبا بالعالم", "ar", "Arabic")
	if report.DominantScript != "Arabic" {
		t.Fatalf("DominantScript = %q, want %q", report.DominantScript, "Arabic")
	}
	if report.Direction != "rtl" {
		t.Fatalf("Direction = %q, want %q", report.Direction, "rtl")
	}
}

func TestScriptPunctGuillemets(t *testing.T) {
	report := ScriptPunct("Il a dit « bonjour » et « merci »", "fr", "French")
	if report.QuoteStyle != "guillemets" {
		t.Fatalf("QuoteStyle = %q, want %q", report.QuoteStyle, "guillemets")
	}
}

func TestScriptPunctEmptyInput(t *testing.T) {
	report := ScriptPunct("", "", "")
	if report.Letters != 0 {
		t.Fatalf("Letters = %d, want 0", report.Letters)
	}
	if report.DominantScript != "" {
		t.Fatalf("DominantScript = %q, want empty", report.DominantScript)
	}
	if report.Direction != "ltr" {
		t.Fatalf("Direction = %q, want %q", report.Direction, "ltr")
	}
}

func TestScriptPunctMixedScripts(t *testing.T) {
	report := ScriptPunct("hello мир", "", "")
	if report.Scripts["Latin"] != 5 {
		t.Fatalf("Latin count = %d, want 5", report.Scripts["Latin"])
	}
	if report.Scripts["Cyrillic"] != 3 {
		t.Fatalf("Cyrillic count = %d, want 3", report.Scripts["Cyrillic"])
	}
	if report.DominantScript != "Latin" {
		t.Fatalf("DominantScript = %q, want %q", report.DominantScript, "Latin")
	}
}

func TestRepeatedWordsFindsConsecutiveDuplicates(t *testing.T) {
	report := RepeatedWords("The the cat sat on the mat mat.")
	if !reflect.DeepEqual(report.Repeated, []string{"the", "mat"}) {
		t.Fatalf("Repeated = %v, want [the mat]", report.Repeated)
	}
	if report.Counts["the"] != 1 || report.Counts["mat"] != 1 {
		t.Fatalf("Counts = %v, want the:1 mat:1", report.Counts)
	}
}

func TestRepeatedWordsCaseInsensitive(t *testing.T) {
	report := RepeatedWords("Very VERY good")
	if !reflect.DeepEqual(report.Repeated, []string{"very"}) {
		t.Fatalf("Repeated = %v, want [very]", report.Repeated)
	}
}

func TestRepeatedWordsNone(t *testing.T) {
	report := RepeatedWords("all words here are distinct")
	if len(report.Repeated) != 0 {
		t.Fatalf("Repeated = %v, want empty", report.Repeated)
	}
	if report.Counts != nil {
		t.Fatalf("Counts = %v, want nil", report.Counts)
	}
}

func TestRepeatedWordsIgnoresPunctuationBetween(t *testing.T) {
	// Words split by punctuation still count as adjacent.
	report := RepeatedWords("wait, wait! what")
	if !reflect.DeepEqual(report.Repeated, []string{"wait"}) {
		t.Fatalf("Repeated = %v, want [wait]", report.Repeated)
	}
}
