package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/dkoutsos/lexroom/internal/analysis"
)

// ScriptPunctArgs is the argument shape for the script/punctuation tool.
type ScriptPunctArgs struct {
	InputString string `json:"input_string" jsonschema:"description=Input text string to analyze"`
	LangCode    string `json:"lang_code,omitempty" jsonschema:"description=ISO 639 language code of the input text"`
	LangName    string `json:"lang_name,omitempty" jsonschema:"description=Language name of the input text"`
}

// RepeatedWordsArgs is the argument shape for the repeated-word tool.
type RepeatedWordsArgs struct {
	Text string `json:"text" jsonschema:"description=Text to scan for consecutive repeated words"`
}

// Builtin returns the text-analysis tools the server advertises.
func Builtin() []Tool {
	return []Tool{
		New("analyze_script_punct",
			"Analyze script direction and punctuation style of an input text string.",
			func(_ context.Context, args ScriptPunctArgs) (any, error) {
				if strings.TrimSpace(args.InputString) == "" {
					return nil, errors.New("input_string must not be empty")
				}
				return analysis.ScriptPunct(args.InputString, args.LangCode, args.LangName), nil
			}),
		New("repeated_words",
			"Find consecutive repeated words in a text, a common translation typo.",
			func(_ context.Context, args RepeatedWordsArgs) (any, error) {
				return analysis.RepeatedWords(args.Text), nil
			}),
	}
}
