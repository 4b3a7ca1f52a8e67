package prompt

import (
	"strings"
	"testing"
)

func TestFast(t *testing.T) {
	input := "write a blog post about Go generics"
	p := Default().BuildFast(input)

	if !strings.Contains(p, input) {
		t.Errorf("Prompt does not contain user input: %q", input)
	}
	if !strings.Contains(p, "same language") {
		t.Errorf("Prompt does not carry the same-language instruction")
	}
	if !strings.Contains(p, "no conversational wrapper") {
		t.Errorf("Prompt does not forbid conversational wrappers")
	}
}

func TestClarifyQuestions(t *testing.T) {
	input := "make me a website"
	p := Default().BuildClarifyQuestions(input)

	if !strings.Contains(p, input) {
		t.Errorf("Prompt does not contain user input: %q", input)
	}

	// The schema keys the parser depends on must all be requested.
	for _, key := range []string{"questions", "id", "text", "options", "label", "value"} {
		keyCheck := `"` + key + `"`
		if !strings.Contains(p, keyCheck) {
			t.Errorf("Prompt does not request JSON key %s", keyCheck)
		}
	}
	if !strings.Contains(p, "single, valid JSON object") {
		t.Errorf("Prompt does not pin the output to a single JSON object")
	}
}

func TestClarifyFinal(t *testing.T) {
	input := "write a short story"
	pairs := []QAPair{
		{Question: "What genre?", Answer: "science fiction"},
		{Question: "What length?", Answer: "under 1000 words"},
	}
	p := Default().BuildClarifyFinal(input, pairs)

	if !strings.Contains(p, input) {
		t.Errorf("Prompt does not contain user input: %q", input)
	}
	for _, pair := range pairs {
		if !strings.Contains(p, pair.Question) {
			t.Errorf("Prompt does not contain question: %q", pair.Question)
		}
		if !strings.Contains(p, pair.Answer) {
			t.Errorf("Prompt does not contain answer: %q", pair.Answer)
		}
	}

	// Choices must appear in the order they were given.
	if strings.Index(p, pairs[0].Question) > strings.Index(p, pairs[1].Question) {
		t.Errorf("Question/choice listing is not in input order")
	}
}

func TestTemplateOverrides(t *testing.T) {
	custom := Templates{Fast: "Custom fast preamble."}

	// The preamble fields stay plain assignable strings alongside the
	// builder methods.
	custom.ClarifyFinal = "Custom final preamble."
	if custom.Fast != "Custom fast preamble." {
		t.Errorf("Fast field did not retain its assigned value")
	}

	fast := custom.BuildFast("idea")
	if !strings.Contains(fast, "Custom fast preamble.") {
		t.Errorf("Override for fast template was not applied")
	}

	final := custom.BuildClarifyFinal("idea", nil)
	if !strings.Contains(final, "Custom final preamble.") {
		t.Errorf("Override for clarify_final template was not applied")
	}

	// Fields left empty fall back to the built-in defaults.
	questions := custom.BuildClarifyQuestions("idea")
	if !strings.Contains(questions, "multiple-choice") {
		t.Errorf("Empty clarify_questions override did not fall back to the default template")
	}
}
