package prompt

import (
	"fmt"
	"strings"
)

// QAPair couples one clarification question with the answer the user chose
// for it. Pairs are serialized into the final-synthesis prompt in the order
// they are provided.
type QAPair struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Templates holds the instruction preambles for the three prompt variants.
// Empty fields fall back to the built-in defaults, so a partial prompts.yaml
// override only replaces what it names.
type Templates struct {
	Fast             string `yaml:"fast"`
	ClarifyQuestions string `yaml:"clarify_questions"`
	ClarifyFinal     string `yaml:"clarify_final"`
}

const defaultFastTemplate = `You are an expert prompt engineer. Rewrite the user's raw idea below into ONE polished, self-contained instruction for a large language model.
Rules:
- Respond in the same language as the user's idea.
- Output ONLY the rewritten instruction, with no conversational wrapper, no preamble, and no explanation.
- If the idea is terse, expand it with reasonable, commonly expected detail; do not invent requirements that contradict it.`

const defaultClarifyQuestionsTemplate = `You are an expert prompt engineer. The user's raw idea below is ambiguous. Identify the 2-3 highest-level ambiguities and turn each into one multiple-choice question.
Rules:
- Produce 2 or 3 questions, each with 2-4 mutually exclusive options.
- Questions and options must be written in the same language as the user's idea.
- Every option needs a short label and a value phrased so it can be merged into a final instruction.`

const defaultClarifyFinalTemplate = `You are an expert prompt engineer. The user provided a raw idea and then answered clarification questions about it. Synthesize ONE final, cohesive, polished instruction for a large language model that incorporates every choice.
Rules:
- Respond in the same language as the user's idea.
- Output ONLY the final instruction, with no conversational wrapper and no explanation.`

// Default returns the built-in templates.
func Default() Templates {
	return Templates{
		Fast:             defaultFastTemplate,
		ClarifyQuestions: defaultClarifyQuestionsTemplate,
		ClarifyFinal:     defaultClarifyFinalTemplate,
	}
}

// merged returns t with empty fields replaced by the built-in defaults.
func (t Templates) merged() Templates {
	d := Default()
	if t.Fast == "" {
		t.Fast = d.Fast
	}
	if t.ClarifyQuestions == "" {
		t.ClarifyQuestions = d.ClarifyQuestions
	}
	if t.ClarifyFinal == "" {
		t.ClarifyFinal = d.ClarifyFinal
	}
	return t
}

// BuildFast builds the prompt for the single-shot fast transform: raw idea
// in, one polished instruction out.
func (t Templates) BuildFast(input string) string {
	t = t.merged()

	var b strings.Builder
	b.WriteString(t.Fast)
	b.WriteString("\n\nUser idea:\n")
	b.WriteString(input)
	return b.String()
}

// BuildClarifyQuestions builds the prompt for the question-generation step. It
// instructs the model to emit ONLY a JSON object matching the clarification
// question schema, so the response can be parsed without free text around it.
func (t Templates) BuildClarifyQuestions(input string) string {
	t = t.merged()

	var b strings.Builder
	b.WriteString(t.ClarifyQuestions)
	b.WriteString("\n\nUser idea:\n")
	b.WriteString(input)
	b.WriteString("\n\nRespond with ONLY a JSON object in exactly this format:\n")
	b.WriteString("{\n")
	b.WriteString("  \"questions\": [\n")
	b.WriteString("    {\n")
	b.WriteString("      \"id\": \"<short stable id>\",\n")
	b.WriteString("      \"text\": \"<the question>\",\n")
	b.WriteString("      \"options\": [\n")
	b.WriteString("        {\"id\": \"<short stable id>\", \"label\": \"<short label>\", \"value\": \"<phrase usable in the final instruction>\"}\n")
	b.WriteString("      ]\n")
	b.WriteString("    }\n")
	b.WriteString("  ]\n")
	b.WriteString("}\n")
	b.WriteString("Ensure the output is a single, valid JSON object and nothing else.")
	return b.String()
}

// BuildClarifyFinal builds the final-synthesis prompt: the raw idea plus
// the serialized question/choice listing.
func (t Templates) BuildClarifyFinal(input string, pairs []QAPair) string {
	t = t.merged()

	var b strings.Builder
	b.WriteString(t.ClarifyFinal)
	b.WriteString("\n\nUser idea:\n")
	b.WriteString(input)
	b.WriteString("\n\nThe user's clarification choices:\n")
	for i, p := range pairs {
		fmt.Fprintf(&b, "%d. Question: %s\n   Choice: %s\n", i+1, p.Question, p.Answer)
	}
	return b.String()
}
