package backends

import (
	"strings"
	"text/template"
)

// Instruction templates sent to LLM backends, one per task.
var prompts = template.Must(template.New("prompts").Parse(`
{{- define "translate" -}}
Instruction:
- Translate the following text from {{.Source}} to {{.Target}}.
- Do not output anything else.

Text:
{{.Text}}
{{end -}}

{{- define "summarize" -}}
Instruction:
- Summarize the following text.
- Do not output anything else.

Text:
{{.Text}}
{{end -}}

{{- define "answer_question" -}}
Instruction:
- Provide a definitive answer to the following question.
- Do not output anything else.

Question:
{{.Text}}
{{end -}}

{{- define "complete_sentence" -}}
Instruction:
- Complete the following sentence.
- Only output the completion.

Sentence:
{{.Text}}
{{end -}}

{{- define "complete_missing_word" -}}
Instruction:
- Output the most appropriate missing word out of the provided options.
- Only output the missing word.

Options:
{{range .Options}}- {{.}}
{{end}}
Sentence:
{{.Text}}
{{end -}}
`))

type promptData struct {
	Text    string
	Source  string
	Target  string
	Options []string
}

func renderPrompt(name string, data promptData) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
