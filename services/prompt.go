package services

import (
	_ "embed"
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

//go:embed data/system_prompt.tmpl
var systemPromptTemplate string

const userTurnTemplate = "Context (จากระเบียบการ):\n{{.Context}}\n\nUser Question:\n{{.Question}}"

// BuildSystemPrompt renders the fixed instruction with the registry list
// embedded. It only depends on the registry, so callers render it once.
func BuildSystemPrompt(registry *FormRegistry) (string, error) {
	tmpl := prompts.PromptTemplate{
		Template:       systemPromptTemplate,
		TemplateFormat: prompts.TemplateFormatGoTemplate,
		InputVariables: []string{"FormList"},
	}
	out, err := tmpl.Format(map[string]any{"FormList": registry.ListText()})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return out, nil
}

func buildUserTurn(contextText, question string) (string, error) {
	tmpl := prompts.NewPromptTemplate(userTurnTemplate, []string{"Context", "Question"})
	return tmpl.Format(map[string]any{"Context": contextText, "Question": question})
}
