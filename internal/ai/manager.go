package ai

import (
	"context"
	"fmt"
	"strings"
)

type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	model     string
}

func NewManager(generator IGenerator, embedder IEmbedder, model string) *Manager {
	return &Manager{generator: generator, embedder: embedder, model: model}
}

func (m *Manager) ModelName() string {
	return m.model
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return m.embedder.Embed(ctx, text, taskType)
}

// Answer conditions the generator on the retrieved chunks.
func (m *Manager) Answer(ctx context.Context, question string, contextChunks []string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	var sb strings.Builder
	sb.WriteString(`You are a personal knowledge assistant.
Answer the question using ONLY the context excerpts below.
If the context does not contain the answer, say so briefly.

CONTEXT:
`)
	for i, chunk := range contextChunks {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, chunk)
	}
	sb.WriteString("QUESTION:\n")
	sb.WriteString(question)
	return m.generator.Generate(ctx, sb.String())
}

// Summarize produces a short plain-text summary for a completed document.
func (m *Manager) Summarize(ctx context.Context, text string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	prompt := fmt.Sprintf(`Summarize the following document in 2-3 sentences.
Output ONLY the summary, no preamble.

DOCUMENT:
%s`, text)
	res, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res), nil
}

// ExtractKeywords returns a comma-separated keyword list for a document.
func (m *Manager) ExtractKeywords(ctx context.Context, text string, max int) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	prompt := fmt.Sprintf(`Extract at most %d short keywords from the document below.
Output ONLY the keywords as a single comma-separated line.

DOCUMENT:
%s`, max, text)
	res, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Trim(res, "\n`")), nil
}
