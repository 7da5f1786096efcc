// Package translator implements the text translation capability the format
// handlers call per text unit. It owns the prompt construction; the LLM
// behind it is opaque.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"doctrans/internal/language"
	"doctrans/internal/llm"
)

const systemPrompt = `You are a highly skilled professional translator.
You are a native speaker of English, Japanese and Chinese.
Translate the given text accurately, taking into account the context and specific instructions provided.
When translating, you MUST strictly adhere to the rules below:
1. If no additional instructions or context are provided, use your expertise to consider what the most appropriate context is and provide a natural translation that aligns with that context.
2. Strive to faithfully reflect the meaning and tone of the original text, pay attention to cultural nuances and differences in language usage, and ensure that the translation is grammatically correct and easy to read.
3. You MUST always translate the terms from the provided Keywords Map into the target language exactly as specified, preserving their original context and nuance.
4. Do not translate URLs or their parameters. A URL is any string starting with http://, https://, or www., including query parameters. The entire URL MUST remain unchanged.
5. Provide the answer ONLY. DO NOT explain.
6. If no text for translation is provided, DO NOT output anything.`

// Trivial inputs pass through without an LLM call: the empty string and the
// dash glyphs commonly used as placeholder cell content.
var passthrough = map[string]bool{
	"-": true,
	"ー": true,
	"‐": true,
}

// TextTranslator translates single text units between a fixed language pair.
type TextTranslator struct {
	source      language.Language
	target      language.Language
	keywordsMap map[string]string
	client      llm.Client
}

// New creates a TextTranslator for the given pair. keywordsMap may be nil.
func New(client llm.Client, source, target language.Language, keywordsMap map[string]string) *TextTranslator {
	if keywordsMap == nil {
		keywordsMap = map[string]string{}
	}
	return &TextTranslator{
		source:      source,
		target:      target,
		keywordsMap: keywordsMap,
		client:      client,
	}
}

// Translate returns the translation of text.
// Empty input returns ""; placeholder glyphs return unchanged.
func (t *TextTranslator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if passthrough[text] {
		return text, nil
	}

	user, err := t.buildUserPrompt(text)
	if err != nil {
		return "", err
	}
	return t.client.Complete(ctx, systemPrompt, user)
}

func (t *TextTranslator) buildUserPrompt(text string) (string, error) {
	keywords, err := json.Marshal(t.keywordsMap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal keywords map: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Keywords Map: %s\n\n", keywords)
	fmt.Fprintf(&b, "Instruction: Translate %s to %s.\n", t.source, t.target)
	fmt.Fprintf(&b, "Input text: %s\n", text)
	return b.String(), nil
}
