package chat

import (
	"fmt"
	"strings"
)

const maxHistoryTurns = 10

var systemRules = map[string]string{
	"fr": "Tu es un assistant d'investigation documentaire. Réponds uniquement à partir des extraits fournis ci-dessous. " +
		"Si les extraits ne suffisent pas pour répondre, dis-le explicitement plutôt que d'inventer une réponse. " +
		"Cite chaque affirmation avec sa source sous la forme [Document: <nom>].",
	"en": "You are a document investigation assistant. Answer only from the contexts provided below. " +
		"If the contexts are insufficient to answer, say so explicitly rather than inventing an answer. " +
		"Cite every claim with its source as [Document: <name>].",
}

// refusalSentence is returned verbatim when RAG retrieval finds zero
// contexts, per §4.12 step 2 ("emit a fixed refusal sentence and stop").
const refusalSentenceFR = "Je ne dispose pas d'assez d'informations dans les documents indexés pour répondre à cette question."
const refusalSentenceEN = "I don't have enough information in the indexed documents to answer that question."

func refusalSentence(locale string) string {
	if normalizeLocale(locale) == "en" {
		return refusalSentenceEN
	}
	return refusalSentenceFR
}

// normalizeLocale falls back to French when the locale is unrecognized,
// per the reranker/prompt locale handling decision recorded in DESIGN.md.
func normalizeLocale(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(l, "en") {
		return "en"
	}
	return "fr"
}

// buildPrompt assembles the system rules, trailing history, labelled
// contexts, and the user's question in that order (§4.12 step 4).
func buildPrompt(locale string, history []Turn, contexts []Context, question string) string {
	var b strings.Builder

	b.WriteString(systemRules[normalizeLocale(locale)])
	b.WriteString("\n\n")

	trimmed := history
	if len(trimmed) > maxHistoryTurns {
		trimmed = trimmed[len(trimmed)-maxHistoryTurns:]
	}
	if len(trimmed) > 0 {
		b.WriteString("Conversation:\n")
		for _, t := range trimmed {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	}

	if len(contexts) > 0 {
		b.WriteString("Contexts:\n")
		for _, c := range contexts {
			fmt.Fprintf(&b, "[Document: %s] (relevance %.2f)\n%s\n\n", c.FileName, c.Score, c.Snippet)
		}
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
