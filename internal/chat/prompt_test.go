package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptUsesFrenchByDefault(t *testing.T) {
	p := buildPrompt("", nil, nil, "qui est impliqué ?")
	assert.Contains(t, p, systemRules["fr"])
	assert.Contains(t, p, "qui est impliqué ?")
}

func TestBuildPromptUsesEnglishWhenRequested(t *testing.T) {
	p := buildPrompt("en-US", nil, nil, "who is involved?")
	assert.Contains(t, p, systemRules["en"])
}

func TestBuildPromptTruncatesHistoryToLastTenTurns(t *testing.T) {
	var history []Turn
	for i := 0; i < 15; i++ {
		history = append(history, Turn{Role: RoleUser, Content: "turn"})
	}
	p := buildPrompt("en", history, nil, "question")
	assert.Equal(t, maxHistoryTurns, strings.Count(p, "user: turn"))
}

func TestBuildPromptLabelsContextsWithDocumentName(t *testing.T) {
	p := buildPrompt("fr", nil, []Context{{FileName: "rapport.pdf", Snippet: "extrait pertinent", Score: 0.8}}, "question")
	assert.Contains(t, p, "[Document: rapport.pdf]")
	assert.Contains(t, p, "extrait pertinent")
}

func TestRefusalSentenceFallsBackToFrenchForUnknownLocale(t *testing.T) {
	assert.Equal(t, refusalSentenceFR, refusalSentence("xx"))
	assert.Equal(t, refusalSentenceEN, refusalSentence("en"))
}
