package llmclient

import (
	"context"
	"fmt"

	sdk "github.com/openai/openai-go/v2"
)

func (c *Client) newParams(prompt string) sdk.ChatCompletionNewParams {
	return sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.model),
		Messages: []sdk.ChatCompletionMessageParamUnion{sdk.UserMessage(prompt)},
	}
}

// Generate sends prompt as a single user message and returns the full
// completion text (non-streaming path of §4.12 step 5).
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	comp, err := c.sdk.Chat.Completions.New(ctx, c.newParams(prompt))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(comp.Choices) == 0 {
		return "", fmt.Errorf("generation endpoint returned no choices")
	}
	return comp.Choices[0].Message.Content, nil
}

// OnToken receives each streamed token as it arrives. Returning an error
// aborts the stream (e.g. the client disconnected).
type OnToken func(token string) error

// GenerateStream streams tokens from the chat-completions endpoint,
// grounded on internal/llm/openai/client.go's ChatStream loop (stream.Next /
// stream.Current over the SDK's SSE decoder) but trimmed to plain content
// deltas since Archon's chat engine has no tool-calling path.
func (c *Client) GenerateStream(ctx context.Context, prompt string, onToken OnToken) error {
	stream := c.sdk.Chat.Completions.NewStreaming(ctx, c.newParams(prompt))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		token := chunk.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		if err := onToken(token); err != nil {
			return err
		}
	}
	return stream.Err()
}
