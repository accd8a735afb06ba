// Package llm generates the final answer for general queries through
// an external chat-completion endpoint.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Apology is the fixed fallback when the completion call fails. The
// caller returns it verbatim and records no assistant turn.
const Apology = "Me fal, nuk mund te pergjigjem dot tani. Provo perseri pas pak."

type Generator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func New(client *openai.Client, model string) *Generator {
	return &Generator{client: client, model: model, timeout: 45 * time.Second}
}

// Complete sends the conversation to the chat-completion endpoint and
// returns the trimmed assistant message.
func (g *Generator) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("empty completion content")
	}
	return answer, nil
}
