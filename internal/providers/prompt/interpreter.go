package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	interpretTimeout   = 30 * time.Second
	interpretMaxTokens = 1500
	interpretTemp      = 0.7
)

const interpretSystemPrompt = `Don't worry about formalities.
Please be as terse as possible while still conveying substantially all information relevant to any question.
Consider that you're talking to a student who might be clueless.

IMPORTANT: You must respond in JSON format with the following structure:
{
  "response": "Your helpful response to the user's query"
}`

// HistoryMessage is one prior turn of an interpretation conversation.
type HistoryMessage struct {
	IsUser  bool   `json:"is_user"`
	Content string `json:"content"`
}

// Interpreter answers free-form text requests through the same Groq model the
// enhancer uses. Unlike the enhancer, its failures surface to the caller.
type Interpreter struct {
	enhancer *GroqEnhancer
}

// NewInterpreter reuses an enhancer's configured client and model.
func NewInterpreter(enhancer *GroqEnhancer) *Interpreter {
	return &Interpreter{enhancer: enhancer}
}

// Interpret sends text plus conversation history to the model and returns
// the "response" field of its JSON answer.
func (i *Interpreter) Interpret(ctx context.Context, text string, history []HistoryMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, interpretTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: interpretSystemPrompt,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleAssistant
		if msg.IsUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	resp, err := i.enhancer.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       i.enhancer.model,
		MaxTokens:   interpretMaxTokens,
		Temperature: interpretTemp,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("prompt: groq call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("prompt: groq returned no choices")
	}

	var payload struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return "", fmt.Errorf("prompt: decode model output: %w", err)
	}
	if payload.Response == "" {
		return "", errors.New("prompt: model returned an empty response")
	}
	return payload.Response, nil
}
