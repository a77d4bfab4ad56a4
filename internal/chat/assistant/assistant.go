// Package assistant adapts an OpenAI chat model to the conversation
// driver's Engine interface. Tool use happens through the directive
// grammar, not the native function-calling API, so any model that can
// follow the prompt works, including locally-served ones behind an
// OpenAI-compatible endpoint.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odalmau/webmcp/internal/chat/model"
	"github.com/odalmau/webmcp/internal/tools"

	"github.com/openai/openai-go/v2"
)

type Assistant struct {
	cli      openai.Client
	registry *tools.Registry
}

func New(registry *tools.Registry) *Assistant {
	a := &Assistant{cli: openai.NewClient(), registry: registry}

	ts := registry.Tools()
	if len(ts) == 0 {
		slog.Warn("No tools registered, the assistant will answer from the model alone")
	} else {
		slog.Info("Tools registered", "count", len(ts))
		for _, t := range ts {
			slog.Info("Tool registered", "name", t.Name, "desc", t.Description)
		}
	}

	return a
}

// Title produces a short conversation title from the first user message.
func (a *Assistant) Title(ctx context.Context, conv *model.Conversation) (string, error) {
	if len(conv.Messages) == 0 {
		return "An empty conversation", nil
	}
	slog.InfoContext(ctx, "Generating title for conversation", "conversation_id", conv.ID)

	var firstUserMessage string
	for _, m := range conv.Messages {
		if m.Role == model.RoleUser && strings.TrimSpace(m.Content) != "" {
			firstUserMessage = m.Content
			break
		}
	}
	if firstUserMessage == "" {
		firstUserMessage = conv.Messages[0].Content
	}

	system := openai.SystemMessage(`You generate concise conversation titles.

	Rules:
	- Output ONLY a short noun phrase summarizing the user's first message.
	- Do NOT answer the question.
	- Do NOT include quotes.
	- Maximum 6 words.`)

	user := openai.UserMessage(firstUserMessage)

	resp, err := a.cli.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModelGPT4_1,
		Messages: []openai.ChatCompletionMessageParamUnion{system, user},
	})
	if err != nil || len(resp.Choices) == 0 {
		return "New conversation", nil
	}

	title := resp.Choices[0].Message.Content
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.Trim(title, " \t\r\n-\"'")

	if title == "" {
		return "New conversation", nil
	}
	if len(title) > 80 {
		title = title[:80]
	}
	return title, nil
}

// Generate implements chat.Engine. The driver owns the tool loop; each
// call produces one model completion over the current history.
func (a *Assistant) Generate(ctx context.Context, conv *model.Conversation) (string, error) {
	if len(conv.Messages) == 0 {
		return "", errors.New("conversation has no messages")
	}
	slog.InfoContext(ctx, "Generating reply for conversation", "conversation_id", conv.ID)

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(a.systemPrompt()),
	}
	for _, m := range conv.Messages {
		switch m.Role {
		case model.RoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case model.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case model.RoleTool:
			// Tool output travels back as user-visible context because the
			// directive grammar lives in plain text, outside the native
			// tool-calling channel.
			msgs = append(msgs, openai.UserMessage("Tool result:\n"+m.Content))
		}
	}

	resp, err := a.cli.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModelGPT4_1,
		Messages: msgs,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned by OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

func (a *Assistant) systemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are a helpful, concise AI assistant with access to a local tool router.

When a task needs a tool, reply with a directive in exactly this form:

<tool>TOOL_NAME</tool>
<params>{"key": "value"}</params>

The tool result will appear in the conversation as "Tool result:"; continue
from it. You may emit several directives in one reply; they run in order.
When no tool is needed, answer in plain prose with no directive tags.

Available tools:
`)
	for _, t := range a.registry.Tools() {
		schema, _ := json.Marshal(t.Schema)
		fmt.Fprintf(&b, "- %s: %s\n  parameters: %s\n", t.Name, t.Description, schema)
	}
	return b.String()
}
