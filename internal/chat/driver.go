// Package chat orchestrates conversation turns: model output in, tool
// directives dispatched, results folded back, until the model answers in
// plain prose.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/odalmau/webmcp/internal/chat/model"
	"github.com/odalmau/webmcp/internal/extract"
	"github.com/odalmau/webmcp/internal/rpc"
)

// Engine produces model output for a conversation. The inference engine
// itself is a collaborator; the driver only needs its text.
type Engine interface {
	Generate(ctx context.Context, conv *model.Conversation) (string, error)
}

// Streamer is optionally implemented by engines that emit output in
// fragments. The driver then extracts directives incrementally.
type Streamer interface {
	Stream(ctx context.Context, conv *model.Conversation, fn func(fragment string)) error
}

// A turn aborts after this many generate/dispatch rounds.
const maxToolHops = 15

// Driver runs one user turn end to end. Directives within a turn are
// dispatched sequentially so later ones observe the side effects of
// earlier ones.
type Driver struct {
	engine Engine
	router *rpc.Router
	nextID atomic.Int64
}

func NewDriver(engine Engine, router *rpc.Router) *Driver {
	return &Driver{engine: engine, router: router}
}

// Turn appends userText to the conversation and loops the model until it
// produces an answer without directives. Tool failures are folded into
// the history and the turn continues; an unavailable router or engine is
// fatal.
func (d *Driver) Turn(ctx context.Context, conv *model.Conversation, userText string) (string, error) {
	if d.engine == nil {
		return "", errors.New("model engine is not initialized")
	}
	if strings.TrimSpace(userText) == "" {
		return "", errors.New("empty user message")
	}

	conv.Append(model.RoleUser, userText)

	for hop := 0; hop < maxToolHops; hop++ {
		out, directives, err := d.generate(ctx, conv)
		if err != nil {
			return "", fmt.Errorf("model generation failed: %w", err)
		}
		conv.Append(model.RoleAssistant, out)

		if len(directives) == 0 {
			return out, nil
		}

		for _, dir := range directives {
			text, err := d.dispatch(ctx, dir)
			if err != nil {
				return "", err
			}
			conv.Append(model.RoleTool, text)
		}
	}

	return "", errors.New("too many tool calls, unable to finish the turn")
}

func (d *Driver) generate(ctx context.Context, conv *model.Conversation) (string, []extract.Directive, error) {
	if streamer, ok := d.engine.(Streamer); ok {
		var sc extract.Scanner
		var full strings.Builder
		var directives []extract.Directive
		err := streamer.Stream(ctx, conv, func(fragment string) {
			full.WriteString(fragment)
			sc.Write(fragment)
			directives = append(directives, sc.Next()...)
		})
		if err != nil {
			return "", nil, err
		}
		return full.String(), directives, nil
	}

	out, err := d.engine.Generate(ctx, conv)
	if err != nil {
		return "", nil, err
	}
	return out, extract.All(out), nil
}

// dispatch sends one directive through the router and renders the outcome
// as conversation text. Business failures come back as text the model can
// react to; NotConnected is returned as an error and aborts the turn.
func (d *Driver) dispatch(ctx context.Context, dir extract.Directive) (string, error) {
	req := &rpc.Request{
		JSONRPC: rpc.Version,
		ID:      d.nextID.Add(1),
		Method:  rpc.MethodTool,
		Params:  rpc.RequestParams{Name: dir.Name, Params: dir.Params},
	}

	slog.InfoContext(ctx, "Dispatching tool call", "id", req.ID, "tool", dir.Name)
	resp := d.router.Send(ctx, req)

	if resp.ID != req.ID {
		return "", fmt.Errorf("response id %d does not match request id %d", resp.ID, req.ID)
	}

	if resp.Error != nil {
		if resp.Error.Kind() == rpc.KindNotConnected {
			return "", fmt.Errorf("tool router unavailable: %s", resp.Error.Message)
		}
		slog.InfoContext(ctx, "Tool call failed", "id", req.ID, "tool", dir.Name, "kind", resp.Error.Kind())
		return fmt.Sprintf("Tool %q failed: %s", dir.Name, resp.Error.Message), nil
	}

	var parts []string
	for _, c := range resp.Result.Contents {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
