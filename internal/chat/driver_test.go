package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/odalmau/webmcp/internal/chat/model"
	"github.com/odalmau/webmcp/internal/rpc"
	"github.com/odalmau/webmcp/internal/tools"
)

// scriptedEngine returns its outputs one per Generate call.
type scriptedEngine struct {
	outputs []string
	calls   int
}

func (e *scriptedEngine) Generate(_ context.Context, _ *model.Conversation) (string, error) {
	if e.calls >= len(e.outputs) {
		return "I have nothing more to add.", nil
	}
	out := e.outputs[e.calls]
	e.calls++
	return out, nil
}

// streamedEngine emits each output in small fragments.
type streamedEngine struct {
	scriptedEngine
}

func (e *streamedEngine) Stream(_ context.Context, _ *model.Conversation, fn func(string)) error {
	if e.calls >= len(e.outputs) {
		fn("I have nothing more to add.")
		return nil
	}
	out := e.outputs[e.calls]
	e.calls++
	for len(out) > 0 {
		n := min(7, len(out))
		fn(out[:n])
		out = out[n:]
	}
	return nil
}

func startedRouter() *rpc.Router {
	router := rpc.NewRouter(tools.NewRegistry(nil))
	router.Start()
	return router
}

func TestDriver_TurnWithSingleToolCall(t *testing.T) {
	ctx := context.Background()

	engine := &scriptedEngine{outputs: []string{
		"Let me calculate that.\n<tool>calculate</tool>\n<params>{\"operation\": \"add\", \"a\": 5, \"b\": 3}</params>",
		"5 plus 3 is 8.",
	}}
	d := NewDriver(engine, startedRouter())

	conv := model.NewConversation()
	reply, err := d.Turn(ctx, conv, "What is 5 plus 3?")
	if err != nil {
		t.Fatalf("Turn() error: %v", err)
	}
	if !strings.Contains(reply, "8") {
		t.Errorf("reply %q does not contain the tool result", reply)
	}

	// History: user, assistant(directive), tool("8"), assistant(answer).
	roles := []model.Role{model.RoleUser, model.RoleAssistant, model.RoleTool, model.RoleAssistant}
	if len(conv.Messages) != len(roles) {
		t.Fatalf("history has %d messages, want %d", len(conv.Messages), len(roles))
	}
	for i, want := range roles {
		if conv.Messages[i].Role != want {
			t.Errorf("message %d role = %v, want %v", i, conv.Messages[i].Role, want)
		}
	}
	if conv.Messages[2].Content != "8" {
		t.Errorf("tool message = %q, want %q", conv.Messages[2].Content, "8")
	}
}

func TestDriver_PlainAnswerTerminatesImmediately(t *testing.T) {
	engine := &scriptedEngine{outputs: []string{"Nothing to compute: the answer is no."}}
	d := NewDriver(engine, startedRouter())

	reply, err := d.Turn(context.Background(), model.NewConversation(), "Is the moon made of cheese?")
	if err != nil {
		t.Fatalf("Turn() error: %v", err)
	}
	if reply != "Nothing to compute: the answer is no." {
		t.Errorf("reply = %q", reply)
	}
	if engine.calls != 1 {
		t.Errorf("engine called %d times, want 1", engine.calls)
	}
}

func TestDriver_ChainedCallsObserveEarlierSideEffects(t *testing.T) {
	engine := &scriptedEngine{outputs: []string{
		"<tool>storage-set</tool><params>{\"key\": \"city\", \"value\": \"Barcelona\"}</params>\n" +
			"<tool>storage-get</tool><params>{\"key\": \"city\"}</params>",
		"Stored and read back: Barcelona.",
	}}
	d := NewDriver(engine, startedRouter())

	conv := model.NewConversation()
	reply, err := d.Turn(context.Background(), conv, "Remember my city, then repeat it.")
	if err != nil {
		t.Fatalf("Turn() error: %v", err)
	}
	if !strings.Contains(reply, "Barcelona") {
		t.Errorf("reply = %q", reply)
	}

	var toolTexts []string
	for _, m := range conv.Messages {
		if m.Role == model.RoleTool {
			toolTexts = append(toolTexts, m.Content)
		}
	}
	if len(toolTexts) != 2 {
		t.Fatalf("expected 2 tool messages, got %v", toolTexts)
	}
	if toolTexts[0] != "Value stored successfully" {
		t.Errorf("first tool message = %q", toolTexts[0])
	}
	if toolTexts[1] != "Barcelona" {
		t.Errorf("second tool message = %q, want the value stored by the first call", toolTexts[1])
	}
}

func TestDriver_ToolErrorIsFoldedAndTurnContinues(t *testing.T) {
	engine := &scriptedEngine{outputs: []string{
		"<tool>calculate</tool><params>{\"operation\": \"divide\", \"a\": 1, \"b\": 0}</params>",
		"I cannot divide by zero, sorry.",
	}}
	d := NewDriver(engine, startedRouter())

	conv := model.NewConversation()
	reply, err := d.Turn(context.Background(), conv, "What is 1 / 0?")
	if err != nil {
		t.Fatalf("Turn() error: %v (tool errors must not be fatal)", err)
	}
	if reply != "I cannot divide by zero, sorry." {
		t.Errorf("reply = %q", reply)
	}

	var sawError bool
	for _, m := range conv.Messages {
		if m.Role == model.RoleTool && strings.Contains(m.Content, "failed") {
			sawError = true
		}
	}
	if !sawError {
		t.Error("tool error was not folded into the conversation history")
	}
}

func TestDriver_RouterNotStartedIsFatal(t *testing.T) {
	engine := &scriptedEngine{outputs: []string{
		"<tool>calculate</tool><params>{\"operation\": \"add\", \"a\": 1, \"b\": 2}</params>",
	}}
	router := rpc.NewRouter(tools.NewRegistry(nil)) // not started
	d := NewDriver(engine, router)

	_, err := d.Turn(context.Background(), model.NewConversation(), "What is 1 plus 2?")
	if err == nil {
		t.Fatal("expected a fatal error when the router is not connected")
	}
}

func TestDriver_NilEngineIsFatalBeforeDispatch(t *testing.T) {
	d := NewDriver(nil, startedRouter())
	_, err := d.Turn(context.Background(), model.NewConversation(), "hello")
	if err == nil {
		t.Fatal("expected error for uninitialized engine")
	}
}

func TestDriver_StreamingEngine(t *testing.T) {
	engine := &streamedEngine{scriptedEngine{outputs: []string{
		"Working on it. <tool>calculate</tool><params>{\"operation\": \"multiply\", \"a\": 6, \"b\": 7}</params>",
		"Six times seven is 42.",
	}}}
	d := NewDriver(engine, startedRouter())

	conv := model.NewConversation()
	reply, err := d.Turn(context.Background(), conv, "What is 6 times 7?")
	if err != nil {
		t.Fatalf("Turn() error: %v", err)
	}
	if !strings.Contains(reply, "42") {
		t.Errorf("reply = %q", reply)
	}

	var toolMsgs int
	for _, m := range conv.Messages {
		if m.Role == model.RoleTool {
			toolMsgs++
			if m.Content != "42" {
				t.Errorf("tool message = %q, want %q", m.Content, "42")
			}
		}
	}
	if toolMsgs != 1 {
		t.Errorf("directive dispatched %d times across stream fragments, want exactly once", toolMsgs)
	}
}

func TestDriver_RunawayToolLoopAborts(t *testing.T) {
	// An engine that always asks for another tool call never terminates on
	// its own; the driver must cap the turn.
	outputs := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		outputs = append(outputs, "<tool>calculate</tool><params>{\"operation\": \"add\", \"a\": 1, \"b\": 1}</params>")
	}
	d := NewDriver(&scriptedEngine{outputs: outputs}, startedRouter())

	_, err := d.Turn(context.Background(), model.NewConversation(), "loop forever")
	if err == nil {
		t.Fatal("expected the driver to abort a runaway tool loop")
	}
}
