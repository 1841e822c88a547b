package acp

import (
	"encoding/json"
	"testing"

	"github.com/geniusgordon/agentmux"
)

func TestParseSessionUpdate_MessageChunk(t *testing.T) {
	update := json.RawMessage(`{"sessionUpdate":"agent_message_chunk","content":{"type":"text","text":"hello"}}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if ev.Type != agentmux.EventMessageDelta || ev.Content != "hello" || ev.SessionID != "s1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseSessionUpdate_ThoughtChunk(t *testing.T) {
	update := json.RawMessage(`{"sessionUpdate":"agent_thought_chunk","content":{"type":"text","text":"hmm"}}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if ev.Type != agentmux.EventThoughtDelta || ev.Content != "hmm" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseSessionUpdate_ToolCall(t *testing.T) {
	update := json.RawMessage(`{
		"sessionUpdate":"tool_call",
		"toolCallId":"tc-1","title":"Read file","kind":"read","status":"pending",
		"rawInput":{"path":"main.go"}
	}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if ev.Type != agentmux.EventToolCall || ev.Tool == nil {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Tool.ID != "tc-1" || ev.Tool.Title != "Read file" || ev.Tool.Kind != "read" {
		t.Errorf("tool = %+v", ev.Tool)
	}
}

func TestParseSessionUpdate_ToolCallUpdate_PrefersContentText(t *testing.T) {
	update := json.RawMessage(`{
		"sessionUpdate":"tool_call_update",
		"toolCallId":"tc-1","status":"completed",
		"content":[{"content":{"type":"text","text":"file contents"}}],
		"rawOutput":{"ignored":true}
	}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if ev.Type != agentmux.EventToolCallUpdate || ev.Tool == nil {
		t.Fatalf("event = %+v", ev)
	}
	var text string
	if err := json.Unmarshal(ev.Tool.Output, &text); err != nil {
		t.Fatalf("output = %s: %v", ev.Tool.Output, err)
	}
	if text != "file contents" {
		t.Errorf("output text = %q", text)
	}
}

func TestParseSessionUpdate_ToolCallUpdate_FallsBackToRawOutput(t *testing.T) {
	update := json.RawMessage(`{
		"sessionUpdate":"tool_call_update",
		"toolCallId":"tc-1","status":"completed",
		"rawOutput":{"exitCode":0}
	}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if string(ev.Tool.Output) != `{"exitCode":0}` {
		t.Errorf("output = %s", ev.Tool.Output)
	}
}

func TestParseSessionUpdate_ToolCallUpdate_InProgressNoOutput(t *testing.T) {
	update := json.RawMessage(`{
		"sessionUpdate":"tool_call_update",
		"toolCallId":"tc-1","status":"in_progress",
		"rawOutput":{"partial":true}
	}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if ev.Tool.Output != nil {
		t.Errorf("output = %s, want none before completion", ev.Tool.Output)
	}
}

func TestParseSessionUpdate_Plan(t *testing.T) {
	update := json.RawMessage(`{
		"sessionUpdate":"plan",
		"entries":[
			{"content":"read the code","priority":"high","status":"pending"},
			{"content":"write the fix","priority":"high","status":"pending"}
		]
	}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if ev.Type != agentmux.EventPlan || ev.Content != "read the code\nwrite the fix" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseSessionUpdate_CurrentMode(t *testing.T) {
	update := json.RawMessage(`{"sessionUpdate":"current_mode_update","currentModeId":"architect"}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if ev.Type != agentmux.EventModeChange || ev.Content != "architect" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseSessionUpdate_AvailableCommands(t *testing.T) {
	update := json.RawMessage(`{
		"sessionUpdate":"available_commands_update",
		"availableCommands":[{"name":"web"},{"name":"plan"}]
	}`)
	ev, ok := ParseSessionUpdate("s1", update)
	if !ok {
		t.Fatal("update consumed")
	}
	if ev.Type != agentmux.EventCommandsUpdate || ev.Content != "web\nplan" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseSessionUpdate_ConsumedTypes(t *testing.T) {
	for _, typ := range []string{"user_message_chunk", "usage_update", "session_info_update", "config_option_update"} {
		update := json.RawMessage(`{"sessionUpdate":"` + typ + `"}`)
		if _, ok := ParseSessionUpdate("s1", update); ok {
			t.Errorf("%s: want consumed", typ)
		}
	}
}

func TestParseSessionUpdate_UnknownTypeConsumed(t *testing.T) {
	update := json.RawMessage(`{"sessionUpdate":"something_from_the_future","payload":123}`)
	if _, ok := ParseSessionUpdate("s1", update); ok {
		t.Error("unknown update type should be consumed")
	}
}

func TestParseSessionUpdate_Malformed(t *testing.T) {
	for _, raw := range []string{"", "{", `{"noDiscriminator":true}`} {
		ev, ok := ParseSessionUpdate("s1", json.RawMessage(raw))
		if !ok {
			t.Fatalf("%q: malformed update should surface an error event", raw)
		}
		if ev.Type != agentmux.EventError || ev.SessionID != "s1" {
			t.Errorf("%q: event = %+v", raw, ev)
		}
	}
}
