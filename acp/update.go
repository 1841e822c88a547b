// update.go maps ACP session/update notifications to agentmux.Event values.
//
// ACP session/update notifications arrive as a two-level envelope:
//
//	outer: {"sessionId":"...", "update": <inner>}
//	inner: {"sessionUpdate":"agent_message_chunk", "content":{...}}
//
// The Client unpacks the outer sessionNotification and hands the inner object
// to the adapter's NormalizeEvent, which for standard-conformant vendors is
// ParseSessionUpdate below. Dispatch is a map keyed on the "sessionUpdate"
// discriminator; adding an update type = one map entry + one function.
package acp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/geniusgordon/agentmux"
	"github.com/geniusgordon/agentmux/internal/textutil"
)

// updateParser converts a raw session update into an Event.
// Returns false to indicate the update should be silently consumed.
type updateParser func(update json.RawMessage) (agentmux.Event, bool)

// updateParsers dispatches sessionUpdate discriminator values to their parsers.
var updateParsers = map[string]updateParser{
	"agent_message_chunk":       contentChunkParser(agentmux.EventMessageDelta),
	"agent_thought_chunk":       contentChunkParser(agentmux.EventThoughtDelta),
	"tool_call":                 parseToolCall,
	"tool_call_update":          parseToolCallUpdate,
	"plan":                      parsePlan,
	"current_mode_update":       parseCurrentModeUpdate,
	"available_commands_update": parseAvailableCommandsUpdate,
	"user_message_chunk":        consumeUpdate,
	"usage_update":              consumeUpdate,
	"session_info_update":       consumeUpdate,
	"config_option_update":      consumeUpdate,
}

// ParseSessionUpdate maps an ACP session/update inner payload to an Event.
// Returns false for updates that are silently consumed. Unknown discriminator
// values are consumed too, for forward compatibility with newer agents.
func ParseSessionUpdate(sessionID string, update json.RawMessage) (agentmux.Event, bool) {
	var header sessionUpdateHeader
	if len(update) == 0 || json.Unmarshal(update, &header) != nil || header.SessionUpdate == "" {
		return agentmux.Event{
			Type:      agentmux.EventError,
			SessionID: sessionID,
			Content:   "acp: malformed session update",
			Timestamp: time.Now(),
		}, true
	}

	parser, ok := updateParsers[header.SessionUpdate]
	if !ok {
		return agentmux.Event{}, false
	}

	ev, ok := parser(update)
	if !ok {
		return agentmux.Event{}, false
	}
	ev.SessionID = sessionID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return ev, true
}

// consumeUpdate silently drops an update the taxonomy does not surface.
func consumeUpdate(json.RawMessage) (agentmux.Event, bool) {
	return agentmux.Event{}, false
}

// unmarshalError produces an error event for a failed unmarshal in a parser.
func unmarshalError(updateType string, err error) (agentmux.Event, bool) {
	return agentmux.Event{
		Type:    agentmux.EventError,
		Content: textutil.Truncate(fmt.Sprintf("acp: unmarshal %s: %v", updateType, err)),
	}, true
}

// --- Content chunks ---

// contentChunkParser returns an updateParser that extracts content.text.
func contentChunkParser(et agentmux.EventType) updateParser {
	return func(update json.RawMessage) (agentmux.Event, bool) {
		var d struct {
			Content struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(update, &d); err != nil {
			return unmarshalError("content_chunk", err)
		}
		return agentmux.Event{Type: et, Content: d.Content.Text}, true
	}
}

// --- Tool events ---

func parseToolCall(update json.RawMessage) (agentmux.Event, bool) {
	var d toolCallUpdate
	if err := json.Unmarshal(update, &d); err != nil {
		return unmarshalError("tool_call", err)
	}
	return agentmux.Event{
		Type: agentmux.EventToolCall,
		Tool: &agentmux.ToolCall{
			ID:     d.ToolCallID,
			Title:  d.Title,
			Kind:   d.Kind,
			Status: d.Status,
			Input:  d.RawInput,
		},
	}, true
}

func parseToolCallUpdate(update json.RawMessage) (agentmux.Event, bool) {
	var d toolCallUpdate
	if err := json.Unmarshal(update, &d); err != nil {
		return unmarshalError("tool_call_update", err)
	}
	ev := agentmux.Event{
		Type: agentmux.EventToolCallUpdate,
		Tool: &agentmux.ToolCall{
			ID:     d.ToolCallID,
			Title:  d.Title,
			Kind:   d.Kind,
			Status: d.Status,
		},
	}
	if d.Status == "completed" {
		ev.Tool.Output = extractToolOutput(d)
	}
	return ev, true
}

// extractToolOutput gets the output from a completed tool call,
// preferring structured content text over rawOutput.
// Falls through to rawOutput if content is absent, unparseable, or empty.
func extractToolOutput(d toolCallUpdate) json.RawMessage {
	if text := extractContentText(d.Content); text != "" {
		b, _ := json.Marshal(text) // json.Marshal(string) cannot fail
		return b
	}
	if len(d.RawOutput) > 0 {
		return d.RawOutput
	}
	return nil
}

// extractContentText parses the ACP content block array and returns the
// first text value, or "" if the array is absent/empty/unparseable.
func extractContentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var blocks []struct {
		Content struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil || len(blocks) == 0 {
		return ""
	}
	return blocks[0].Content.Text
}

// --- Plan ---

func parsePlan(update json.RawMessage) (agentmux.Event, bool) {
	var d struct {
		Entries []struct {
			Content  string `json:"content"`
			Priority string `json:"priority"`
			Status   string `json:"status"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(update, &d); err != nil {
		return unmarshalError("plan", err)
	}
	var b strings.Builder
	for i, e := range d.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Content)
	}
	return agentmux.Event{Type: agentmux.EventPlan, Content: b.String()}, true
}

// --- Status/metadata events ---

func parseCurrentModeUpdate(update json.RawMessage) (agentmux.Event, bool) {
	var d struct {
		CurrentModeID string `json:"currentModeId"`
	}
	if err := json.Unmarshal(update, &d); err != nil {
		return unmarshalError("current_mode_update", err)
	}
	return agentmux.Event{Type: agentmux.EventModeChange, Content: d.CurrentModeID}, true
}

func parseAvailableCommandsUpdate(update json.RawMessage) (agentmux.Event, bool) {
	var d struct {
		AvailableCommands []struct {
			Name string `json:"name"`
		} `json:"availableCommands"`
	}
	if err := json.Unmarshal(update, &d); err != nil {
		return unmarshalError("available_commands_update", err)
	}
	names := make([]string, 0, len(d.AvailableCommands))
	for _, c := range d.AvailableCommands {
		names = append(names, c.Name)
	}
	return agentmux.Event{Type: agentmux.EventCommandsUpdate, Content: strings.Join(names, "\n")}, true
}
