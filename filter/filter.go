// Package filter provides composable handler middleware for filtering
// agentmux event streams. Consumers wrap the handler they pass to
// Manager.OnEvent to select the event granularity they need.
package filter

import (
	"strings"

	"github.com/geniusgordon/agentmux"
)

// Handler is an event callback. Declared as an alias so wrapped handlers
// remain assignable to manager.EventHandler and acp.EventSink.
type Handler = func(agentmux.Event)

// Only returns a handler that passes only events of the given types.
func Only(h Handler, types ...agentmux.EventType) Handler {
	allowed := make(map[agentmux.EventType]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return match(h, func(ev agentmux.Event) bool {
		_, ok := allowed[ev.Type]
		return ok
	})
}

// Completed returns a handler that drops all delta types, passing only
// complete events.
func Completed(h Handler) Handler {
	return match(h, func(ev agentmux.Event) bool {
		return !IsDelta(ev.Type)
	})
}

// Session returns a handler that passes only events for the given session.
func Session(h Handler, sessionID string) Handler {
	return match(h, func(ev agentmux.Event) bool {
		return ev.SessionID == sessionID
	})
}

// Client returns a handler that passes only events from the given client.
func Client(h Handler, clientID string) Handler {
	return match(h, func(ev agentmux.Event) bool {
		return ev.ClientID == clientID
	})
}

// IsDelta reports whether t is a streaming delta (partial) event type.
// Convention: all delta types use the "_delta" suffix, so new delta types
// need no switch update here.
func IsDelta(t agentmux.EventType) bool {
	return strings.HasSuffix(string(t), "_delta")
}

// match wraps h with a predicate.
func match(h Handler, accept func(agentmux.Event) bool) Handler {
	return func(ev agentmux.Event) {
		if accept(ev) {
			h(ev)
		}
	}
}
