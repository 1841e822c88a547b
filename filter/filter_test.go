package filter

import (
	"testing"

	"github.com/geniusgordon/agentmux"
)

func collect(got *[]agentmux.Event) Handler {
	return func(ev agentmux.Event) {
		*got = append(*got, ev)
	}
}

func TestOnly(t *testing.T) {
	var got []agentmux.Event
	h := Only(collect(&got), agentmux.EventToolCall, agentmux.EventTurnEnded)

	h(agentmux.Event{Type: agentmux.EventMessageDelta})
	h(agentmux.Event{Type: agentmux.EventToolCall})
	h(agentmux.Event{Type: agentmux.EventPlan})
	h(agentmux.Event{Type: agentmux.EventTurnEnded})

	if len(got) != 2 || got[0].Type != agentmux.EventToolCall || got[1].Type != agentmux.EventTurnEnded {
		t.Errorf("got %+v", got)
	}
}

func TestCompleted_DropsDeltas(t *testing.T) {
	var got []agentmux.Event
	h := Completed(collect(&got))

	h(agentmux.Event{Type: agentmux.EventMessageDelta})
	h(agentmux.Event{Type: agentmux.EventThoughtDelta})
	h(agentmux.Event{Type: agentmux.EventToolCall})
	h(agentmux.Event{Type: agentmux.EventTurnEnded})

	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	for _, ev := range got {
		if IsDelta(ev.Type) {
			t.Errorf("delta passed: %+v", ev)
		}
	}
}

func TestSessionAndClient(t *testing.T) {
	var got []agentmux.Event
	h := Session(Client(collect(&got), "c1"), "s1")

	h(agentmux.Event{ClientID: "c1", SessionID: "s1"})
	h(agentmux.Event{ClientID: "c1", SessionID: "s2"})
	h(agentmux.Event{ClientID: "c2", SessionID: "s1"})

	if len(got) != 1 || got[0].ClientID != "c1" || got[0].SessionID != "s1" {
		t.Errorf("got %+v", got)
	}
}

func TestIsDelta(t *testing.T) {
	if !IsDelta(agentmux.EventMessageDelta) || !IsDelta(agentmux.EventThoughtDelta) {
		t.Error("delta types not recognized")
	}
	if IsDelta(agentmux.EventToolCall) || IsDelta(agentmux.EventTurnEnded) {
		t.Error("non-delta types recognized as delta")
	}
}
