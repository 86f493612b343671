package connectivity

import (
	"testing"
)

func TestMonitorInitialState(t *testing.T) {
	if NewMonitor(true).IsOnline() != true {
		t.Error("Expected online monitor")
	}
	if NewMonitor(false).IsOnline() != false {
		t.Error("Expected offline monitor")
	}
}

func TestSetOnlineNotifiesOnTransition(t *testing.T) {
	m := NewMonitor(false)

	var events []State
	m.Subscribe(func(s State) { events = append(events, s) })

	m.SetOnline(true)
	m.SetOnline(false)

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if !events[0].Online || events[1].Online {
		t.Errorf("Unexpected transition sequence: %v", events)
	}
}

func TestRepeatedReportsAreIgnored(t *testing.T) {
	m := NewMonitor(false)

	count := 0
	m.Subscribe(func(State) { count++ })

	m.SetOnline(false)
	m.SetOnline(false)
	m.SetOnline(true)
	m.SetOnline(true)

	if count != 1 {
		t.Errorf("Expected 1 notification, got %d", count)
	}
	if !m.IsOnline() {
		t.Error("Monitor should be online")
	}
}

func TestUnsubscribe(t *testing.T) {
	m := NewMonitor(false)

	count := 0
	id := m.Subscribe(func(State) { count++ })
	m.Unsubscribe(id)

	m.SetOnline(true)
	if count != 0 {
		t.Errorf("Unsubscribed listener was called %d times", count)
	}
}
