package engine

import (
	"time"
)

// EventType captures lifecycle notifications emitted by the supervisor.
type EventType string

const (
	EventTypeProbed         EventType = "probed"
	EventTypeAlreadyRunning EventType = "already_running"
	EventTypeLaunched       EventType = "launched"
	EventTypeLaunchFailed   EventType = "launch_failed"
	EventTypeReady          EventType = "ready"
	EventTypeUnready        EventType = "unready"
	EventTypeExited         EventType = "exited"
	EventTypeShutdown       EventType = "shutdown"
	EventTypeKillFailed     EventType = "kill_failed"
)

// Trigger names the lifecycle event that requested a shutdown.
type Trigger string

const (
	TriggerMenuQuit        Trigger = "menu_quit"
	TriggerWindowDestroyed Trigger = "window_destroyed"
	TriggerAppExit         Trigger = "app_exit"
	// TriggerControl is a shutdown requested through the control API.
	TriggerControl Trigger = "control"
)

// Event represents a single lifecycle notification.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Trigger   Trigger
	Pid       int
	Command   string
	Message   string
	Err       error
}

// sendEvent never blocks; the event is dropped when the buffer is full.
func sendEvent(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case events <- ev:
	default:
	}
}
