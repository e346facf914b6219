package irctest

import (
	"sync"
	"time"

	"github.com/gissleh/irctrack"
)

// An EventLog is a handler that keeps copies of the events it gets, so they
// can be looked at after the client is done with them.
type EventLog struct {
	mutex  sync.Mutex
	events []irc.Event
}

// First gets the first event by name, like `packet.join`.
func (l *EventLog) First(name string) *irc.Event {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for i := range l.events {
		if l.events[i].Name() == name {
			e := l.events[i]
			return &e
		}
	}

	return nil
}

// Last gets the last event by name.
func (l *EventLog) Last(name string) *irc.Event {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Name() == name {
			e := l.events[i]
			return &e
		}
	}

	return nil
}

// Names gets the names of all events in order.
func (l *EventLog) Names() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	names := make([]string, 0, len(l.events))
	for i := range l.events {
		names = append(names, l.events[i].Name())
	}

	return names
}

// Wait waits for an event by name, and returns nil if it does not show up
// before the timeout.
func (l *EventLog) Wait(name string, timeout time.Duration) *irc.Event {
	deadline := time.Now().Add(timeout)
	for {
		if e := l.First(name); e != nil {
			return e
		}
		if time.Now().After(deadline) {
			return nil
		}

		time.Sleep(time.Millisecond * 10)
	}
}

// Handler is the irc.Handler to add to the client.
func (l *EventLog) Handler(event *irc.Event, _ *irc.Client) {
	l.mutex.Lock()
	l.events = append(l.events, *event)
	l.mutex.Unlock()
}
