package irc

import (
	"sort"
	"strings"
	"sync"
)

// A Handler is a function that is part of the irc event loop. Unless limited
// with On or When, it will receive all events.
type Handler func(event *Event, client *Client)

// A HandlerOption changes when and in which order a handler is called.
type HandlerOption func(entry *handlerEntry)

// On limits the handler to events by name, like `packet.privmsg`. A name
// like `ctcp.*` matches every event of that kind.
func On(names ...string) HandlerOption {
	return func(entry *handlerEntry) {
		entry.names = append(entry.names, names...)
	}
}

// Priority sets the handler's priority. Handlers with higher priority are
// called first, and handlers with the same priority are called in the order
// they were added. The default is 0.
func Priority(priority int) HandlerOption {
	return func(entry *handlerEntry) {
		entry.priority = priority
	}
}

// When adds a guard that must return true for the handler to be called.
// Several guards must all pass.
func When(guard func(event *Event) bool) HandlerOption {
	return func(entry *handlerEntry) {
		entry.guards = append(entry.guards, guard)
	}
}

type handlerEntry struct {
	id       int
	handler  Handler
	names    []string
	priority int
	guards   []func(event *Event) bool
}

func (entry *handlerEntry) matches(event *Event) bool {
	if len(entry.names) > 0 {
		found := false
		for _, name := range entry.names {
			if name == event.name || name == "*" || (strings.HasSuffix(name, ".*") && name[:len(name)-2] == event.kind) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, guard := range entry.guards {
		if !guard(event) {
			return false
		}
	}

	return true
}

type handlerTable struct {
	mutex   sync.RWMutex
	nextID  int
	entries []*handlerEntry
}

func (table *handlerTable) add(handler Handler, options ...HandlerOption) (remove func()) {
	entry := &handlerEntry{handler: handler}
	for _, option := range options {
		option(entry)
	}

	table.mutex.Lock()
	table.nextID++
	entry.id = table.nextID
	table.entries = append(table.entries, entry)
	sort.SliceStable(table.entries, func(i, j int) bool {
		return table.entries[i].priority > table.entries[j].priority
	})
	table.mutex.Unlock()

	return func() {
		table.remove(entry.id)
	}
}

func (table *handlerTable) remove(id int) {
	table.mutex.Lock()
	defer table.mutex.Unlock()

	for i, entry := range table.entries {
		if entry.id == id {
			table.entries = append(table.entries[:i:i], table.entries[i+1:]...)
			return
		}
	}
}

func (table *handlerTable) list() []*handlerEntry {
	table.mutex.RLock()
	defer table.mutex.RUnlock()

	return append([]*handlerEntry(nil), table.entries...)
}

// AddHandler adds a handler to the client. The returned function removes it
// again, and it's safe to call more than once. Handlers run on the client's
// event goroutine, one event at a time.
func (client *Client) AddHandler(handler Handler, options ...HandlerOption) (remove func()) {
	return client.handlers.add(handler, options...)
}

// dispatch calls the handlers in order until one of them kills the event. A
// handler that panics is reported and skipped.
func (client *Client) dispatch(event *Event) {
	for _, entry := range client.handlers.list() {
		if event.killed {
			break
		}
		if !entry.matches(event) {
			continue
		}

		client.callHandler(entry, event)
	}
}

func (client *Client) callHandler(entry *handlerEntry, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			err := &EventHandlerError{Event: event.name, Value: r}
			if event.kind == "error" {
				client.logger.Error().Err(err).Msg("Error handler panicked")
				return
			}

			client.reportError("handler", err)
		}
	}()

	entry.handler(event, client)
}
