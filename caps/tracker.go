// Package caps tracks IRCv3 capability negotiation. It only records state;
// deciding what to request and when to end negotiation is up to the client.
package caps

import (
	"sort"
	"strings"
	"sync"
)

// State is the negotiation state.
type State int

const (
	// Negotiating is the state from connection until CAP END is sent.
	Negotiating State = iota
	// NegotiationEnded is the state after CAP END. It does not go back until reset.
	NegotiationEnded
)

func (state State) String() string {
	if state == NegotiationEnded {
		return "negotiation-ended"
	}

	return "negotiating"
}

// A Change is a single entry in a CAP ACK, NAK, NEW, DEL or LIST line.
type Change struct {
	Name    string `json:"name"`
	Value   string `json:"value,omitempty"`
	Enabled bool   `json:"enabled"`
}

// ParseList parses a capability list like `multi-prefix -away-notify sasl=PLAIN`.
// A leading `-` marks a disabled entry. The deprecated `~` and `=` modifiers
// are stripped.
func ParseList(text string) []Change {
	tokens := strings.Fields(text)
	changes := make([]Change, 0, len(tokens))

	for _, token := range tokens {
		change := Change{Enabled: true}

		token = strings.TrimLeft(token, "~=")
		if strings.HasPrefix(token, "-") {
			change.Enabled = false
			token = token[1:]
		}

		change.Name, change.Value, _ = strings.Cut(token, "=")
		if change.Name == "" {
			continue
		}

		changes = append(changes, change)
	}

	return changes
}

// A Tracker keeps the supported and enabled capabilities of one connection.
type Tracker struct {
	mutex     sync.RWMutex
	state     State
	supported map[string]string
	enabled   map[string]string
}

// NewTracker creates a tracker in the Negotiating state.
func NewTracker() *Tracker {
	return &Tracker{
		supported: make(map[string]string, 16),
		enabled:   make(map[string]string, 16),
	}
}

// SetSupportedCapabilities replaces the supported set, as listed by CAP LS.
func (tracker *Tracker) SetSupportedCapabilities(changes []Change) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.supported = make(map[string]string, len(changes))
	for _, change := range changes {
		tracker.supported[change.Name] = change.Value
	}
}

// AddSupportedCapabilities adds to the supported set, as done by a multi-line
// CAP LS or CAP NEW.
func (tracker *Tracker) AddSupportedCapabilities(changes []Change) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	for _, change := range changes {
		tracker.supported[change.Name] = change.Value
	}
}

// RemoveSupportedCapabilities removes capabilities from both the supported and
// the enabled sets, as done by CAP DEL.
func (tracker *Tracker) RemoveSupportedCapabilities(names []string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	for _, name := range names {
		delete(tracker.supported, name)
		delete(tracker.enabled, name)
	}
}

// SetCapabilities replaces the enabled set, as listed by CAP LIST.
func (tracker *Tracker) SetCapabilities(changes []Change) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.enabled = make(map[string]string, len(changes))
	for _, change := range changes {
		if change.Enabled {
			tracker.enabled[change.Name] = tracker.supported[change.Name]
		}
	}
}

// UpdateCapabilities applies the result of a CAP ACK. Disabled entries are
// removed and enabled entries are added or replaced.
func (tracker *Tracker) UpdateCapabilities(changes []Change) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	for _, change := range changes {
		if change.Enabled {
			tracker.enabled[change.Name] = tracker.supported[change.Name]
		} else {
			delete(tracker.enabled, change.Name)
		}
	}
}

// IsNegotiating returns true until EndNegotiation is called.
func (tracker *Tracker) IsNegotiating() bool {
	tracker.mutex.RLock()
	defer tracker.mutex.RUnlock()

	return tracker.state == Negotiating
}

// EndNegotiation moves the tracker to NegotiationEnded. It returns false if
// it was already there.
func (tracker *Tracker) EndNegotiation() bool {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	if tracker.state == NegotiationEnded {
		return false
	}

	tracker.state = NegotiationEnded
	return true
}

// State gets the negotiation state.
func (tracker *Tracker) State() State {
	tracker.mutex.RLock()
	defer tracker.mutex.RUnlock()

	return tracker.state
}

// Enabled returns true if the capability has been acknowledged.
func (tracker *Tracker) Enabled(name string) bool {
	tracker.mutex.RLock()
	defer tracker.mutex.RUnlock()

	_, ok := tracker.enabled[name]
	return ok
}

// Supported gets the value the server listed the capability with, and whether
// it is listed at all.
func (tracker *Tracker) Supported(name string) (value string, ok bool) {
	tracker.mutex.RLock()
	defer tracker.mutex.RUnlock()

	value, ok = tracker.supported[name]
	return
}

// EnabledList gets the enabled capabilities, sorted.
func (tracker *Tracker) EnabledList() []string {
	tracker.mutex.RLock()
	defer tracker.mutex.RUnlock()

	return sortedKeys(tracker.enabled)
}

// SupportedList gets the supported capabilities, sorted.
func (tracker *Tracker) SupportedList() []string {
	tracker.mutex.RLock()
	defer tracker.mutex.RUnlock()

	return sortedKeys(tracker.supported)
}

// Missing returns the wanted capabilities that are supported but not yet
// enabled, in the order they are wanted.
func (tracker *Tracker) Missing(wanted []string) []string {
	tracker.mutex.RLock()
	defer tracker.mutex.RUnlock()

	result := make([]string, 0, len(wanted))
	for _, name := range wanted {
		if _, ok := tracker.supported[name]; !ok {
			continue
		}
		if _, ok := tracker.enabled[name]; ok {
			continue
		}

		result = append(result, name)
	}

	return result
}

// Reset clears everything and goes back to Negotiating.
func (tracker *Tracker) Reset() {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.state = Negotiating
	tracker.supported = make(map[string]string, 16)
	tracker.enabled = make(map[string]string, 16)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
