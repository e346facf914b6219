package irc

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gissleh/irctrack/ircutil"
	"github.com/gissleh/irctrack/state"
)

// An Event is any thing that passes through the irc client's event loop. It's not thread safe, because it's processed
// in sequence and should not be used off the goroutine that processed it.
type Event struct {
	kind string
	verb string
	name string

	Time   time.Time
	Source string
	Nick   string
	User   string
	Host   string
	Args   []string
	Text   string
	Tags   map[string]string

	// RenderTags are hints for whatever shows the event, like the sender's
	// prefixed nick in a channel.
	RenderTags map[string]string

	// Numeric is the reply number of numeric packets.
	Numeric int

	// Target is the name of the channel or the nick of the conversation the
	// event belongs to, if any.
	Target string

	// Actor is what the event's source resolved to.
	Actor state.Actor

	// Channel is a snapshot of the channel the event concerns, taken after
	// the event was applied.
	Channel *state.Channel

	// Subject is a snapshot of the user the event is about. For PART, KICK
	// and QUIT it is taken before the user was removed.
	Subject *state.User

	// Modes are the parsed changes of a MODE event.
	Modes []state.ModeStatus

	// Whois is set on client.whois events.
	Whois *WhoisData

	// Err is set on error events.
	Err error

	ctx    context.Context
	cancel context.CancelFunc
	killed bool
	hidden bool
}

// WhoisData is the collected reply to a WHOIS.
type WhoisData struct {
	Nick        string        `json:"nick"`
	User        string        `json:"user"`
	Host        string        `json:"host"`
	RealName    string        `json:"realName"`
	Server      string        `json:"server,omitempty"`
	ServerInfo  string        `json:"serverInfo,omitempty"`
	Account     string        `json:"account,omitempty"`
	Operator    string        `json:"operator,omitempty"`
	Away        bool          `json:"away"`
	AwayMessage string        `json:"awayMessage,omitempty"`
	Secure      bool          `json:"secure"`
	Idle        time.Duration `json:"idle,omitempty"`
	SignOn      time.Time     `json:"signOn,omitempty"`
	Channels    []string      `json:"channels,omitempty"`
}

// NewEvent makes a new event with Kind, Verb, Time set and Args and Tags initialized.
func NewEvent(kind, verb string) Event {
	return Event{
		kind: kind,
		verb: verb,
		name: kind + "." + strings.ToLower(verb),

		Time:       time.Now(),
		Args:       make([]string, 0, 4),
		Tags:       make(map[string]string),
		RenderTags: make(map[string]string),
	}
}

// NewPacketEvent makes an event of kind `packet` from a parsed line. A PRIVMSG
// or NOTICE carrying a CTCP message becomes a `ctcp` or `ctcp-reply` event
// with the CTCP command as the verb and its arguments as the text.
//
// Args are all the parameters. Text is the trailing parameter, or the message
// of a PRIVMSG or NOTICE.
func NewPacketEvent(packet Packet) Event {
	event := NewEvent("packet", packet.Command)
	event.Source = packet.Source
	event.Args = append(event.Args, packet.Params...)
	event.Numeric, _ = packet.Numeric()

	for _, tag := range packet.Tags {
		event.Tags[tag.Name] = tag.Value
	}

	if nick, user, host, ok := state.SplitMask(packet.Source); ok {
		event.Nick = nick
		event.User = user
		event.Host = host
	} else {
		event.Nick = packet.Source
	}

	isMessage := packet.Command == "PRIVMSG" || packet.Command == "NOTICE"
	if len(packet.Params) > 0 && (packet.Trailing || (isMessage && len(packet.Params) > 1)) {
		event.Text = packet.Params[len(packet.Params)-1]
	}

	if isMessage {
		if verb, args, ok := ircutil.ParseCTCP(event.Text); ok {
			event.kind = "ctcp"
			if packet.Command == "NOTICE" {
				event.kind = "ctcp-reply"
			}

			event.verb = verb
			event.name = event.kind + "." + strings.ToLower(verb)
			event.Text = args
		}
	}

	return event
}

// NewErrorEvent makes an event of kind `error` and verb `code` with the text.
// It's absolutely trivial, but it's good to have standarized.
func NewErrorEvent(code, text string, err error) Event {
	event := NewEvent("error", code)
	event.Text = text
	event.Err = err

	if err != nil {
		event.Tags["raw"] = err.Error()
	}

	return event
}

// Kind gets the event's kind
func (event *Event) Kind() string {
	return event.kind
}

// Verb gets the event's verb
func (event *Event) Verb() string {
	return event.verb
}

// Name gets the event name, which is Kind and Verb separated by a dot.
func (event *Event) Name() string {
	return event.name
}

// IsEither returns true if the event has the kind and one of the verbs.
func (event *Event) IsEither(kind string, verbs ...string) bool {
	if event.kind != kind {
		return false
	}

	for i := range verbs {
		if strings.EqualFold(event.verb, verbs[i]) {
			return true
		}
	}

	return false
}

// Arg gets the argument by index, or an empty string if it's out of range.
func (event *Event) Arg(index int) string {
	if index < 0 || index >= len(event.Args) {
		return ""
	}

	return event.Args[index]
}

// Context gets the event's context if it's part of the loop, or `context.Background` otherwise. client.Emit
// will set this context on its copy and return it.
func (event *Event) Context() context.Context {
	if event.ctx == nil {
		return context.Background()
	}

	return event.ctx
}

// Kill stops propagation of the event. The context will be killed once
// the current event handler returns.
func (event *Event) Kill() {
	event.killed = true
}

// Killed returns true if Kill has been called.
func (event *Event) Killed() bool {
	return event.killed
}

// Hide will not stop propagation, but it will allow output handlers to know not to
// render it.
func (event *Event) Hide() {
	event.hidden = true
}

// Hidden returns true if Hide has been called.
func (event *Event) Hidden() bool {
	return event.hidden
}

// MarshalJSON makes a JSON object from the event.
func (event *Event) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"kind":   event.kind,
		"verb":   event.verb,
		"time":   event.Time,
		"nick":   event.Nick,
		"user":   event.User,
		"host":   event.Host,
		"text":   event.Text,
		"args":   event.Args,
		"tags":   event.Tags,
		"killed": event.killed,
		"hidden": event.hidden,
	}

	if len(event.RenderTags) > 0 {
		data["renderTags"] = event.RenderTags
	}
	if event.Target != "" {
		data["target"] = event.Target
	}
	if event.Channel != nil {
		data["channel"] = event.Channel
	}
	if event.Subject != nil {
		data["subject"] = event.Subject
	}
	if len(event.Modes) > 0 {
		modes := make([]string, 0, len(event.Modes))
		for _, mode := range event.Modes {
			modes = append(modes, mode.String())
		}
		data["modes"] = modes
	}
	if event.Whois != nil {
		data["whois"] = event.Whois
	}
	if event.Err != nil {
		data["error"] = event.Err.Error()
	}

	return json.Marshal(data)
}

// markDone releases anything waiting on the event's context.
func (event *Event) markDone() {
	if event.cancel != nil {
		event.cancel()
	}
}
