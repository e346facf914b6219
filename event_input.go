package irc

import (
	"strings"
)

// ParseInput parses an input command into an event. `/join #chan` becomes
// an `input.join` event with `#chan` as its text, and a line without a slash
// becomes `input.text`. A line starting with two slashes is text with the
// first slash removed.
func ParseInput(line string) Event {
	if strings.HasPrefix(line, "/") && !strings.HasPrefix(line, "//") {
		verb, text, _ := strings.Cut(line[1:], " ")

		event := NewEvent("input", strings.ToLower(verb))
		event.Text = text

		return event
	}

	event := NewEvent("input", "text")
	event.Text = strings.TrimPrefix(line, "/")

	return event
}
