package irc

import (
	"strconv"
	"strings"

	"github.com/gissleh/irctrack/ircutil"
)

// A Tag is an IRCv3 message tag. HasValue is false for tags without an `=`.
type Tag struct {
	Name     string `json:"name"`
	Value    string `json:"value,omitempty"`
	HasValue bool   `json:"hasValue"`
}

// A Packet is a tokenized server line.
type Packet struct {
	Tags    []Tag    `json:"tags,omitempty"`
	Source  string   `json:"source,omitempty"`
	Command string   `json:"command"`
	Params  []string `json:"params"`

	// Trailing is true if the last parameter was sent with a `:`, which is
	// the only way it can contain spaces or be empty.
	Trailing bool `json:"trailing"`

	Raw string `json:"raw"`
}

// ParsePacket tokenizes an irc line. The line must not include the CR-LF.
func ParsePacket(line string) (Packet, error) {
	packet := Packet{Raw: line, Params: make([]string, 0, 4)}
	rest := strings.TrimLeft(line, " ")

	// Tags
	if strings.HasPrefix(rest, "@") {
		section, after, _ := strings.Cut(rest[1:], " ")
		if section == "" {
			return packet, &MessageTagError{Line: line, Reason: "empty tag section"}
		}

		for _, token := range strings.Split(section, ";") {
			if token == "" {
				continue
			}

			name, value, hasValue := strings.Cut(token, "=")
			if name == "" {
				return packet, &MessageTagError{Line: line, Reason: "tag without a name"}
			}

			packet.Tags = append(packet.Tags, Tag{
				Name:     name,
				Value:    ircutil.UnescapeValue(value),
				HasValue: hasValue,
			})
		}

		rest = strings.TrimLeft(after, " ")
	}

	// Source
	if strings.HasPrefix(rest, ":") {
		packet.Source, rest, _ = strings.Cut(rest[1:], " ")
		rest = strings.TrimLeft(rest, " ")
	}

	// Command and parameters
	for rest != "" {
		if packet.Command != "" && rest[0] == ':' {
			packet.Params = append(packet.Params, rest[1:])
			packet.Trailing = true
			break
		}

		var token string
		token, rest, _ = strings.Cut(rest, " ")
		rest = strings.TrimLeft(rest, " ")

		if packet.Command == "" {
			packet.Command = token
		} else {
			packet.Params = append(packet.Params, token)
		}
	}

	if !isCommand(packet.Command) {
		return packet, &MalformedMessageError{Line: line}
	}

	packet.Command = strings.ToUpper(packet.Command)

	return packet, nil
}

// Numeric returns the reply number, or false if the command is a word.
func (packet *Packet) Numeric() (int, bool) {
	if len(packet.Command) != 3 || !isDigits(packet.Command) {
		return 0, false
	}

	n, err := strconv.Atoi(packet.Command)
	return n, err == nil
}

// Param gets a parameter, or an empty string if it's out of range.
func (packet *Packet) Param(index int) string {
	if index < 0 || index >= len(packet.Params) {
		return ""
	}

	return packet.Params[index]
}

// Tag gets the value of a tag. The value is empty both for a tag without
// a value and an empty one.
func (packet *Packet) Tag(name string) (value string, ok bool) {
	for _, tag := range packet.Tags {
		if tag.Name == name {
			return tag.Value, true
		}
	}

	return "", false
}

func isCommand(command string) bool {
	if command == "" {
		return false
	}
	if len(command) == 3 && isDigits(command) {
		return true
	}

	for _, r := range command {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}

	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
