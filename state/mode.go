package state

import (
	"errors"
	"strings"

	"github.com/gissleh/irctrack/isupport"
)

// ErrMissingModeArgument is returned by ParseModes when a mode that needs an
// argument has none left.
var ErrMissingModeArgument = errors.New("irc: mode is missing its argument")

// A ModeStatus is a single mode change from a MODE line or a 324 reply.
type ModeStatus struct {
	Adding bool   `json:"adding"`
	Mode   rune   `json:"mode"`
	Arg    string `json:"arg,omitempty"`
}

func (status ModeStatus) String() string {
	sign := "-"
	if status.Adding {
		sign = "+"
	}
	if status.Arg != "" {
		return sign + string(status.Mode) + " " + status.Arg
	}

	return sign + string(status.Mode)
}

// ParseModes parses a mode string like +ov-b nick1 nick2 *!*@host into single
// changes, taking arguments according to the ISupport's mode types. The
// changes parsed before an error are still returned.
func ParseModes(is *isupport.ISupport, modes string, args []string) ([]ModeStatus, error) {
	result := make([]ModeStatus, 0, len(modes))
	adding := true

	for _, ch := range modes {
		switch ch {
		case '+':
			adding = true
			continue
		case '-':
			adding = false
			continue
		}

		status := ModeStatus{Adding: adding, Mode: ch}
		if is.ModeTakesArgument(ch, adding) {
			if len(args) == 0 {
				return result, ErrMissingModeArgument
			}

			status.Arg = args[0]
			args = args[1:]
		}

		result = append(result, status)
	}

	return result, nil
}

// ParseUserModes parses a user mode string like +iw-x, which never has
// arguments.
func ParseUserModes(modes string) []ModeStatus {
	result := make([]ModeStatus, 0, len(modes))
	adding := true

	for _, ch := range modes {
		switch ch {
		case '+':
			adding = true
		case '-':
			adding = false
		default:
			result = append(result, ModeStatus{Adding: adding, Mode: ch})
		}
	}

	return result
}

// ApplyUserModes applies the changes to a user mode string. Added modes go
// at the end.
func ApplyUserModes(current string, changes []ModeStatus) string {
	for _, change := range changes {
		has := strings.ContainsRune(current, change.Mode)
		if change.Adding && !has {
			current += string(change.Mode)
		} else if !change.Adding && has {
			current = strings.Replace(current, string(change.Mode), "", 1)
		}
	}

	return current
}
