package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gissleh/irctrack"
	"github.com/gissleh/irctrack/handlers"
)

func TestMRoleplay_Messages(t *testing.T) {
	table := []struct {
		Kind string
		Nick string
		Text string

		ExpectedNick string
		ExpectedText string
		ExpectedTag  string
	}{
		{"packet", "\x1fJohn\x1f", "Hello there (Gisle)", "John", "Hello there", "npc"},
		{"ctcp", "\x1fJohn\x1f", "waves (Gisle)", "John", "waves", "npca"},
		{"packet", "=Scene=", "The door opens. (Gisle)", "=Scene=", "The door opens.", "scene"},
		{"packet", "\x1fJohn\x1f", "No sender here", "John", "No sender here", "npc"},
		{"packet", "\x1fJohn\x1f", "Hello (friend) there", "John", "Hello (friend) there", "npc"},
		{"packet", "Gisle", "Just talking (Gisle)", "Gisle", "Just talking (Gisle)", ""},
		{"packet", "\x1f\x1f", "Empty (Gisle)", "\x1f\x1f", "Empty (Gisle)", ""},
	}

	for _, row := range table {
		t.Run(row.Text, func(t *testing.T) {
			verb := "PRIVMSG"
			if row.Kind == "ctcp" {
				verb = "ACTION"
			}

			event := irc.NewEvent(row.Kind, verb)
			event.Nick = row.Nick
			event.Text = row.Text

			handlers.MRoleplay(&event, nil)

			assert.Equal(t, row.ExpectedNick, event.Nick)
			assert.Equal(t, row.ExpectedText, event.Text)
			assert.Equal(t, row.ExpectedTag, event.RenderTags["mRoleplay"])
		})
	}
}
