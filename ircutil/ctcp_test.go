package ircutil_test

import (
	"testing"

	"github.com/gissleh/irctrack/ircutil"
	"github.com/stretchr/testify/assert"
)

func TestParseCTCP(t *testing.T) {
	table := []struct {
		Text string
		Verb string
		Args string
		OK   bool
	}{
		{"\x01ACTION waves\x01", "ACTION", "waves", true},
		{"\x01version\x01", "VERSION", "", true},
		{"\x01PING 12345", "PING", "12345", true},
		{"\x01ACTION first\x01\x01ACTION second\x01", "ACTION", "first", true},
		{"\x01ACTION a\x10nb\x01", "ACTION", "a\nb", true},
		{"hello", "", "", false},
		{"\x01", "", "", false},
		{"\x01\x01", "", "", false},
	}

	for _, row := range table {
		t.Run(row.Text, func(t *testing.T) {
			verb, args, ok := ircutil.ParseCTCP(row.Text)

			assert.Equal(t, row.OK, ok)
			assert.Equal(t, row.Verb, verb)
			assert.Equal(t, row.Args, args)
		})
	}
}

func TestFormatCTCP(t *testing.T) {
	assert.Equal(t, "\x01ACTION waves\x01", ircutil.FormatCTCP("action", "waves"))
	assert.Equal(t, "\x01VERSION\x01", ircutil.FormatCTCP("VERSION", ""))
	assert.Equal(t, "\x01PING a\x10rb\x10\x10\x01", ircutil.FormatCTCP("PING", "a\rb\x10"))
	assert.Equal(t, "nul\x00cr\rlf\nq\x10", ircutil.UnquoteCTCP(ircutil.QuoteCTCP("nul\x00cr\rlf\nq\x10")))
}
