package ircutil

import (
	"strings"
	"unicode/utf8"
)

// MaxLineLength is the longest line a client may send, excluding the CR-LF and
// any client tags.
const MaxLineLength = 510

// MaxTaggedLineLength is the longest line a client may send when it starts
// with a tag section.
const MaxTaggedLineLength = 1022

// LineTooLong returns true if the line, without CR-LF, is longer than the
// server is required to accept.
func LineTooLong(line string) bool {
	if strings.HasPrefix(line, "@") {
		return len(line) > MaxTaggedLineLength
	}

	return len(line) > MaxLineLength
}

// MessageOverhead calculates the overhead in a `PRIVMSG` sent by a client
// with the given nick, user, host and target name. A `NOTICE` is shorter, so
// it is safe to use the same function for it.
func MessageOverhead(nick, user, host, target string, action bool) int {
	overhead := len(":!@ PRIVMSG  :") + len(nick) + len(user) + len(host) + len(target)
	if action {
		overhead += len("\x01ACTION \x01")
	}

	return overhead
}

// CutMessage splits the text on spaces into parts that fit within a line after
// the overhead. A word too long to fit anywhere makes it fall back to
// CutMessageNoSpace.
func CutMessage(text string, overhead int) []string {
	cutLength := MaxLineLength - overhead
	words := strings.Split(text, " ")
	for _, word := range words {
		if len(word) >= cutLength {
			return CutMessageNoSpace(text, overhead)
		}
	}

	result := make([]string, 0, len(text)/cutLength+1)
	current := strings.Builder{}
	for _, word := range words {
		if current.Len()+1+len(word) > cutLength {
			result = append(result, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}

	return append(result, current.String())
}

// CutMessageNoSpace cuts the message per utf-8 rune.
func CutMessageNoSpace(text string, overhead int) []string {
	cutLength := MaxLineLength - overhead
	result := make([]string, 0, len(text)/cutLength+1)

	start := 0
	size := 0
	for i, r := range text {
		runeLen := utf8.RuneLen(r)
		if size+runeLen > cutLength {
			result = append(result, text[start:i])
			start = i
			size = 0
		}

		size += runeLen
	}

	return append(result, text[start:])
}
