package ircutil

import (
	"strings"
)

// ParseArgAndText parses a text like "#Channel stuff and things" into "#Channel"
// and "stuff and things". Input commands and CTCP bodies share this shape.
func ParseArgAndText(s string) (arg, text string) {
	arg, text, _ = strings.Cut(s, " ")
	return arg, text
}

// SplitList splits a comma-separated parameter such as the channel list of a
// JOIN, leaving out empty entries.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}

	result := make([]string, 0, strings.Count(s, ",")+1)
	for _, token := range strings.Split(s, ",") {
		if token != "" {
			result = append(result, token)
		}
	}

	return result
}
