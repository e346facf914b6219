package ircutil

import "strings"

// UnescapeValue decodes a message tag value, which is the same scheme some
// ISUPPORT values use. Unknown escapes lose their backslash and keep the
// character after it, and a lone backslash at the end is dropped.
func UnescapeValue(raw string) string {
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}

	sb := strings.Builder{}
	sb.Grow(len(raw))

	escaped := false
	for _, ch := range raw {
		if !escaped {
			if ch == '\\' {
				escaped = true
			} else {
				sb.WriteRune(ch)
			}

			continue
		}

		escaped = false
		switch ch {
		case ':':
			sb.WriteByte(';')
		case 's':
			sb.WriteByte(' ')
		case 'r':
			sb.WriteByte('\r')
		case 'n':
			sb.WriteByte('\n')
		default:
			sb.WriteRune(ch)
		}
	}

	return sb.String()
}

var tagEscaper = strings.NewReplacer("\\", "\\\\", ";", "\\:", " ", "\\s", "\r", "\\r", "\n", "\\n")

// EscapeValue is the inverse of UnescapeValue for the characters the escape
// table covers.
func EscapeValue(value string) string {
	return tagEscaper.Replace(value)
}
