package ircutil

import "strings"

const ctcpDelim = '\x01'

var ctcpQuoter = strings.NewReplacer("\x10", "\x10\x10", "\x00", "\x100", "\n", "\x10n", "\r", "\x10r")

// QuoteCTCP applies the low-level quoting that allows NUL, CR, LF and the
// quote character itself inside a CTCP message.
func QuoteCTCP(s string) string {
	return ctcpQuoter.Replace(s)
}

// UnquoteCTCP reverses QuoteCTCP. An unknown quoted character is kept as-is.
func UnquoteCTCP(s string) string {
	if !strings.ContainsRune(s, '\x10') {
		return s
	}

	sb := strings.Builder{}
	sb.Grow(len(s))

	quoted := false
	for _, ch := range s {
		if !quoted {
			if ch == '\x10' {
				quoted = true
			} else {
				sb.WriteRune(ch)
			}

			continue
		}

		quoted = false
		switch ch {
		case '0':
			sb.WriteByte(0)
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteRune(ch)
		}
	}

	return sb.String()
}

// IsCTCP returns true if the message text starts with the CTCP delimiter.
func IsCTCP(text string) bool {
	return len(text) > 1 && text[0] == ctcpDelim
}

// ParseCTCP extracts the verb and arguments of a CTCP message. Only the first
// delimited message is read; anything after its closing delimiter is ignored.
// The verb is returned in upper case.
func ParseCTCP(text string) (verb, args string, ok bool) {
	if !IsCTCP(text) {
		return "", "", false
	}

	body := text[1:]
	if end := strings.IndexByte(body, ctcpDelim); end != -1 {
		body = body[:end]
	}

	verb, args = ParseArgAndText(UnquoteCTCP(body))
	if verb == "" {
		return "", "", false
	}

	return strings.ToUpper(verb), args, true
}

// FormatCTCP builds the message text for a CTCP verb with optional arguments.
func FormatCTCP(verb, args string) string {
	body := strings.ToUpper(verb)
	if args != "" {
		body += " " + args
	}

	return string(ctcpDelim) + QuoteCTCP(body) + string(ctcpDelim)
}
