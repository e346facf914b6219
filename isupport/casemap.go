package isupport

import "strings"

// CaseMapping is the rule a server uses to decide whether two nicks or
// channel names are the same.
type CaseMapping int

const (
	// RFC1459 folds A-Z and []\^ into a-z and {}|~. It is the default.
	RFC1459 CaseMapping = iota
	// ASCII folds A-Z only.
	ASCII
	// StrictRFC1459 is RFC1459 without the ^ and ~ pair.
	StrictRFC1459
)

// ParseCaseMapping parses the value of the CASEMAPPING token.
func ParseCaseMapping(value string) (CaseMapping, bool) {
	switch strings.ToLower(value) {
	case "rfc1459":
		return RFC1459, true
	case "ascii", "rfc7613":
		return ASCII, true
	case "strict-rfc1459":
		return StrictRFC1459, true
	default:
		return RFC1459, false
	}
}

func (cm CaseMapping) String() string {
	switch cm {
	case ASCII:
		return "ascii"
	case StrictRFC1459:
		return "strict-rfc1459"
	default:
		return "rfc1459"
	}
}

// FoldRune folds a single rune.
func (cm CaseMapping) FoldRune(r rune) rune {
	switch {
	case r >= 'A' && r <= 'Z':
		return r + ('a' - 'A')
	case cm == ASCII:
		return r
	case r == '[' || r == ']' || r == '\\':
		return r + ('{' - '[')
	case r == '^' && cm == RFC1459:
		return '~'
	}

	return r
}

// Fold returns the name in its folded form, which is what names are compared
// and keyed by.
func (cm CaseMapping) Fold(name string) string {
	folded := false
	for _, r := range name {
		if cm.FoldRune(r) != r {
			folded = true
			break
		}
	}
	if !folded {
		return name
	}

	return strings.Map(cm.FoldRune, name)
}

// Equal compares the two names under the case mapping.
func (cm CaseMapping) Equal(a, b string) bool {
	return len(a) == len(b) && cm.Fold(a) == cm.Fold(b)
}
