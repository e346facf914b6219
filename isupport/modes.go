package isupport

import "strings"

// ModeType is the way a channel mode handles its parameter.
type ModeType int

const (
	ModeTypeUnknown ModeType = iota
	// ModeTypeA modes manage lists of masks.
	ModeTypeA
	// ModeTypeB modes always take a parameter.
	ModeTypeB
	// ModeTypeC modes take a parameter when set.
	ModeTypeC
	// ModeTypeD modes are flags.
	ModeTypeD
	// ModeTypePrefix modes are channel user modes like op and voice.
	ModeTypePrefix
)

func (isupport *ISupport) modeOrder() string {
	sb := strings.Builder{}
	for _, mode := range isupport.UserModes() {
		sb.WriteRune(mode.Mode)
	}

	return sb.String()
}

func (isupport *ISupport) prefixOrder() string {
	sb := strings.Builder{}
	for _, mode := range isupport.UserModes() {
		sb.WriteRune(mode.Prefix)
	}

	return sb.String()
}

// ParsePrefixedNick parses a full nick into its components.
// Example: "@+HammerTime62" -> `"HammerTime62", "ov", "@+"`
func (isupport *ISupport) ParsePrefixedNick(fullnick string) (nick, modes, prefixes string) {
	userModes := isupport.UserModes()

	for i, ch := range fullnick {
		found := false
		for _, userMode := range userModes {
			if userMode.Prefix == ch {
				modes += string(userMode.Mode)
				prefixes += string(ch)
				found = true
				break
			}
		}

		if !found {
			return fullnick[i:], modes, prefixes
		}
	}

	return "", modes, prefixes
}

// HighestMode gets the highest-level mode declared by PREFIX
func (isupport *ISupport) HighestMode(modes string) rune {
	for _, mode := range isupport.modeOrder() {
		if strings.ContainsRune(modes, mode) {
			return mode
		}
	}

	return rune(0)
}

// IsModeHigher returns true if `current` is a higher mode than `other`.
func (isupport *ISupport) IsModeHigher(current rune, other rune) bool {
	if current == other || current == 0 {
		return false
	}
	if other == 0 {
		return true
	}

	for _, mode := range isupport.modeOrder() {
		if mode == current {
			return true
		} else if mode == other {
			return false
		}
	}

	return false
}

// SortModes returns the modes in order. Any unknown modes will be omitted.
func (isupport *ISupport) SortModes(modes string) string {
	sb := strings.Builder{}
	for _, mode := range isupport.modeOrder() {
		if strings.ContainsRune(modes, mode) {
			sb.WriteRune(mode)
		}
	}

	return sb.String()
}

// Mode gets the mode for the prefix, or 0 if it's not a prefix.
func (isupport *ISupport) Mode(prefix rune) rune {
	for _, userMode := range isupport.UserModes() {
		if userMode.Prefix == prefix {
			return userMode.Mode
		}
	}

	return rune(0)
}

// Prefix gets the prefix for the mode, or 0 if it's not a user mode.
func (isupport *ISupport) Prefix(mode rune) rune {
	for _, userMode := range isupport.UserModes() {
		if userMode.Mode == mode {
			return userMode.Prefix
		}
	}

	return rune(0)
}

// Prefixes gets the prefixes in the order of the modes, skipping any
// invalid modes.
func (isupport *ISupport) Prefixes(modes string) string {
	sb := strings.Builder{}
	for _, userMode := range isupport.UserModes() {
		if strings.ContainsRune(modes, userMode.Mode) {
			sb.WriteRune(userMode.Prefix)
		}
	}

	return sb.String()
}

// IsPermissionMode returns whether the flag is a channel user mode.
func (isupport *ISupport) IsPermissionMode(flag rune) bool {
	return isupport.Prefix(flag) != 0
}

// ModeType gets the type of a channel mode. User modes take precedence
// over CHANMODES, since some servers list them in both.
func (isupport *ISupport) ModeType(mode rune) ModeType {
	if isupport.IsPermissionMode(mode) {
		return ModeTypePrefix
	}

	chanModes := isupport.ChannelModes()
	switch {
	case strings.ContainsRune(chanModes.A, mode):
		return ModeTypeA
	case strings.ContainsRune(chanModes.B, mode):
		return ModeTypeB
	case strings.ContainsRune(chanModes.C, mode):
		return ModeTypeC
	case strings.ContainsRune(chanModes.D, mode):
		return ModeTypeD
	}

	return ModeTypeUnknown
}

// ModeTakesArgument returns true if the mode takes an argument when it's added
// (plus) or removed.
func (isupport *ISupport) ModeTakesArgument(flag rune, plus bool) bool {
	switch isupport.ModeType(flag) {
	case ModeTypePrefix, ModeTypeA, ModeTypeB:
		return true
	case ModeTypeC:
		return plus
	default:
		return false
	}
}
