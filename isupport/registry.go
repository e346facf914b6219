package isupport

import (
	"errors"
	"strconv"
	"strings"
)

// A Parser turns the unescaped value of an ISUPPORT token into a typed value.
type Parser func(value string) (interface{}, error)

// A Registry maps upper-case token names to their parsers. Tokens without a
// parser are kept as raw values only.
type Registry map[string]Parser

// Register adds or replaces the parser for the token name.
func (registry Registry) Register(name string, parser Parser) {
	registry[strings.ToUpper(name)] = parser
}

// ChannelModes is the CHANMODES table.
type ChannelModes struct {
	// A modes manage a list of masks, like the ban list.
	A string `json:"a"`
	// B modes always take a parameter.
	B string `json:"b"`
	// C modes take a parameter only when set.
	C string `json:"c"`
	// D modes never take a parameter.
	D string `json:"d"`
}

// A UserMode is a mode a channel member can have, along with the prefix
// shown in front of their nick.
type UserMode struct {
	Mode   rune `json:"mode"`
	Prefix rune `json:"prefix"`
}

var (
	errPrefixFormat    = errors.New("expected (modes)prefixes")
	errChanModesFormat = errors.New("expected four comma-separated groups")
	errLimitFormat     = errors.New("expected prefix:limit pairs")
)

// DefaultRegistry creates a registry with parsers for the tokens the rest of
// the library depends on. The registry is a fresh value each time, so it can
// be extended without affecting other clients.
func DefaultRegistry() Registry {
	return Registry{
		"CASEMAPPING": parseCaseMappingToken,
		"CHANLIMIT":   parseLimits,
		"CHANMODES":   parseChanModes,
		"CHANNELLEN":  parseNumber,
		"CHANTYPES":   parseString,
		"EXCEPTS":     parseListMode('e'),
		"INVEX":       parseListMode('I'),
		"KICKLEN":     parseNumber,
		"MAXLIST":     parseLimits,
		"MODES":       parseNumber,
		"MONITOR":     parseNumber,
		"NETWORK":     parseString,
		"NICKLEN":     parseNumber,
		"PREFIX":      parsePrefix,
		"STATUSMSG":   parseString,
		"TOPICLEN":    parseNumber,
		"WHOX":        parseFlag,
	}
}

func parseString(value string) (interface{}, error) {
	return value, nil
}

func parseFlag(string) (interface{}, error) {
	return true, nil
}

// parseNumber treats an empty value as no limit, which is 0.
func parseNumber(value string) (interface{}, error) {
	if value == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.New("negative limit")
	}

	return n, nil
}

func parseCaseMappingToken(value string) (interface{}, error) {
	cm, ok := ParseCaseMapping(value)
	if !ok {
		return nil, errors.New("unknown case mapping " + strconv.Quote(value))
	}

	return cm, nil
}

func parseListMode(fallback rune) Parser {
	return func(value string) (interface{}, error) {
		if value == "" {
			return fallback, nil
		}
		if len(value) != 1 {
			return nil, errors.New("expected a single mode letter")
		}

		return rune(value[0]), nil
	}
}

// parsePrefix parses a value like (qaohv)~&@%+ into ranked user modes.
func parsePrefix(value string) (interface{}, error) {
	if value == "" {
		return []UserMode{}, nil
	}
	if value[0] != '(' {
		return nil, errPrefixFormat
	}

	modes, prefixes, ok := strings.Cut(value[1:], ")")
	if !ok || len(modes) != len(prefixes) {
		return nil, errPrefixFormat
	}

	result := make([]UserMode, 0, len(modes))
	for i := range modes {
		result = append(result, UserMode{Mode: rune(modes[i]), Prefix: rune(prefixes[i])})
	}

	return result, nil
}

func parseChanModes(value string) (interface{}, error) {
	groups := strings.Split(value, ",")
	if len(groups) < 4 {
		return nil, errChanModesFormat
	}

	// Groups past the fourth are reserved for future use and must be ignored.
	return ChannelModes{A: groups[0], B: groups[1], C: groups[2], D: groups[3]}, nil
}

// parseLimits parses values like #&:15,!:5 or bqeI:100 into a limit per
// character. A missing limit is stored as 0.
func parseLimits(value string) (interface{}, error) {
	result := make(map[rune]int, 4)
	for _, pair := range strings.Split(value, ",") {
		if pair == "" {
			continue
		}

		keys, limit, ok := strings.Cut(pair, ":")
		if !ok || keys == "" {
			return nil, errLimitFormat
		}

		n := 0
		if limit != "" {
			var err error
			n, err = strconv.Atoi(limit)
			if err != nil {
				return nil, err
			}
		}

		for _, key := range keys {
			result[key] = n
		}
	}

	return result, nil
}
