package isupport

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gissleh/irctrack/ircutil"
)

// ISupport is a data structure containing server instructions about
// supported modes, encodings, lengths, prefixes, and so on. It is built
// from the 005 numeric's data, and has helper methods that makes sense
// of it. It's thread-safe through a reader/writer lock, so the locks will
// only block in the short duration post-registration when the 005s come in
type ISupport struct {
	lock     sync.RWMutex
	registry Registry
	raw      map[string]string
	values   map[string]interface{}
}

// A ParseError is returned when a token's parser rejects its value. The
// token is still stored as a raw value.
type ParseError struct {
	Token string
	Err   error
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("isupport: could not parse %q: %s", err.Token, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// New creates an ISupport with the parsers from the registry. A nil registry
// means DefaultRegistry.
func New(registry Registry) *ISupport {
	if registry == nil {
		registry = DefaultRegistry()
	}

	return &ISupport{
		registry: registry,
		raw:      make(map[string]string, 32),
		values:   make(map[string]interface{}, 16),
	}
}

// Apply sets every token of a 005 line. A token that fails to parse does
// not stop the others from being applied, and its error is returned along
// with the others.
func (isupport *ISupport) Apply(tokens []string) []error {
	var errs []error
	for _, token := range tokens {
		if err := isupport.Set(token); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Set applies a single token, like NICKLEN=30, WHOX or -EXCEPTS. The latter
// removes a previously advertised token.
func (isupport *ISupport) Set(token string) error {
	if token == "" || token == "-" {
		return nil
	}

	isupport.lock.Lock()
	defer isupport.lock.Unlock()

	if isupport.raw == nil {
		isupport.raw = make(map[string]string, 32)
		isupport.values = make(map[string]interface{}, 16)
	}
	if isupport.registry == nil {
		isupport.registry = DefaultRegistry()
	}

	if token[0] == '-' {
		key := strings.ToUpper(token[1:])
		delete(isupport.raw, key)
		delete(isupport.values, key)
		return nil
	}

	key, value, _ := strings.Cut(token, "=")
	key = strings.ToUpper(key)
	value = ircutil.UnescapeValue(value)

	isupport.raw[key] = value
	delete(isupport.values, key)

	parser := isupport.registry[key]
	if parser == nil {
		return nil
	}

	parsed, err := parser(value)
	if err != nil {
		return &ParseError{Token: token, Err: err}
	}

	isupport.values[key] = parsed
	return nil
}

// Get gets an isupport key. This is unprocessed data, and a helper should
// be used if available.
func (isupport *ISupport) Get(key string) (value string, ok bool) {
	isupport.lock.RLock()
	value, ok = isupport.raw[strings.ToUpper(key)]
	isupport.lock.RUnlock()
	return
}

// Value gets the parsed value of a key. It's nil if there is no parser for
// it, or if parsing failed.
func (isupport *ISupport) Value(key string) interface{} {
	isupport.lock.RLock()
	defer isupport.lock.RUnlock()

	return isupport.values[strings.ToUpper(key)]
}

// Number gets a key and converts it to a number.
func (isupport *ISupport) Number(key string) (value int, ok bool) {
	if n, ok := isupport.Value(key).(int); ok {
		return n, true
	}

	strValue, ok := isupport.Get(key)
	if !ok {
		return 0, false
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		return 0, false
	}

	return value, true
}

// CaseMapping gets the active case mapping, which is RFC1459 until the server
// says otherwise.
func (isupport *ISupport) CaseMapping() CaseMapping {
	if cm, ok := isupport.Value("CASEMAPPING").(CaseMapping); ok {
		return cm
	}

	return RFC1459
}

// Fold folds the name with the active case mapping.
func (isupport *ISupport) Fold(name string) string {
	return isupport.CaseMapping().Fold(name)
}

// ChannelLen gets the longest allowed channel name, or 0 if there is no limit.
func (isupport *ISupport) ChannelLen() int {
	n, _ := isupport.Value("CHANNELLEN").(int)
	return n
}

// NickLen gets the longest allowed nick, or 0 if it's not known.
func (isupport *ISupport) NickLen() int {
	n, _ := isupport.Value("NICKLEN").(int)
	return n
}

// ChanLimit gets the number of channels of each type the client may join. A
// limit of 0 means no limit.
func (isupport *ISupport) ChanLimit() map[rune]int {
	limits, _ := isupport.Value("CHANLIMIT").(map[rune]int)

	result := make(map[rune]int, len(limits))
	for key, value := range limits {
		result[key] = value
	}

	return result
}

// ChannelModes gets the CHANMODES table, or the RFC1459 one if it has not been
// announced.
func (isupport *ISupport) ChannelModes() ChannelModes {
	if modes, ok := isupport.Value("CHANMODES").(ChannelModes); ok {
		return modes
	}

	return ChannelModes{A: "b", B: "k", C: "l", D: "imnpst"}
}

// ChanTypes gets the characters a channel name may start with.
func (isupport *ISupport) ChanTypes() string {
	if chanTypes, ok := isupport.Value("CHANTYPES").(string); ok {
		return chanTypes
	}

	return "#&"
}

// UserModes gets the channel user modes, most powerful first.
func (isupport *ISupport) UserModes() []UserMode {
	modes, ok := isupport.Value("PREFIX").([]UserMode)
	if !ok {
		return []UserMode{{Mode: 'o', Prefix: '@'}, {Mode: 'v', Prefix: '+'}}
	}

	result := make([]UserMode, len(modes))
	copy(result, modes)

	return result
}

// Network gets the network name, if any.
func (isupport *ISupport) Network() string {
	network, _ := isupport.Value("NETWORK").(string)
	return network
}

// WhoX returns true if the server supports extended WHO queries.
func (isupport *ISupport) WhoX() bool {
	whox, _ := isupport.Value("WHOX").(bool)
	return whox
}

// StatusMsg gets the prefixes that can be put in front of a channel name to
// target only the members with that status. It falls back to the PREFIX
// prefixes.
func (isupport *ISupport) StatusMsg() string {
	if statusMsg, ok := isupport.Value("STATUSMSG").(string); ok {
		return statusMsg
	}

	return isupport.prefixOrder()
}

// ExceptsMode gets the ban exception mode, or 0 if not supported.
func (isupport *ISupport) ExceptsMode() rune {
	mode, _ := isupport.Value("EXCEPTS").(rune)
	return mode
}

// InvexMode gets the invite exception mode, or 0 if not supported.
func (isupport *ISupport) InvexMode() rune {
	mode, _ := isupport.Value("INVEX").(rune)
	return mode
}

// Monitor returns the monitor list limit (0 for none), and whether MONITOR
// is supported at all.
func (isupport *ISupport) Monitor() (limit int, ok bool) {
	limit, ok = isupport.Value("MONITOR").(int)
	return
}

// IsChannel returns whether the target name is a valid channel name.
func (isupport *ISupport) IsChannel(targetName string) bool {
	if len(targetName) < 2 || !strings.ContainsRune(isupport.ChanTypes(), rune(targetName[0])) {
		return false
	}
	if limit := isupport.ChannelLen(); limit > 0 && len(targetName) > limit {
		return false
	}

	return !strings.ContainsAny(targetName[1:], " \x00\r\n,")
}

// TargetedChannel splits a target like @#channel into its status prefix and
// the channel name. It returns false if the target has no status prefix or
// the rest is not a channel.
func (isupport *ISupport) TargetedChannel(target string) (prefix rune, channel string, ok bool) {
	if len(target) < 2 || !strings.ContainsRune(isupport.StatusMsg(), rune(target[0])) {
		return 0, "", false
	}
	if !isupport.IsChannel(target[1:]) {
		return 0, "", false
	}

	return rune(target[0]), target[1:], true
}

// State gets a copy of the raw values, for display and debugging.
func (isupport *ISupport) State() map[string]string {
	isupport.lock.RLock()
	defer isupport.lock.RUnlock()

	result := make(map[string]string, len(isupport.raw))
	for key, value := range isupport.raw {
		result[key] = value
	}

	return result
}

// Reset clears everything.
func (isupport *ISupport) Reset() {
	isupport.lock.Lock()
	for key := range isupport.raw {
		delete(isupport.raw, key)
	}
	for key := range isupport.values {
		delete(isupport.values, key)
	}
	isupport.lock.Unlock()
}
