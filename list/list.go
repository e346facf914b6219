package list

import (
	"sort"
	"strings"

	"github.com/gissleh/irctrack/isupport"
)

// A Member is an entry in a channel's member list.
type Member struct {
	Nick         string `json:"nick"`
	Modes        string `json:"modes"`
	Prefixes     string `json:"prefixes"`
	PrefixedNick string `json:"prefixedNick"`
}

// HighestMode returns the highest mode.
func (member *Member) HighestMode() rune {
	if len(member.Modes) == 0 {
		return 0
	}

	return rune(member.Modes[0])
}

func (member *Member) updatePrefixedNick() {
	if len(member.Prefixes) == 0 {
		member.PrefixedNick = member.Nick
		return
	}

	member.PrefixedNick = string(member.Prefixes[0]) + member.Nick
}

// The List of members in a channel, keyed by nick under the server's case
// mapping. It is not safe for concurrent use; its owner is expected to guard
// it.
type List struct {
	isupport *isupport.ISupport
	members  []*Member
	index    map[string]*Member
	autosort bool
}

// New creates a new list with the ISupport. The ISupport is consulted on every
// lookup, so a case mapping or PREFIX change applies right away to new keys.
// Call Reindex to refold the existing ones.
func New(isupport *isupport.ISupport) *List {
	return &List{
		isupport: isupport,
		members:  make([]*Member, 0, 16),
		index:    make(map[string]*Member, 16),
		autosort: true,
	}
}

func (list *List) key(nick string) string {
	return list.isupport.Fold(nick)
}

// A NamesEntry is the decoded form of one token in a NAMES reply.
type NamesEntry struct {
	Nick     string
	User     string
	Host     string
	Modes    string
	Prefixes string
}

// ParseNamesToken decodes a NAMES token like `@+Nick!user@host.example.com`.
// The user and host are only present with `userhost-in-names`, and any number
// of prefixes are accepted to support `multi-prefix`.
func ParseNamesToken(is *isupport.ISupport, token string) NamesEntry {
	entry := NamesEntry{}
	entry.Nick, entry.Modes, entry.Prefixes = is.ParsePrefixedNick(token)

	if nick, userhost, ok := strings.Cut(entry.Nick, "!"); ok {
		entry.Nick = nick
		entry.User, entry.Host, _ = strings.Cut(userhost, "@")
	}

	return entry
}

// Set inserts the member, or replaces the modes of an existing one. It returns
// true if the member is new.
func (list *List) Set(nick, modes string) (inserted bool) {
	modes = list.isupport.SortModes(modes)

	member := list.index[list.key(nick)]
	if member == nil {
		member = &Member{Nick: nick}
		list.members = append(list.members, member)
		list.index[list.key(nick)] = member
		inserted = true
	}

	member.Modes = modes
	member.Prefixes = list.isupport.Prefixes(modes)
	member.updatePrefixedNick()

	if list.autosort {
		list.sort()
	}

	return inserted
}

// Insert a member. It returns false if there is already a member with the nick.
func (list *List) Insert(nick, modes string) (ok bool) {
	if list.Has(nick) {
		return false
	}

	return list.Set(nick, modes)
}

// AddMode adds a mode to a member. Redundant modes will be ignored. It returns
// true if the member can be found, even if the mode was redundant.
func (list *List) AddMode(nick string, mode rune) (ok bool) {
	if !list.isupport.IsPermissionMode(mode) {
		return false
	}

	member := list.index[list.key(nick)]
	if member == nil {
		return false
	}
	if strings.ContainsRune(member.Modes, mode) {
		return true
	}

	prevHighest := member.HighestMode()
	member.Modes = list.isupport.SortModes(member.Modes + string(mode))
	member.Prefixes = list.isupport.Prefixes(member.Modes)
	member.updatePrefixedNick()

	if list.autosort && prevHighest != member.HighestMode() {
		list.sort()
	}

	return true
}

// RemoveMode removes a mode from a member. It returns true if the member can
// be found, even if the mode was not there.
func (list *List) RemoveMode(nick string, mode rune) (ok bool) {
	member := list.index[list.key(nick)]
	if member == nil {
		return false
	}
	if !strings.ContainsRune(member.Modes, mode) {
		return true
	}

	prevHighest := member.HighestMode()
	member.Modes = strings.Replace(member.Modes, string(mode), "", 1)
	member.Prefixes = list.isupport.Prefixes(member.Modes)
	member.updatePrefixedNick()

	if list.autosort && prevHighest != member.HighestMode() {
		list.sort()
	}

	return true
}

// Rename renames a member. It returns false if there is no member by `from`,
// or if `to` is taken by someone else.
func (list *List) Rename(from, to string) (ok bool) {
	fromKey := list.key(from)
	toKey := list.key(to)

	member := list.index[fromKey]
	if member == nil {
		return false
	}
	if existing := list.index[toKey]; existing != nil && existing != member {
		return false
	}

	member.Nick = to
	member.updatePrefixedNick()

	delete(list.index, fromKey)
	list.index[toKey] = member

	if list.autosort {
		list.sort()
	}

	return true
}

// Remove a member from the list.
func (list *List) Remove(nick string) (ok bool) {
	key := list.key(nick)

	member := list.index[key]
	if member == nil {
		return false
	}

	for i := range list.members {
		if list.members[i] == member {
			list.members = append(list.members[:i], list.members[i+1:]...)
			break
		}
	}
	delete(list.index, key)

	return true
}

// Has returns true if the nick is a member.
func (list *List) Has(nick string) bool {
	return list.index[list.key(nick)] != nil
}

// Member gets a copy of the member by nick.
func (list *List) Member(nick string) (m Member, ok bool) {
	member := list.index[list.key(nick)]
	if member == nil {
		return Member{}, false
	}

	return *member, true
}

// Members gets a copy of the members in order.
func (list *List) Members() []Member {
	result := make([]Member, len(list.members))
	for i := range list.members {
		result[i] = *list.members[i]
	}

	return result
}

// Len gets the number of members.
func (list *List) Len() int {
	return len(list.members)
}

// SetAutoSort enables or disables automatic sorting, which by default is enabled.
// Disabling it makes sense during a NAMES or WHO flood. Enabling it will trigger
// a sort.
func (list *List) SetAutoSort(autosort bool) {
	list.autosort = autosort
	if autosort {
		list.sort()
	}
}

// Reindex refolds every key and recomputes prefixes, which is needed after the
// case mapping or PREFIX changes.
func (list *List) Reindex() {
	for key := range list.index {
		delete(list.index, key)
	}

	for _, member := range list.members {
		member.Modes = list.isupport.SortModes(member.Modes)
		member.Prefixes = list.isupport.Prefixes(member.Modes)
		member.updatePrefixedNick()
		list.index[list.key(member.Nick)] = member
	}

	list.sort()
}

// Clear removes all members in a list.
func (list *List) Clear() {
	list.members = list.members[:0]
	for key := range list.index {
		delete(list.index, key)
	}
}

func (list *List) sort() {
	sort.SliceStable(list.members, func(i, j int) bool {
		a := list.members[i]
		b := list.members[j]

		aMode := a.HighestMode()
		bMode := b.HighestMode()

		if aMode != bMode {
			return list.isupport.IsModeHigher(aMode, bMode)
		}

		return list.key(a.Nick) < list.key(b.Nick)
	})
}
