package state

import (
	"sort"
	"sync/atomic"
)

// A UserRecord is the live, tracker-owned record of a user. The same record
// is returned for as long as the user is tracked, but its fields are only
// readable through snapshots.
type UserRecord struct {
	tracker *Tracker
	version atomic.Uint64
	cached  *User

	nick        string
	user        string
	host        string
	account     string
	away        bool
	awayMessage string
	realName    string
	server      string
	operator    string
}

// Name gets the current nick.
func (record *UserRecord) Name() string {
	record.tracker.mutex.Lock()
	defer record.tracker.mutex.Unlock()

	return record.nick
}

func (*UserRecord) isActor() {}

// Snapshot gets an immutable copy of the user. The copy is reused until the
// record changes.
func (record *UserRecord) Snapshot() User {
	record.tracker.mutex.Lock()
	defer record.tracker.mutex.Unlock()

	return *record.snapshot()
}

func (record *UserRecord) snapshot() *User {
	if record.cached != nil {
		return record.cached
	}

	channels := make([]string, 0, 4)
	for _, channel := range record.tracker.channels {
		if channel.members.Has(record.nick) {
			channels = append(channels, channel.name)
		}
	}
	sort.Strings(channels)

	record.cached = &User{
		record:      record,
		version:     record.version.Load(),
		Nick:        record.nick,
		User:        record.user,
		Host:        record.host,
		Account:     record.account,
		Away:        record.away,
		AwayMessage: record.awayMessage,
		RealName:    record.realName,
		Server:      record.server,
		Operator:    record.operator,
		channels:    channels,
	}

	return record.cached
}

func (record *UserRecord) markStale() {
	record.version.Add(1)
	record.cached = nil
}

// User is a snapshot of a user. It never changes after it's made.
type User struct {
	record  *UserRecord
	version uint64

	Nick        string `json:"nick"`
	User        string `json:"user,omitempty"`
	Host        string `json:"host,omitempty"`
	Account     string `json:"account,omitempty"`
	Away        bool   `json:"away"`
	AwayMessage string `json:"awayMessage,omitempty"`
	RealName    string `json:"realName,omitempty"`
	Server      string `json:"server,omitempty"`
	Operator    string `json:"operator,omitempty"`

	channels []string
}

// DisplayName gets the nick!user@host mask, or just the nick if the user and
// host are not known.
func (user User) DisplayName() string {
	if user.User == "" || user.Host == "" {
		return user.Nick
	}

	return user.Nick + "!" + user.User + "@" + user.Host
}

// Channels gets the names of the tracked channels the user was in.
func (user User) Channels() []string {
	result := make([]string, len(user.channels))
	copy(result, user.channels)

	return result
}

// IsStale returns true if the user has changed since the snapshot was made.
// A zero User is always stale.
func (user User) IsStale() bool {
	return user.record == nil || user.record.version.Load() != user.version
}

// A UserPatch changes a subset of a user's fields. Empty strings leave fields
// unchanged, so clearing needs the matching flag. Coming back from away clears
// the away message, while going away without one keeps the known message.
type UserPatch struct {
	User         string
	Host         string
	Account      string
	ClearAccount bool
	RealName     string
	Server       string
	Operator     string
	SetAway      bool
	Away         bool
	AwayMessage  string
}

func (patch *UserPatch) apply(record *UserRecord) bool {
	before := record.fields()

	if patch.User != "" {
		record.user = patch.User
	}
	if patch.Host != "" {
		record.host = patch.Host
	}
	if patch.Account != "" || patch.ClearAccount {
		record.account = patch.Account
	}
	if patch.RealName != "" {
		record.realName = patch.RealName
	}
	if patch.Server != "" {
		record.server = patch.Server
	}
	if patch.Operator != "" {
		record.operator = patch.Operator
	}
	if patch.SetAway {
		if !patch.Away {
			record.awayMessage = ""
		} else if patch.AwayMessage != "" {
			record.awayMessage = patch.AwayMessage
		}
		record.away = patch.Away
	}

	return before != record.fields()
}

type userFields struct {
	user, host, account, awayMessage, realName, server, operator string
	away                                                          bool
}

func (record *UserRecord) fields() userFields {
	return userFields{
		user:        record.user,
		host:        record.host,
		account:     record.account,
		awayMessage: record.awayMessage,
		realName:    record.realName,
		server:      record.server,
		operator:    record.operator,
		away:        record.away,
	}
}
