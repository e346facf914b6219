package state

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gissleh/irctrack/list"
)

// A Topic is a channel topic. The text and the setter/time are set by
// different replies, so either may be missing.
type Topic struct {
	Text    string    `json:"text"`
	HasText bool      `json:"hasText"`
	SetBy   string    `json:"setBy,omitempty"`
	SetAt   time.Time `json:"setAt,omitempty"`
}

// ModeInfo is an entry in one of a channel's mask lists, like a ban.
type ModeInfo struct {
	Mode  rune      `json:"mode"`
	Mask  string    `json:"mask"`
	SetBy string    `json:"setBy,omitempty"`
	SetAt time.Time `json:"setAt,omitempty"`
}

// A ChannelRecord is the live, tracker-owned record of a channel. Records
// for channels the client is not in are transient and never change.
type ChannelRecord struct {
	tracker *Tracker
	version atomic.Uint64
	cached  *Channel

	name         string
	tracked      bool
	topic        Topic
	members      *list.List
	modes        map[rune]string
	modeInfo     map[rune][]ModeInfo
	listReceived bool
	whoLimiter   *rate.Limiter
}

// Name gets the channel name, with its prefix.
func (record *ChannelRecord) Name() string {
	return record.name
}

func (*ChannelRecord) isActor() {}

// Snapshot gets an immutable copy of the channel. The copy is reused until the
// record changes. Taking a snapshot of a tracked channel whose member list is
// incomplete requests a WHO refresh, at most once per refresh interval.
func (record *ChannelRecord) Snapshot() Channel {
	record.tracker.mutex.Lock()
	snapshot := record.snapshot()
	line := record.refreshLine()
	record.tracker.mutex.Unlock()

	if line != "" {
		record.tracker.send(line)
	}

	return *snapshot
}

func (record *ChannelRecord) snapshot() *Channel {
	if record.cached != nil {
		return record.cached
	}

	modes := make(map[rune]string, len(record.modes))
	for mode, value := range record.modes {
		modes[mode] = value
	}

	modeInfo := make(map[rune][]ModeInfo, len(record.modeInfo))
	for mode, infos := range record.modeInfo {
		modeInfo[mode] = append([]ModeInfo(nil), infos...)
	}

	record.cached = &Channel{
		record:       record,
		version:      record.version.Load(),
		Name:         record.name,
		Topic:        record.topic,
		Tracked:      record.tracked,
		ListReceived: record.listReceived,
		members:      record.members.Members(),
		modes:        modes,
		modeInfo:     modeInfo,
	}

	return record.cached
}

// refreshLine returns the WHO line to send if a refresh is due, or an empty
// string. The caller must hold the tracker lock.
func (record *ChannelRecord) refreshLine() string {
	if !record.tracked || record.listReceived {
		return ""
	}
	if !record.whoLimiter.AllowN(record.tracker.clock(), 1) {
		return ""
	}

	return record.tracker.whoLine(record.name)
}

func (record *ChannelRecord) markStale() {
	record.version.Add(1)
	record.cached = nil
}

// Channel is a snapshot of a channel. It never changes after it's made.
type Channel struct {
	record  *ChannelRecord
	version uint64

	Name         string `json:"name"`
	Topic        Topic  `json:"topic"`
	Tracked      bool   `json:"tracked"`
	ListReceived bool   `json:"listReceived"`

	members  []list.Member
	modes    map[rune]string
	modeInfo map[rune][]ModeInfo
}

// Members gets the members, ordered by rank and then nick.
func (channel Channel) Members() []list.Member {
	return append([]list.Member(nil), channel.members...)
}

// Member finds a member by nick.
func (channel Channel) Member(nick string) (list.Member, bool) {
	if channel.record == nil {
		return list.Member{}, false
	}

	key := channel.record.tracker.isupport.Fold(nick)
	for _, member := range channel.members {
		if channel.record.tracker.isupport.Fold(member.Nick) == key {
			return member, true
		}
	}

	return list.Member{}, false
}

// Modes gets the channel-wide modes that are not mask lists, with their
// parameter if they have one.
func (channel Channel) Modes() map[rune]string {
	result := make(map[rune]string, len(channel.modes))
	for mode, value := range channel.modes {
		result[mode] = value
	}

	return result
}

// HasMode returns true if the channel-wide mode is set.
func (channel Channel) HasMode(mode rune) bool {
	_, ok := channel.modes[mode]
	return ok
}

// ModeInfo gets the mask list of a tracked mask mode.
func (channel Channel) ModeInfo(mode rune) []ModeInfo {
	return append([]ModeInfo(nil), channel.modeInfo[mode]...)
}

// IsStale returns true if the channel has changed since the snapshot was made.
// A zero Channel is always stale.
func (channel Channel) IsStale() bool {
	return channel.record == nil || channel.record.version.Load() != channel.version
}

// MarshalJSON includes the members and modes along with the exported fields.
func (channel Channel) MarshalJSON() ([]byte, error) {
	modes := make(map[string]string, len(channel.modes))
	for mode, value := range channel.modes {
		modes[string(mode)] = value
	}

	return json.Marshal(struct {
		Name         string            `json:"name"`
		Topic        Topic             `json:"topic"`
		Tracked      bool              `json:"tracked"`
		ListReceived bool              `json:"listReceived"`
		Members      []list.Member     `json:"members"`
		Modes        map[string]string `json:"modes"`
	}{
		Name:         channel.Name,
		Topic:        channel.Topic,
		Tracked:      channel.Tracked,
		ListReceived: channel.ListReceived,
		Members:      channel.members,
		Modes:        modes,
	})
}
