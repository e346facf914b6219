// Package state keeps track of the channels and users a client can see, and
// hands out immutable snapshots of them.
package state

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gissleh/irctrack/isupport"
	"github.com/gissleh/irctrack/list"
)

// DefaultWhoInterval is the shortest time between two WHO refreshes of the
// same channel.
const DefaultWhoInterval = 5 * time.Second

// WhoXFields is the WHOX field selection used for channel refreshes. The
// replies carry channel, user, host, server, nick, flags, account and real
// name, in that order.
const WhoXFields = "%cuhsnfar"

// Config is the setup of a Tracker.
type Config struct {
	// ISupport is used for case mapping, prefixes and mode types. It must be
	// the same instance the 005 lines are applied to.
	ISupport *isupport.ISupport

	// Send is called with WHO lines when a channel needs a refresh. It must
	// not block.
	Send func(line string)

	// Clock is used for the WHO throttle and mode list times. It's time.Now
	// if nil.
	Clock func() time.Time

	// TrackedModes are the mask modes, like b, e, I and q, whose lists are
	// kept.
	TrackedModes string

	// WhoInterval is DefaultWhoInterval if zero.
	WhoInterval time.Duration
}

// A Tracker is the store of every channel and user the client knows of. All
// mutations must come from one goroutine, the one processing the server's
// lines, but records and snapshots may be read from anywhere.
type Tracker struct {
	mutex sync.Mutex

	isupport     *isupport.ISupport
	send         func(line string)
	clock        func() time.Time
	trackedModes string
	whoInterval  time.Duration

	self     string
	channels map[string]*ChannelRecord
	users    map[string]*UserRecord
}

// NewTracker creates a new tracker.
func NewTracker(config Config) *Tracker {
	if config.ISupport == nil {
		config.ISupport = isupport.New(nil)
	}
	if config.Send == nil {
		config.Send = func(string) {}
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.WhoInterval <= 0 {
		config.WhoInterval = DefaultWhoInterval
	}

	return &Tracker{
		isupport:     config.ISupport,
		send:         config.Send,
		clock:        config.Clock,
		trackedModes: config.TrackedModes,
		whoInterval:  config.WhoInterval,
		channels:     make(map[string]*ChannelRecord, 16),
		users:        make(map[string]*UserRecord, 64),
	}
}

func (tracker *Tracker) fold(name string) string {
	return tracker.isupport.Fold(name)
}

func (tracker *Tracker) newUser(nick, user, host string) *UserRecord {
	return &UserRecord{tracker: tracker, nick: nick, user: user, host: host}
}

func (tracker *Tracker) newChannel(name string) *ChannelRecord {
	return &ChannelRecord{
		tracker:    tracker,
		name:       name,
		members:    list.New(tracker.isupport),
		modes:      make(map[rune]string, 8),
		modeInfo:   make(map[rune][]ModeInfo, 4),
		whoLimiter: rate.NewLimiter(rate.Every(tracker.whoInterval), 1),
	}
}

func (tracker *Tracker) whoLine(channel string) string {
	if tracker.isupport.WhoX() {
		return "WHO " + channel + " " + WhoXFields
	}

	return "WHO " + channel
}

// IsTrackedMode returns true if the mask mode's list is kept.
func (tracker *Tracker) IsTrackedMode(mode rune) bool {
	return strings.ContainsRune(tracker.trackedModes, mode)
}

// SetSelf sets the client's own nick. The client's user is never evicted.
func (tracker *Tracker) SetSelf(nick string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.self = nick
}

// Self gets the client's own nick.
func (tracker *Tracker) Self() string {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.self
}

// IsSelf returns true if the nick is the client's own nick.
func (tracker *Tracker) IsSelf(nick string) bool {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.isSelf(nick)
}

func (tracker *Tracker) isSelf(nick string) bool {
	return tracker.self != "" && tracker.fold(nick) == tracker.fold(tracker.self)
}

// TrackChannel marks a channel as one the client is in, and returns its
// record. It should be called when the server confirms the client's JOIN.
func (tracker *Tracker) TrackChannel(name string) *ChannelRecord {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	key := tracker.fold(name)
	if channel := tracker.channels[key]; channel != nil {
		return channel
	}

	channel := tracker.newChannel(name)
	channel.tracked = true
	tracker.channels[key] = channel

	return channel
}

// UntrackChannel forgets the channel, and every user that was only known
// through it.
func (tracker *Tracker) UntrackChannel(name string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.untrackChannel(name)
}

func (tracker *Tracker) untrackChannel(name string) {
	key := tracker.fold(name)
	channel := tracker.channels[key]
	if channel == nil {
		return
	}

	delete(tracker.channels, key)
	channel.tracked = false
	channel.markStale()

	for _, member := range channel.members.Members() {
		if user := tracker.users[tracker.fold(member.Nick)]; user != nil {
			user.markStale()
			tracker.evictIfOrphaned(user)
		}
	}
}

// Channel gets the tracked channel, or a transient record if the client is
// not in it. It returns nil if the name is not a valid channel name.
func (tracker *Tracker) Channel(name string) *ChannelRecord {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.channel(name)
}

func (tracker *Tracker) channel(name string) *ChannelRecord {
	if channel := tracker.channels[tracker.fold(name)]; channel != nil {
		return channel
	}
	if tracker.isupport.IsChannel(name) {
		return tracker.newChannel(name)
	}

	return nil
}

// TrackedChannel gets a channel the client is in, or nil.
func (tracker *Tracker) TrackedChannel(name string) *ChannelRecord {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.channels[tracker.fold(name)]
}

// Channels gets all tracked channels.
func (tracker *Tracker) Channels() []*ChannelRecord {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	result := make([]*ChannelRecord, 0, len(tracker.channels))
	for _, channel := range tracker.channels {
		result = append(result, channel)
	}

	return result
}

// TrackUser registers the user record. If a user with the nick is already
// tracked, that record is kept and returned instead, with any missing user or
// host filled in from the new one.
func (tracker *Tracker) TrackUser(user *UserRecord) *UserRecord {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.trackUser(user)
}

func (tracker *Tracker) trackUser(user *UserRecord) *UserRecord {
	key := tracker.fold(user.nick)
	existing := tracker.users[key]
	if existing == nil {
		user.tracker = tracker
		tracker.users[key] = user
		return user
	}

	if existing != user {
		patch := UserPatch{}
		if existing.user == "" {
			patch.User = user.user
		}
		if existing.host == "" {
			patch.Host = user.host
		}
		if patch.apply(existing) {
			existing.markStale()
		}
	}

	return existing
}

// TrackNick registers a user by nick alone, or returns the tracked one.
func (tracker *Tracker) TrackNick(nick string) *UserRecord {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.trackUser(tracker.newUser(nick, "", ""))
}

// User gets a tracked user, or nil.
func (tracker *Tracker) User(nick string) *UserRecord {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.users[tracker.fold(nick)]
}

// Users gets all tracked users.
func (tracker *Tracker) Users() []*UserRecord {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	result := make([]*UserRecord, 0, len(tracker.users))
	for _, user := range tracker.users {
		result = append(result, user)
	}

	return result
}

// UpdateUser applies the patch to a tracked user. It returns false if the
// user is not tracked.
func (tracker *Tracker) UpdateUser(nick string, patch UserPatch) bool {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	user := tracker.users[tracker.fold(nick)]
	if user == nil {
		return false
	}

	if patch.apply(user) {
		user.markStale()
	}

	return true
}

// TrackUserNickChange renames a tracked user everywhere. It panics if the old
// nick is not tracked.
func (tracker *Tracker) TrackUserNickChange(oldNick, newNick string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	oldKey := tracker.fold(oldNick)
	user := tracker.users[oldKey]
	if user == nil {
		panic(fmt.Sprintf("state: nick change of untracked user %q", oldNick))
	}

	if tracker.isSelf(oldNick) {
		tracker.self = newNick
	}

	delete(tracker.users, oldKey)
	if other := tracker.users[tracker.fold(newNick)]; other != nil && other != user {
		other.markStale()
	}
	tracker.users[tracker.fold(newNick)] = user

	for _, channel := range tracker.channels {
		if channel.members.Rename(oldNick, newNick) {
			channel.markStale()
		}
	}

	user.nick = newNick
	user.markStale()
}

// TrackUserQuit removes the user from every channel and forgets it.
func (tracker *Tracker) TrackUserQuit(nick string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	for _, channel := range tracker.channels {
		if channel.members.Remove(nick) {
			channel.markStale()
		}
	}

	key := tracker.fold(nick)
	if user := tracker.users[key]; user != nil {
		user.markStale()
		tracker.evictIfOrphaned(user)
	}
}

// evictIfOrphaned forgets the user if it's not the client and shares no
// tracked channel with it.
func (tracker *Tracker) evictIfOrphaned(user *UserRecord) {
	if tracker.isSelf(user.nick) {
		return
	}
	for _, channel := range tracker.channels {
		if channel.members.Has(user.nick) {
			return
		}
	}

	key := tracker.fold(user.nick)
	if tracker.users[key] == user {
		delete(tracker.users, key)
		user.markStale()
	}
}

// mustChannel gets a tracked channel for a channel-scoped mutation, and
// panics if it's missing.
func (tracker *Tracker) mustChannel(name string) *ChannelRecord {
	channel := tracker.channels[tracker.fold(name)]
	if channel == nil {
		panic(fmt.Sprintf("state: %q is not a tracked channel", name))
	}

	return channel
}

func (tracker *Tracker) mustUser(nick string) *UserRecord {
	user := tracker.users[tracker.fold(nick)]
	if user == nil {
		panic(fmt.Sprintf("state: %q is not a tracked user", nick))
	}

	return user
}

// TrackChannelMember records the user as a member of the channel with the
// modes, replacing the modes if it's already a member. The user must be
// tracked first.
func (tracker *Tracker) TrackChannelMember(channelName, nick, modes string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	user := tracker.mustUser(nick)

	if channel.members.Set(user.nick, modes) {
		user.markStale()
	}
	channel.markStale()
}

// SetMemberSorting turns the sorting of a channel's members off for a batch of
// TrackChannelMember calls, like a NAMES reply. Turning it back on sorts them.
func (tracker *Tracker) SetMemberSorting(channelName string, enabled bool) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	channel.members.SetAutoSort(enabled)
	if enabled {
		channel.markStale()
	}
}

// AddMemberMode adds a channel user mode like o or v to a member.
func (tracker *Tracker) AddMemberMode(channelName, nick string, mode rune) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	tracker.mustUser(nick)

	if channel.members.AddMode(nick, mode) {
		channel.markStale()
	}
}

// RemoveMemberMode removes a channel user mode from a member.
func (tracker *Tracker) RemoveMemberMode(channelName, nick string, mode rune) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	tracker.mustUser(nick)

	if channel.members.RemoveMode(nick, mode) {
		channel.markStale()
	}
}

// TrackUserPart removes the member from the channel, after a PART or KICK.
// The user is forgotten if it shares no other channel with the client. If
// the user is the client, the channel is untracked.
func (tracker *Tracker) TrackUserPart(channelName, nick string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	if tracker.isSelf(nick) {
		tracker.untrackChannel(channelName)
		return
	}

	channel := tracker.mustChannel(channelName)
	user := tracker.mustUser(nick)

	if channel.members.Remove(nick) {
		channel.markStale()
		user.markStale()
	}

	tracker.evictIfOrphaned(user)
}

// IsMember returns true if the nick is in the tracked channel.
func (tracker *Tracker) IsMember(channelName, nick string) bool {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.channels[tracker.fold(channelName)]
	return channel != nil && channel.members.Has(nick)
}

// SetTopic sets the topic text, as from TOPIC or 332.
func (tracker *Tracker) SetTopic(channelName, text string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	channel.topic.Text = text
	channel.topic.HasText = true
	channel.markStale()
}

// SetTopicInfo sets who set the topic and when, as from 333.
func (tracker *Tracker) SetTopicInfo(channelName, setBy string, setAt time.Time) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	channel.topic.SetBy = setBy
	channel.topic.SetAt = setAt
	channel.markStale()
}

// UpdateChannelModes applies parsed mode changes. Channel user modes go to
// the member list, mask modes go to the mode lists if they are tracked, and
// the rest are stored as channel-wide modes. Changes for members that are not
// in the channel are ignored.
func (tracker *Tracker) UpdateChannelModes(channelName, setBy string, changes []ModeStatus) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	for _, change := range changes {
		switch tracker.isupport.ModeType(change.Mode) {
		case isupport.ModeTypePrefix:
			if change.Adding {
				channel.members.AddMode(change.Arg, change.Mode)
			} else {
				channel.members.RemoveMode(change.Arg, change.Mode)
			}
		case isupport.ModeTypeA:
			tracker.trackModeInfo(channel, change.Adding, ModeInfo{
				Mode:  change.Mode,
				Mask:  change.Arg,
				SetBy: setBy,
				SetAt: tracker.clock(),
			})
		default:
			if change.Adding {
				channel.modes[change.Mode] = change.Arg
			} else {
				delete(channel.modes, change.Mode)
			}
		}
	}

	channel.markStale()
}

// SetChannelModes replaces the channel-wide modes, as from 324. Mask and
// channel user modes in the list are ignored.
func (tracker *Tracker) SetChannelModes(channelName string, changes []ModeStatus) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	channel.modes = make(map[rune]string, len(changes))
	for _, change := range changes {
		switch tracker.isupport.ModeType(change.Mode) {
		case isupport.ModeTypePrefix, isupport.ModeTypeA:
			continue
		}

		if change.Adding {
			channel.modes[change.Mode] = change.Arg
		}
	}

	channel.markStale()
}

// TrackModeInfo adds or removes an entry from a mask list. Untracked modes
// are ignored.
func (tracker *Tracker) TrackModeInfo(channelName string, adding bool, info ModeInfo) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.trackModeInfo(tracker.mustChannel(channelName), adding, info)
}

func (tracker *Tracker) trackModeInfo(channel *ChannelRecord, adding bool, info ModeInfo) {
	if !tracker.IsTrackedMode(info.Mode) {
		return
	}

	infos := channel.modeInfo[info.Mode]
	for i := range infos {
		if infos[i].Mask == info.Mask {
			infos = append(infos[:i:i], infos[i+1:]...)
			break
		}
	}
	if adding {
		infos = append(infos, info)
	}

	channel.modeInfo[info.Mode] = infos
	channel.markStale()
}

// SetModeInfoList replaces a whole mask list, after a list reply like 367-368
// ends. Untracked modes are ignored.
func (tracker *Tracker) SetModeInfoList(channelName string, mode rune, infos []ModeInfo) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	if !tracker.IsTrackedMode(mode) {
		return
	}

	channel.modeInfo[mode] = append([]ModeInfo(nil), infos...)
	channel.markStale()
}

// SetListReceived marks the member list as complete, after a WHO reply ends.
func (tracker *Tracker) SetListReceived(channelName string) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channel := tracker.mustChannel(channelName)
	if !channel.listReceived {
		channel.listReceived = true
		channel.markStale()
	}
}

// RefreshChannel sends a WHO for the channel unless one was sent within the
// refresh interval. It returns true if one was sent.
func (tracker *Tracker) RefreshChannel(channelName string) bool {
	tracker.mutex.Lock()
	line := ""
	if channel := tracker.channels[tracker.fold(channelName)]; channel != nil {
		if channel.whoLimiter.AllowN(tracker.clock(), 1) {
			line = tracker.whoLine(channel.name)
		}
	}
	tracker.mutex.Unlock()

	if line == "" {
		return false
	}

	tracker.send(line)
	return true
}

// Refold rebuilds every key with the current case mapping and PREFIX. It
// should be called when a 005 line changes either of them.
func (tracker *Tracker) Refold() {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	channels := make(map[string]*ChannelRecord, len(tracker.channels))
	for _, channel := range tracker.channels {
		channel.members.Reindex()
		channel.markStale()
		channels[tracker.fold(channel.name)] = channel
	}
	tracker.channels = channels

	users := make(map[string]*UserRecord, len(tracker.users))
	for _, user := range tracker.users {
		users[tracker.fold(user.nick)] = user
	}
	tracker.users = users
}

// Reset forgets everything, marking every record stale. It is safe to call
// more than once.
func (tracker *Tracker) Reset() {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	for _, channel := range tracker.channels {
		channel.tracked = false
		channel.markStale()
	}
	for _, user := range tracker.users {
		user.markStale()
	}

	tracker.self = ""
	tracker.channels = make(map[string]*ChannelRecord, 16)
	tracker.users = make(map[string]*UserRecord, 64)
}
