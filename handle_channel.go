package irc

import (
	"strconv"
	"strings"
	"time"

	"github.com/gissleh/irctrack/list"
	"github.com/gissleh/irctrack/state"
)

func handleJoin(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 1); err != nil {
		return err
	}

	channelName := packet.Params[0]
	self := client.isSelf(event.Nick)

	if self {
		client.tracker.TrackChannel(channelName)
		client.setSelfMask(event.User, event.Host)
	} else if client.tracker.TrackedChannel(channelName) == nil {
		return serverError(packet, "JOIN to %s, which is not tracked", channelName)
	}

	user := client.sourceUser(event)
	nick := user.Name()

	// extended-join
	if len(packet.Params) >= 3 {
		patch := state.UserPatch{RealName: packet.Params[2]}
		if account := packet.Params[1]; account == "*" {
			patch.ClearAccount = true
		} else {
			patch.Account = account
		}

		client.tracker.UpdateUser(nick, patch)
	}

	if !client.tracker.IsMember(channelName, nick) {
		client.tracker.TrackChannelMember(channelName, nick, "")
	}

	if self {
		_ = client.SendCommand("MODE", channelName)
		client.tracker.RefreshChannel(channelName)
	}

	client.setChannel(event, channelName)
	client.setSubject(event, nick)

	return nil
}

func handlePart(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 1); err != nil {
		return err
	}

	return client.removeMember(event, packet, packet.Params[0], event.Nick)
}

func handleKick(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	return client.removeMember(event, packet, packet.Params[0], packet.Params[1])
}

// removeMember takes the subject snapshot before the user is removed, since
// it might be forgotten altogether.
func (client *Client) removeMember(event *Event, packet *Packet, channelName, nick string) error {
	if client.tracker.TrackedChannel(channelName) == nil {
		return serverError(packet, "%s from %s, which is not tracked", packet.Command, channelName)
	}
	if !client.isSelf(nick) && client.tracker.User(nick) == nil {
		return serverError(packet, "%s of %s, who is not tracked", packet.Command, nick)
	}

	client.setSubject(event, nick)
	client.tracker.TrackUserPart(channelName, nick)
	client.setChannel(event, channelName)

	return nil
}

func handleQuit(client *Client, event *Event, packet *Packet) error {
	client.setSubject(event, event.Nick)
	client.tracker.TrackUserQuit(event.Nick)

	return nil
}

func handleNick(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 1); err != nil {
		return err
	}

	oldNick := event.Nick
	newNick := packet.Params[0]
	self := client.isSelf(oldNick)

	if client.tracker.User(oldNick) != nil {
		client.tracker.TrackUserNickChange(oldNick, newNick)
	} else if self {
		client.tracker.SetSelf(newNick)
	}

	if self {
		client.mutex.Lock()
		client.nick = newNick
		client.requestedNick = ""
		client.mutex.Unlock()
	}

	client.setSubject(event, newNick)

	return nil
}

func handleTopic(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	channelName := packet.Params[0]
	if client.tracker.TrackedChannel(channelName) == nil {
		return serverError(packet, "TOPIC in %s, which is not tracked", channelName)
	}

	client.tracker.SetTopic(channelName, packet.Params[1])
	client.tracker.SetTopicInfo(channelName, event.Nick, event.Time)
	client.setChannel(event, channelName)

	return nil
}

func handleMode(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	target := packet.Params[0]

	if !client.isupport.IsChannel(target) {
		if !client.isSelf(target) {
			return nil
		}

		event.Modes = state.ParseUserModes(packet.Params[1])

		client.mutex.Lock()
		client.userModes = state.ApplyUserModes(client.userModes, event.Modes)
		client.mutex.Unlock()

		return nil
	}

	if client.tracker.TrackedChannel(target) == nil {
		return serverError(packet, "MODE in %s, which is not tracked", target)
	}

	changes, err := state.ParseModes(client.isupport, packet.Params[1], packet.Params[2:])
	client.tracker.UpdateChannelModes(target, event.Source, changes)

	event.Modes = changes
	client.setChannel(event, target)

	if err != nil {
		return serverError(packet, "%s", err)
	}

	return nil
}

// handleChannelModeIs handles the reply to `MODE #channel`.
func handleChannelModeIs(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	channelName := packet.Params[1]
	if client.tracker.TrackedChannel(channelName) == nil {
		return nil
	}

	changes, err := state.ParseModes(client.isupport, packet.Params[2], packet.Params[3:])
	client.tracker.SetChannelModes(channelName, changes)

	event.Modes = changes
	client.setChannel(event, channelName)

	if err != nil {
		return serverError(packet, "%s", err)
	}

	return nil
}

func handleNoTopic(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	channelName := packet.Params[1]
	if client.tracker.TrackedChannel(channelName) == nil {
		return nil
	}

	client.tracker.SetTopic(channelName, "")
	client.setChannel(event, channelName)

	return nil
}

func handleTopicReply(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	channelName := packet.Params[1]
	if client.tracker.TrackedChannel(channelName) == nil {
		return nil
	}

	client.tracker.SetTopic(channelName, packet.Params[2])
	client.setChannel(event, channelName)

	return nil
}

func handleTopicWhoTime(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 4); err != nil {
		return err
	}

	channelName := packet.Params[1]
	if client.tracker.TrackedChannel(channelName) == nil {
		return nil
	}

	timestamp, err := strconv.ParseInt(packet.Params[3], 10, 64)
	if err != nil {
		return serverError(packet, "bad topic timestamp %q", packet.Params[3])
	}

	client.tracker.SetTopicInfo(channelName, packet.Params[2], time.Unix(timestamp, 0))
	client.setChannel(event, channelName)

	return nil
}

func handleNames(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 4); err != nil {
		return err
	}

	channelName := packet.Params[2]
	if client.tracker.TrackedChannel(channelName) == nil {
		return nil
	}

	client.tracker.SetMemberSorting(channelName, false)

	for _, token := range strings.Fields(packet.Params[3]) {
		entry := list.ParseNamesToken(client.isupport, token)
		if entry.Nick == "" {
			continue
		}

		// userhost-in-names
		client.tracker.TrackNick(entry.Nick)
		client.tracker.UpdateUser(entry.Nick, state.UserPatch{User: entry.User, Host: entry.Host})
		client.tracker.TrackChannelMember(channelName, entry.Nick, entry.Modes)

		if client.isSelf(entry.Nick) {
			client.setSelfMask(entry.User, entry.Host)
		}
	}

	client.tracker.SetMemberSorting(channelName, true)
	client.setChannel(event, channelName)

	return nil
}

func handleEndOfNames(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	if client.tracker.TrackedChannel(packet.Params[1]) != nil {
		client.setChannel(event, packet.Params[1])
	}

	return nil
}

type whoEntry struct {
	channel    string
	user       string
	host       string
	server     string
	nick       string
	flags      string
	realName   string
	account    string
	hasAccount bool
}

// handleWhoReply handles `<me> <channel> <user> <host> <server> <nick> <flags> :<hops> <realname>`.
func handleWhoReply(client *Client, event *Event, packet *Packet) error {
	if len(packet.Params) != 8 {
		return serverError(packet, "WHO reply with %d parameters", len(packet.Params))
	}

	params := packet.Params
	_, realName, _ := strings.Cut(params[7], " ")

	client.applyWho(event, whoEntry{
		channel:  params[1],
		user:     params[2],
		host:     params[3],
		server:   params[4],
		nick:     params[5],
		flags:    params[6],
		realName: realName,
	})

	return nil
}

// handleWhoxReply handles the reply to a WHO with the fields in state.WhoXFields.
func handleWhoxReply(client *Client, event *Event, packet *Packet) error {
	if len(packet.Params) != 9 {
		return serverError(packet, "WHOX reply with %d parameters", len(packet.Params))
	}

	params := packet.Params
	client.applyWho(event, whoEntry{
		channel:    params[1],
		user:       params[2],
		host:       params[3],
		server:     params[4],
		nick:       params[5],
		flags:      params[6],
		account:    params[7],
		hasAccount: true,
		realName:   params[8],
	})

	return nil
}

// applyWho updates the user, and its membership if the channel is tracked.
// Users the client does not already know of and shares no channel with are
// ignored.
func (client *Client) applyWho(event *Event, entry whoEntry) {
	tracked := client.tracker.TrackedChannel(entry.channel) != nil
	self := client.isSelf(entry.nick)
	if !tracked && !self && client.tracker.User(entry.nick) == nil {
		return
	}

	patch := state.UserPatch{
		User:     entry.user,
		Host:     entry.host,
		Server:   entry.server,
		RealName: entry.realName,
	}
	if entry.hasAccount {
		if entry.account == "0" {
			patch.ClearAccount = true
		} else {
			patch.Account = entry.account
		}
	}

	modes := ""
	for _, flag := range entry.flags {
		switch flag {
		case 'H':
			patch.SetAway = true
			patch.Away = false
		case 'G':
			patch.SetAway = true
			patch.Away = true
		case '*':
			patch.Operator = "IRC operator"
		default:
			if mode := client.isupport.Mode(flag); mode != 0 {
				modes += string(mode)
			}
		}
	}

	client.tracker.TrackNick(entry.nick)
	client.tracker.UpdateUser(entry.nick, patch)

	if tracked {
		client.tracker.TrackChannelMember(entry.channel, entry.nick, modes)
		client.setChannel(event, entry.channel)
	}
	if self {
		client.setSelfMask(entry.user, entry.host)
	}

	client.setSubject(event, entry.nick)
}

func handleEndOfWho(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	channelName := packet.Params[1]
	if client.tracker.TrackedChannel(channelName) == nil {
		return nil
	}

	client.tracker.SetListReceived(channelName)
	client.setChannel(event, channelName)

	return nil
}

// listMode gets the mask mode of a list reply, and the parameters after the
// channel name.
func (client *Client) listMode(packet *Packet) (mode rune, rest []string) {
	rest = packet.Params[2:]

	switch packet.Command {
	case "367", "368":
		mode = 'b'
	case "346", "347":
		if mode = client.isupport.InvexMode(); mode == 0 {
			mode = 'I'
		}
	case "348", "349":
		if mode = client.isupport.ExceptsMode(); mode == 0 {
			mode = 'e'
		}
	case "344", "345":
		mode = 'q'
	case "728", "729":
		if len(rest) > 0 && rest[0] != "" {
			mode = rune(rest[0][0])
			rest = rest[1:]
		}
	}

	return mode, rest
}

func (client *Client) modeListKey(channelName string, mode rune) string {
	return client.isupport.Fold(channelName) + " " + string(mode)
}

func handleModeListEntry(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	channelName := packet.Params[1]
	mode, rest := client.listMode(packet)
	if mode == 0 || len(rest) == 0 {
		return serverError(packet, "mode list entry without a mask")
	}
	if client.tracker.TrackedChannel(channelName) == nil || !client.tracker.IsTrackedMode(mode) {
		return nil
	}

	info := state.ModeInfo{Mode: mode, Mask: rest[0]}
	if len(rest) > 1 {
		info.SetBy = rest[1]
	}
	if len(rest) > 2 {
		if timestamp, err := strconv.ParseInt(rest[2], 10, 64); err == nil {
			info.SetAt = time.Unix(timestamp, 0)
		}
	}

	key := client.modeListKey(channelName, mode)
	client.modeLists[key] = append(client.modeLists[key], info)

	return nil
}

func handleModeListEnd(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	channelName := packet.Params[1]
	mode, _ := client.listMode(packet)
	if mode == 0 {
		return serverError(packet, "mode list end without a mode")
	}

	key := client.modeListKey(channelName, mode)
	infos := client.modeLists[key]
	delete(client.modeLists, key)

	if client.tracker.TrackedChannel(channelName) == nil {
		return nil
	}

	client.tracker.SetModeInfoList(channelName, mode, infos)
	client.setChannel(event, channelName)

	return nil
}

// setSelfMask updates the client's user and host if they are known.
func (client *Client) setSelfMask(user, host string) {
	if user == "" || host == "" {
		return
	}

	client.mutex.Lock()
	client.user = user
	client.host = host
	client.mutex.Unlock()
}
