package irc

import (
	"fmt"
	"sort"

	"github.com/gissleh/irctrack/state"
)

// A packetHandler applies a server line to the client's state before the
// event reaches the handlers. It can fill in the event's snapshots.
type packetHandler func(client *Client, event *Event, packet *Packet) error

// packetHandlers maps commands and numerics to what they do to the state.
var packetHandlers = map[string]packetHandler{
	// Registration and the connection
	"001":   handleWelcome,
	"005":   handleISupport,
	"221":   handleUserModeIs,
	"431":   handleNickRejected,
	"432":   handleNickRejected,
	"433":   handleNickRejected,
	"CAP":   handleCap,
	"PING":  handlePing,
	"ERROR": handleServerError,

	// Channels
	"JOIN":  handleJoin,
	"PART":  handlePart,
	"KICK":  handleKick,
	"QUIT":  handleQuit,
	"NICK":  handleNick,
	"TOPIC": handleTopic,
	"MODE":  handleMode,
	"324":   handleChannelModeIs,
	"331":   handleNoTopic,
	"332":   handleTopicReply,
	"333":   handleTopicWhoTime,
	"353":   handleNames,
	"366":   handleEndOfNames,
	"352":   handleWhoReply,
	"354":   handleWhoxReply,
	"315":   handleEndOfWho,
	"367":   handleModeListEntry,
	"368":   handleModeListEnd,
	"346":   handleModeListEntry,
	"347":   handleModeListEnd,
	"348":   handleModeListEntry,
	"349":   handleModeListEnd,
	"344":   handleModeListEntry,
	"345":   handleModeListEnd,
	"728":   handleModeListEntry,
	"729":   handleModeListEnd,

	// Users
	"ACCOUNT": handleAccount,
	"AWAY":    handleAway,
	"CHGHOST": handleChghost,
	"301":     handleAwayReply,
	"305":     handleUnaway,
	"306":     handleNowAway,
	"311":     handleWhoisUser,
	"312":     handleWhoisServer,
	"313":     handleWhoisOperator,
	"317":     handleWhoisIdle,
	"319":     handleWhoisChannels,
	"330":     handleWhoisAccount,
	"671":     handleWhoisSecure,
	"318":     handleEndOfWhois,

	// Messages and the rest
	"PRIVMSG": handleMessage,
	"NOTICE":  handleMessage,
	"INVITE":  handleInvite,
	"WALLOPS": handleWallops,
	"375":     handleMotdStart,
	"372":     handleMotd,
	"376":     handleEndOfMotd,
	"422":     handleEndOfMotd,
	"710":     handleKnock,
	"730":     handleMonitorOnline,
	"731":     handleMonitorOffline,
	"732":     handleMonitorList,
	"733":     handleMonitorListEnd,
	"734":     handleMonitorListFull,
}

func needParams(packet *Packet, n int) error {
	if len(packet.Params) < n {
		return &ServerMessageError{
			Line:   packet.Raw,
			Reason: fmt.Sprintf("%s needs %d parameters, got %d", packet.Command, n, len(packet.Params)),
		}
	}

	return nil
}

func serverError(packet *Packet, format string, args ...interface{}) error {
	return &ServerMessageError{Line: packet.Raw, Reason: fmt.Sprintf(format, args...)}
}

// isSelf returns true if the nick is the client's.
func (client *Client) isSelf(nick string) bool {
	if client.tracker.IsSelf(nick) {
		return true
	}

	client.mutex.RLock()
	defer client.mutex.RUnlock()

	return client.nick != "" && client.isupport.Fold(nick) == client.isupport.Fold(client.nick)
}

// setChannel puts a snapshot of the channel on the event, and makes it the
// event's target.
func (client *Client) setChannel(event *Event, name string) {
	record := client.tracker.Channel(name)
	if record == nil {
		return
	}

	snapshot := record.Snapshot()
	event.Channel = &snapshot
	event.Target = snapshot.Name
}

// setSubject puts a snapshot of the user on the event if it's tracked.
func (client *Client) setSubject(event *Event, nick string) {
	record := client.tracker.User(nick)
	if record == nil {
		return
	}

	snapshot := record.Snapshot()
	event.Subject = &snapshot
}

// sourceUser gets the tracked record of the event's source, tracking it by its
// full mask if it was not tracked.
func (client *Client) sourceUser(event *Event) *state.UserRecord {
	if record, ok := event.Actor.(*state.UserRecord); ok {
		return client.tracker.TrackUser(record)
	}

	return client.tracker.TrackNick(event.Nick)
}

func sortChannels(channels []state.Channel) {
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Name < channels[j].Name
	})
}
