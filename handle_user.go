package irc

import (
	"strconv"
	"strings"
	"time"

	"github.com/gissleh/irctrack/state"
)

// handleAccount handles `account-notify`.
func handleAccount(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 1); err != nil {
		return err
	}

	patch := state.UserPatch{}
	if account := packet.Params[0]; account == "*" {
		patch.ClearAccount = true
	} else {
		patch.Account = account
	}

	client.tracker.UpdateUser(event.Nick, patch)
	client.setSubject(event, event.Nick)

	return nil
}

// handleAway handles `away-notify`. No message means the user is back.
func handleAway(client *Client, event *Event, packet *Packet) error {
	message := packet.Param(0)

	client.tracker.UpdateUser(event.Nick, state.UserPatch{
		SetAway:     true,
		Away:        message != "",
		AwayMessage: message,
	})
	client.setSubject(event, event.Nick)

	return nil
}

// handleChghost handles `chghost`.
func handleChghost(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	client.tracker.UpdateUser(event.Nick, state.UserPatch{User: packet.Params[0], Host: packet.Params[1]})
	if client.isSelf(event.Nick) {
		client.setSelfMask(packet.Params[0], packet.Params[1])
	}

	client.setSubject(event, event.Nick)

	return nil
}

func handleAwayReply(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	nick := packet.Params[1]
	message := packet.Params[2]

	client.tracker.UpdateUser(nick, state.UserPatch{SetAway: true, Away: true, AwayMessage: message})
	if data := client.whois[client.isupport.Fold(nick)]; data != nil {
		data.Away = true
		data.AwayMessage = message
	}

	client.setSubject(event, nick)
	event.Target = nick

	return nil
}

func handleUnaway(client *Client, event *Event, packet *Packet) error {
	return client.setSelfAway(false)
}

func handleNowAway(client *Client, event *Event, packet *Packet) error {
	return client.setSelfAway(true)
}

func (client *Client) setSelfAway(away bool) error {
	client.mutex.Lock()
	client.away = away
	nick := client.nick
	client.mutex.Unlock()

	client.tracker.UpdateUser(nick, state.UserPatch{SetAway: true, Away: away})

	return nil
}

// whoisData gets the WHOIS reply being collected for the nick.
func (client *Client) whoisData(nick string) *WhoisData {
	key := client.isupport.Fold(nick)

	data := client.whois[key]
	if data == nil {
		data = &WhoisData{Nick: nick}
		client.whois[key] = data
	}

	return data
}

// handleWhoisUser handles `<me> <nick> <user> <host> * :<realname>`.
func handleWhoisUser(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 6); err != nil {
		return err
	}

	data := client.whoisData(packet.Params[1])
	data.Nick = packet.Params[1]
	data.User = packet.Params[2]
	data.Host = packet.Params[3]
	data.RealName = packet.Params[5]

	return nil
}

func handleWhoisServer(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	data := client.whoisData(packet.Params[1])
	data.Server = packet.Params[2]
	data.ServerInfo = packet.Param(3)

	return nil
}

func handleWhoisOperator(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	data := client.whoisData(packet.Params[1])
	data.Operator = strings.TrimPrefix(packet.Param(2), "is ")
	if data.Operator == "" {
		data.Operator = "IRC operator"
	}

	return nil
}

// handleWhoisIdle handles `<me> <nick> <seconds> [<signon>] :<text>`.
func handleWhoisIdle(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	idle, err := strconv.Atoi(packet.Params[2])
	if err != nil {
		return serverError(packet, "bad idle time %q", packet.Params[2])
	}

	data := client.whoisData(packet.Params[1])
	data.Idle = time.Duration(idle) * time.Second
	if len(packet.Params) > 4 {
		if signOn, err := strconv.ParseInt(packet.Params[3], 10, 64); err == nil {
			data.SignOn = time.Unix(signOn, 0)
		}
	}

	return nil
}

func handleWhoisChannels(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	data := client.whoisData(packet.Params[1])
	data.Channels = append(data.Channels, strings.Fields(packet.Params[2])...)

	return nil
}

func handleWhoisAccount(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	client.whoisData(packet.Params[1]).Account = packet.Params[2]

	return nil
}

func handleWhoisSecure(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	client.whoisData(packet.Params[1]).Secure = true

	return nil
}

// handleEndOfWhois updates the user if it's tracked or the WHOIS came from
// Client.Whois, and emits a `client.whois` event with the collected data.
func handleEndOfWhois(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	nick := packet.Params[1]
	key := client.isupport.Fold(nick)
	event.Target = nick

	client.mutex.Lock()
	pinned := client.whoisPinned[key]
	delete(client.whoisPinned, key)
	client.mutex.Unlock()

	data := client.whois[key]
	delete(client.whois, key)
	if data == nil {
		return nil
	}

	if pinned {
		client.tracker.TrackNick(data.Nick)
	}

	patch := state.UserPatch{
		User:        data.User,
		Host:        data.Host,
		RealName:    data.RealName,
		Server:      data.Server,
		Account:     data.Account,
		Operator:    data.Operator,
		SetAway:     true,
		Away:        data.Away,
		AwayMessage: data.AwayMessage,
	}
	client.tracker.UpdateUser(data.Nick, patch)
	client.setSubject(event, data.Nick)
	event.Whois = data

	whoisEvent := NewEvent("client", "whois")
	whoisEvent.Time = event.Time
	whoisEvent.Target = data.Nick
	whoisEvent.Whois = data
	whoisEvent.Subject = event.Subject
	client.Emit(whoisEvent)

	return nil
}
