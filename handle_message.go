package irc

import (
	"strconv"
	"strings"

	"github.com/gissleh/irctrack/state"
)

// handleMessage finds the target of a PRIVMSG or NOTICE. For channel
// messages, including the `@#channel` kind, it's the channel. For private
// messages it's the other party's nick.
func handleMessage(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 1); err != nil {
		return err
	}

	target := packet.Params[0]
	if _, channelName, ok := client.isupport.TargetedChannel(target); ok {
		target = channelName
	}

	switch {
	case client.isupport.IsChannel(target):
		client.setChannel(event, target)
		if event.Channel != nil {
			if member, ok := event.Channel.Member(event.Nick); ok {
				event.RenderTags["prefixedNick"] = member.PrefixedNick
			}
		}
	case client.isSelf(target):
		event.Target = event.Nick
	default:
		event.Target = target
	}

	client.setSubject(event, event.Nick)

	return nil
}

// handleInvite handles both invites to the client and, with `invite-notify`,
// invites to others.
func handleInvite(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	channelName := packet.Params[1]
	client.setChannel(event, channelName)
	client.setSubject(event, event.Nick)

	if client.config.AutoJoinInvites && client.isSelf(packet.Params[0]) && client.tracker.TrackedChannel(channelName) == nil {
		return client.Join(channelName)
	}

	return nil
}

func handleWallops(client *Client, event *Event, packet *Packet) error {
	client.setSubject(event, event.Nick)
	return nil
}

func handleMotdStart(client *Client, event *Event, packet *Packet) error {
	client.motd = client.motd[:0]
	return nil
}

func handleMotd(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	line := strings.TrimPrefix(packet.Params[1], "- ")
	if line == "-" {
		line = ""
	}

	client.motd = append(client.motd, line)

	return nil
}

// handleEndOfMotd emits a `client.motd` event with the lines as its arguments,
// also on 422 where there is no MOTD.
func handleEndOfMotd(client *Client, event *Event, packet *Packet) error {
	motdEvent := NewEvent("client", "motd")
	motdEvent.Time = event.Time
	motdEvent.Args = append(motdEvent.Args, client.motd...)
	motdEvent.Text = strings.Join(client.motd, "\n")
	client.Emit(motdEvent)

	client.motd = nil

	return nil
}

// handleKnock handles `<me> <channel> <mask> :<text>`.
func handleKnock(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	client.setChannel(event, packet.Params[1])
	event.Actor = client.tracker.Resolve(packet.Params[2])
	if nick, _, _, ok := state.SplitMask(packet.Params[2]); ok {
		client.setSubject(event, nick)
	}

	return nil
}

// monitorTargets gets the nicks from a MONITOR reply's target list, which
// holds masks for 730 and nicks for the rest.
func monitorTargets(param string) []string {
	targets := strings.Split(param, ",")
	nicks := make([]string, 0, len(targets))
	for _, target := range targets {
		if target == "" {
			continue
		}

		nick, _, _ := strings.Cut(target, "!")
		nicks = append(nicks, nick)
	}

	return nicks
}

func (client *Client) setMonitored(nicks []string, online bool) {
	client.mutex.Lock()
	defer client.mutex.Unlock()

	for _, nick := range nicks {
		client.monitor[client.isupport.Fold(nick)] = online
	}
}

func handleMonitorOnline(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	client.setMonitored(monitorTargets(packet.Params[1]), true)
	return nil
}

func handleMonitorOffline(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	client.setMonitored(monitorTargets(packet.Params[1]), false)
	return nil
}

// handleMonitorList adds nicks from `MONITOR L`, without changing what's known
// about them being online.
func handleMonitorList(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	client.mutex.Lock()
	defer client.mutex.Unlock()

	for _, nick := range monitorTargets(packet.Params[1]) {
		key := client.isupport.Fold(nick)
		if _, ok := client.monitor[key]; !ok {
			client.monitor[key] = false
		}
	}

	return nil
}

func handleMonitorListEnd(client *Client, event *Event, packet *Packet) error {
	return nil
}

// handleMonitorListFull handles `<me> <limit> <targets> :<text>`. The targets
// were not added.
func handleMonitorListFull(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	if _, err := strconv.Atoi(packet.Params[1]); err != nil {
		return serverError(packet, "bad monitor limit %q", packet.Params[1])
	}

	client.mutex.Lock()
	defer client.mutex.Unlock()

	for _, nick := range monitorTargets(packet.Params[2]) {
		delete(client.monitor, client.isupport.Fold(nick))
	}

	return nil
}
