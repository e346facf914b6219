package irc

import (
	"strings"

	"github.com/gissleh/irctrack/ircutil"
)

// Join joins one or more channels. The join is not done until the server
// confirms it with a JOIN of its own.
func (client *Client) Join(channels ...string) error {
	if len(channels) == 0 {
		return nil
	}

	return client.SendCommand("JOIN", strings.Join(channels, ","))
}

// JoinWithKey joins a channel with a key (+k).
func (client *Client) JoinWithKey(channel, key string) error {
	return client.SendCommand("JOIN", channel, key)
}

// Part leaves a channel. The reason may be empty.
func (client *Client) Part(channel, reason string) error {
	if reason == "" {
		return client.SendCommand("PART", channel)
	}

	return client.SendCommand("PART", channel, reason)
}

// Quit sends a QUIT, after which the server will close the connection.
func (client *Client) Quit(reason string) error {
	client.mutex.Lock()
	client.quit = true
	client.mutex.Unlock()

	if reason == "" {
		return client.SendCommand("QUIT")
	}

	return client.SendCommand("QUIT", reason)
}

// SetNick asks the server to change the client's nick. If it's rejected, a
// backtick is added and it's tried again.
func (client *Client) SetNick(nick string) error {
	line, err := FormatCommand("NICK", nick)
	if err != nil {
		return err
	}

	client.mutex.Lock()
	client.requestedNick = nick
	client.mutex.Unlock()

	client.SendQueued(line)
	return nil
}

// Mode changes the modes of a channel, or the client's own user modes.
func (client *Client) Mode(target, modes string, args ...string) error {
	return client.SendCommand("MODE", append([]string{target, modes}, args...)...)
}

// RequestModeList asks for the entries of a list mode, like `b` for bans. The
// replies end up on the channel if the mode is in Config.TrackedModes.
func (client *Client) RequestModeList(channel string, mode rune) error {
	return client.SendCommand("MODE", channel, "+"+string(mode))
}

// Who sends a WHO for the target, using WHOX to get accounts if the server
// has it.
func (client *Client) Who(target string) error {
	if client.isupport.WhoX() {
		return client.SendCommand("WHO", target, "%cuhsnfar")
	}

	return client.SendCommand("WHO", target)
}

// Whois sends a WHOIS for the nick. The reply will be a `client.whois` event,
// and the user will be kept track of even if it shares no channel with the
// client.
func (client *Client) Whois(nick string) error {
	client.mutex.Lock()
	client.whoisPinned[client.isupport.Fold(nick)] = true
	client.mutex.Unlock()

	return client.SendCommand("WHOIS", nick)
}

// SetTopic changes a channel's topic.
func (client *Client) SetTopic(channel, topic string) error {
	return client.SendCommand("TOPIC", channel, topic)
}

// Kick kicks a user from a channel. The reason may be empty.
func (client *Client) Kick(channel, nick, reason string) error {
	if reason == "" {
		return client.SendCommand("KICK", channel, nick)
	}

	return client.SendCommand("KICK", channel, nick, reason)
}

// Invite invites a user to a channel.
func (client *Client) Invite(nick, channel string) error {
	return client.SendCommand("INVITE", nick, channel)
}

// Knock asks to be invited to a channel.
func (client *Client) Knock(channel, message string) error {
	if message == "" {
		return client.SendCommand("KNOCK", channel)
	}

	return client.SendCommand("KNOCK", channel, message)
}

// Away marks the client as away. Use Back to undo it.
func (client *Client) Away(message string) error {
	if message == "" {
		message = "Away"
	}

	return client.SendCommand("AWAY", message)
}

// Back marks the client as no longer away.
func (client *Client) Back() error {
	return client.SendCommand("AWAY")
}

// Monitor adds nicks to or removes nicks from the server's MONITOR list.
func (client *Client) Monitor(add bool, nicks ...string) error {
	if len(nicks) == 0 {
		return nil
	}

	if add {
		return client.SendCommand("MONITOR", "+", strings.Join(nicks, ","))
	}

	client.mutex.Lock()
	for _, nick := range nicks {
		delete(client.monitor, client.isupport.Fold(nick))
	}
	client.mutex.Unlock()

	return client.SendCommand("MONITOR", "-", strings.Join(nicks, ","))
}

// Say sends a PRIVMSG to the target, cut into as many messages as is needed.
func (client *Client) Say(target, text string) error {
	return client.sendMessage("PRIVMSG", target, text)
}

// Notice sends a NOTICE to the target, cut into as many messages as is needed.
func (client *Client) Notice(target, text string) error {
	return client.sendMessage("NOTICE", target, text)
}

// Describe sends a CTCP ACTION (/me) to the target.
func (client *Client) Describe(target, text string) error {
	overhead := client.PrivmsgOverhead(target, true)
	for _, cut := range ircutil.CutMessage(text, overhead) {
		if err := client.SendCTCP("ACTION", target, false, cut); err != nil {
			return err
		}
	}

	return nil
}

// SendCTCP sends a CTCP message, or a reply to one if reply is true.
func (client *Client) SendCTCP(verb, target string, reply bool, text string) error {
	command := "PRIVMSG"
	if reply {
		command = "NOTICE"
	}

	return client.SendCommand(command, target, ircutil.FormatCTCP(verb, text))
}

// SendRaw queues a line as it is.
func (client *Client) SendRaw(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if ircutil.LineTooLong(line) {
		return ErrLineTooLong
	}

	client.SendQueued(line)
	return nil
}

func (client *Client) sendMessage(command, target, text string) error {
	overhead := client.PrivmsgOverhead(target, false)
	for _, cut := range ircutil.CutMessage(text, overhead) {
		if err := client.SendCommand(command, target, cut); err != nil {
			return err
		}
	}

	return nil
}
