package irc

import (
	"strings"

	"github.com/gissleh/irctrack/caps"
	"github.com/gissleh/irctrack/state"
)

func handleWelcome(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 1); err != nil {
		return err
	}

	nick := packet.Params[0]

	client.mutex.Lock()
	client.nick = nick
	client.registered = true
	client.requestedNick = ""
	client.mutex.Unlock()

	client.tracker.SetSelf(nick)
	client.tracker.TrackNick(nick)

	// Servers without CAP never answer CAP LS.
	client.caps.EndNegotiation()

	// Find out the user and host.
	return client.SendCommand("WHO", nick)
}

// handleNickRejected tries the next nick while registering. After that, a
// rejected nick change is retried with a backtick added.
func handleNickRejected(client *Client, event *Event, packet *Packet) error {
	client.mutex.RLock()
	registered := client.registered
	rejected := client.requestedNick
	client.mutex.RUnlock()

	if registered {
		// Nothing is pending, so it's not a reply to this client's NICK.
		if rejected == "" {
			return nil
		}

		next := rejected + "`"

		client.mutex.Lock()
		client.requestedNick = next
		client.mutex.Unlock()

		return client.SendCommand("NICK", next)
	}

	if rejected == "" && packet.Command != "431" {
		rejected = packet.Param(1)
	}
	if rejected == "" {
		rejected = client.config.Nick
	}

	next := client.nextNick(rejected)

	client.mutex.Lock()
	client.requestedNick = next
	client.mutex.Unlock()

	return client.SendCommand("NICK", next)
}

// nextNick goes through the alternatives, and then adds a backtick.
func (client *Client) nextNick(rejected string) string {
	alternatives := client.config.Alternatives
	if rejected == client.config.Nick && len(alternatives) > 0 {
		return alternatives[0]
	}

	for i, alternative := range alternatives {
		if alternative == rejected && i+1 < len(alternatives) {
			return alternatives[i+1]
		}
	}

	return rejected + "`"
}

func handleISupport(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	tokens := packet.Params[1:]
	if packet.Trailing {
		tokens = tokens[:len(tokens)-1]
	}

	caseMapping := client.isupport.CaseMapping()
	prefix, _ := client.isupport.Get("PREFIX")

	for _, err := range client.isupport.Apply(tokens) {
		client.reportError("isupport", err)
	}

	newPrefix, _ := client.isupport.Get("PREFIX")
	if client.isupport.CaseMapping() != caseMapping || newPrefix != prefix {
		client.tracker.Refold()
	}

	return nil
}

func handleUserModeIs(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 2); err != nil {
		return err
	}

	modes := state.ApplyUserModes("", state.ParseUserModes(packet.Params[1]))

	client.mutex.Lock()
	client.userModes = modes
	client.mutex.Unlock()

	return nil
}

func handleCap(client *Client, event *Event, packet *Packet) error {
	if err := needParams(packet, 3); err != nil {
		return err
	}

	subcommand := strings.ToUpper(packet.Params[1])
	list := packet.Params[len(packet.Params)-1]
	more := len(packet.Params) >= 4 && packet.Params[2] == "*"

	switch subcommand {
	case "LS":
		client.caps.AddSupportedCapabilities(caps.ParseList(list))
		if !more {
			client.requestCaps(client.caps.Missing(client.config.Capabilities))
		}
	case "ACK":
		client.caps.UpdateCapabilities(caps.ParseList(list))
		client.capsPending--
		client.endCapsIfDone()
	case "NAK":
		client.capsPending--
		client.endCapsIfDone()
	case "NEW":
		changes := caps.ParseList(list)
		client.caps.AddSupportedCapabilities(changes)

		// Only the new ones, since the others were already requested.
		added := make(map[string]bool, len(changes))
		for _, change := range changes {
			added[change.Name] = true
		}
		names := make([]string, 0, len(changes))
		for _, name := range client.caps.Missing(client.config.Capabilities) {
			if added[name] {
				names = append(names, name)
			}
		}

		client.requestCaps(names)
	case "DEL":
		changes := caps.ParseList(list)
		names := make([]string, 0, len(changes))
		for _, change := range changes {
			names = append(names, change.Name)
		}

		client.caps.RemoveSupportedCapabilities(names)
	case "LIST":
		changes := caps.ParseList(list)
		if client.capListing {
			client.caps.UpdateCapabilities(changes)
		} else {
			client.caps.SetCapabilities(changes)
		}

		client.capListing = more
	default:
		return serverError(packet, "unknown CAP subcommand %s", subcommand)
	}

	return nil
}

// requestCaps requests the capabilities, or ends the negotiation if there's
// nothing to request.
func (client *Client) requestCaps(names []string) {
	if len(names) == 0 {
		client.endCapsIfDone()
		return
	}

	client.capsPending++
	_ = client.SendCommand("CAP", "REQ", strings.Join(names, " "))
}

func (client *Client) endCapsIfDone() {
	if client.capsPending > 0 {
		return
	}

	client.capsPending = 0
	if client.caps.EndNegotiation() {
		_ = client.SendCommand("CAP", "END")
	}
}

func handlePing(client *Client, event *Event, packet *Packet) error {
	return client.SendCommand("PONG", packet.Params...)
}

func handleServerError(client *Client, event *Event, packet *Packet) error {
	client.logger.Warn().Str("message", packet.Param(0)).Msg("Server sent ERROR")
	return nil
}
