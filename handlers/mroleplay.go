package handlers

import (
	"strings"

	"github.com/gissleh/irctrack"
	"github.com/gissleh/irctrack/ircutil"
)

// MRoleplay is a handler that adds commands for cutting NPC commands, as well as cleaning up
// the input from the server. It's named after Charybdis IRCd's m_roleplay module.
func MRoleplay(event *irc.Event, client *irc.Client) {
	switch event.Name() {
	case "input.enablerp", "input.disablerp":
		{
			event.Kill()

			sign := "+"
			if event.Verb() == "disablerp" {
				sign = "-"
			}

			// If the target is a channel, use RPCHAN or, if not stated, N.
			if client.ISupport().IsChannel(event.Target) {
				chanMode, ok := client.ISupport().Get("RPCHAN")
				if !ok {
					chanMode = "N"
				}

				reportSend(client, client.Mode(event.Target, sign+chanMode))
				break
			}

			// Otherwise enable it on yourself, but only if RPUSER is set as that is not supported
			// by servers without this ISupport tag.
			if userMode, ok := client.ISupport().Get("RPUSER"); ok {
				reportSend(client, client.Mode(client.Nick(), sign+userMode))
			}
		}

	// Parse roleplaying messages, and replace underscored-nick with a render tag.
	case "packet.privmsg", "ctcp.action":
		{
			// Detect m_roleplay
			if strings.HasPrefix(event.Nick, "\x1F") && strings.HasSuffix(event.Nick, "\x1F") && len(event.Nick) > 2 {
				event.Nick = event.Nick[1 : len(event.Nick)-1]
				if event.Kind() == "packet" {
					event.RenderTags["mRoleplay"] = "npc"
				} else {
					event.RenderTags["mRoleplay"] = "npca"
				}
			} else if strings.HasPrefix(event.Nick, "=") {
				event.RenderTags["mRoleplay"] = "scene"
			} else {
				break
			}

			// Some servers put the sender in parentheses at the end.
			lastSpace := strings.LastIndex(event.Text, " ")
			lastParentheses := strings.LastIndex(event.Text, "(")
			if lastParentheses != -1 && lastSpace != -1 && lastParentheses == lastSpace+1 {
				event.Text = event.Text[:lastSpace]
			}
		}

	// NPC commands
	case "input.npcc", "input.npcac":
		{
			event.Kill()

			isAction := event.Verb() == "npcac"
			nick, text := ircutil.ParseArgAndText(event.Text)
			if nick == "" || text == "" {
				usage(client, "/"+event.Verb()+" <nick> <text...>")
				break
			}
			if !client.ISupport().IsChannel(event.Target) {
				client.Emit(irc.NewErrorEvent("input", "Target is not a channel", nil))
				break
			}

			npcCommand := "NPC"
			if isAction {
				npcCommand = "NPCA"
			}

			overhead := ircutil.MessageOverhead("\x1f"+nick+"\x1f", client.Nick(), "npc.fakeuser.invalid", event.Target, isAction)
			for _, cut := range ircutil.CutMessage(text, overhead) {
				reportSend(client, client.SendCommand(npcCommand, event.Target, nick, cut))
			}
		}

	// Scene/narrator command
	case "input.scenec", "input.narratorc":
		{
			event.Kill()

			if event.Text == "" {
				usage(client, "/"+event.Verb()+" <text...>")
				break
			}
			if !client.ISupport().IsChannel(event.Target) {
				client.Emit(irc.NewErrorEvent("input", "Target is not a channel", nil))
				break
			}

			overhead := ircutil.MessageOverhead("=Scene=", client.Nick(), "npc.fakeuser.invalid", event.Target, false)
			for _, cut := range ircutil.CutMessage(event.Text, overhead) {
				reportSend(client, client.SendCommand("SCENE", event.Target, cut))
			}
		}
	}
}
