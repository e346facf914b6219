package handlers

import (
	"strings"

	"github.com/gissleh/irctrack"
	"github.com/gissleh/irctrack/ircutil"
)

// Input handles the default input. Commands that need a target, like /me,
// use the event's Target, which is set by Client.EmitInput.
func Input(event *irc.Event, client *irc.Client) {
	if event.Kind() != "input" {
		return
	}

	switch event.Verb() {

	// /msg sends a message to a target specified before the message.
	case "msg":
		{
			event.Kill()

			targetName, text := ircutil.ParseArgAndText(event.Text)
			if targetName == "" || text == "" {
				usage(client, "/msg <target> <text...>")
				break
			}

			reportSend(client, client.Say(targetName, text))
		}

	// /text (or text without a command) sends a message to the target.
	case "text":
		{
			event.Kill()

			if event.Text == "" {
				usage(client, "/text <text...>")
				break
			}
			if event.Target == "" {
				client.Emit(irc.NewErrorEvent("input", "There is no target to send the text to", nil))
				break
			}

			reportSend(client, client.Say(event.Target, event.Text))
		}

	// /me and /action sends a CTCP ACTION.
	case "me", "action":
		{
			event.Kill()

			if event.Text == "" {
				usage(client, "/me <text...>")
				break
			}
			if event.Target == "" {
				client.Emit(irc.NewErrorEvent("input", "There is no target to send the action to", nil))
				break
			}

			reportSend(client, client.Describe(event.Target, event.Text))
		}

	// /describe sends an action to a target specified before the message, like /msg.
	case "describe":
		{
			event.Kill()

			targetName, text := ircutil.ParseArgAndText(event.Text)
			if targetName == "" || text == "" {
				usage(client, "/describe <target> <text...>")
				break
			}

			reportSend(client, client.Describe(targetName, text))
		}

	// /m is a shorthand for /mode that targets the current channel
	case "m":
		{
			event.Kill()

			if event.Text == "" {
				usage(client, "/m <modes...>")
				break
			}
			if !client.ISupport().IsChannel(event.Target) {
				client.Emit(irc.NewErrorEvent("input", "Target is not a channel", nil))
				break
			}

			modes, args := ircutil.ParseArgAndText(event.Text)
			reportSend(client, client.Mode(event.Target, modes, strings.Fields(args)...))
		}

	case "mode":
		{
			event.Kill()

			fields := strings.Fields(event.Text)
			if len(fields) < 2 {
				usage(client, "/mode <target> <modes...>")
				break
			}

			reportSend(client, client.Mode(fields[0], fields[1], fields[2:]...))
		}

	case "join":
		{
			event.Kill()

			channel, key := ircutil.ParseArgAndText(event.Text)
			if channel == "" {
				usage(client, "/join <channels> [key]")
				break
			}

			if key != "" {
				reportSend(client, client.JoinWithKey(channel, key))
			} else {
				reportSend(client, client.Join(ircutil.SplitList(channel)...))
			}
		}

	// /part leaves the current channel, or the one given before the reason.
	case "part":
		{
			event.Kill()

			channel, reason := event.Target, event.Text
			if arg, rest := ircutil.ParseArgAndText(event.Text); client.ISupport().IsChannel(arg) {
				channel, reason = arg, rest
			}
			if !client.ISupport().IsChannel(channel) {
				usage(client, "/part [channel] [reason...]")
				break
			}

			reportSend(client, client.Part(channel, reason))
		}

	case "nick":
		{
			event.Kill()

			if event.Text == "" {
				usage(client, "/nick <nick>")
				break
			}

			reportSend(client, client.SetNick(event.Text))
		}

	case "topic":
		{
			event.Kill()

			if !client.ISupport().IsChannel(event.Target) {
				client.Emit(irc.NewErrorEvent("input", "Target is not a channel", nil))
				break
			}

			if event.Text == "" {
				reportSend(client, client.SendCommand("TOPIC", event.Target))
			} else {
				reportSend(client, client.SetTopic(event.Target, event.Text))
			}
		}

	case "who":
		{
			event.Kill()

			target := event.Text
			if target == "" {
				target = event.Target
			}
			if target == "" {
				usage(client, "/who <target>")
				break
			}

			reportSend(client, client.Who(target))
		}

	case "whois":
		{
			event.Kill()

			if event.Text == "" {
				usage(client, "/whois <nick>")
				break
			}

			reportSend(client, client.Whois(event.Text))
		}

	case "away":
		{
			event.Kill()
			reportSend(client, client.Away(event.Text))
		}

	case "back":
		{
			event.Kill()
			reportSend(client, client.Back())
		}

	case "quit":
		{
			event.Kill()
			reportSend(client, client.Quit(event.Text))
		}

	// /raw sends the text as it is.
	case "raw", "quote":
		{
			event.Kill()

			if event.Text == "" {
				usage(client, "/raw <line...>")
				break
			}

			reportSend(client, client.SendRaw(event.Text))
		}
	}
}

func usage(client *irc.Client, text string) {
	client.Emit(irc.NewErrorEvent("input", "Usage: "+text, nil))
}

func reportSend(client *irc.Client, err error) {
	if err != nil {
		client.Emit(irc.NewErrorEvent("input", err.Error(), err))
	}
}
