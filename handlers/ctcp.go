package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gissleh/irctrack"
)

// DefaultClientInfo is the CLIENTINFO reply unless the `ctcp.clientinfo.reply`
// client value is set.
const DefaultClientInfo = "ACTION CLIENTINFO PING TIME VERSION"

// DefaultVersion is the VERSION reply unless the `ctcp.version.reply` client
// value is set.
const DefaultVersion = "github.com/gissleh/irctrack v1.0"

// CTCP implements the widely used CTCP commands (CLIENTINFO, VERSION, TIME, and PING), as well as the /ping command.
// It does not implement DCC.
//
// For every other CTCP command supported, you should expand the `ctcp.clientinfo.reply` client value.
func CTCP(event *irc.Event, client *irc.Client) {
	switch event.Name() {
	case "ctcp.clientinfo":
		{
			response := DefaultClientInfo
			if r, ok := client.Value("ctcp.clientinfo.reply"); ok {
				if s, ok := r.(string); ok {
					response = s
				}
			}

			_ = client.SendCTCP("CLIENTINFO", event.Nick, true, response)
		}
	case "ctcp.version":
		{
			version := DefaultVersion
			if v, ok := client.Value("ctcp.version.reply"); ok {
				if s, ok := v.(string); ok {
					version = s
				}
			}

			_ = client.SendCTCP("VERSION", event.Nick, true, version)
		}
	case "ctcp.time":
		{
			_ = client.SendCTCP("TIME", event.Nick, true, time.Now().Local().Format(time.RFC1123))
		}
	case "ctcp.ping":
		{
			_ = client.SendCTCP("PING", event.Nick, true, event.Text)
		}
	case "input.ping":
		{
			event.Kill()

			targetName, _, _ := strings.Cut(event.Text, " ")
			if targetName == "" {
				targetName = event.Target
			}
			if targetName == "" {
				client.Emit(irc.NewErrorEvent("input", "Usage: /ping <target>", nil))
				break
			}

			_ = client.SendCTCP("PING", targetName, false, strconv.FormatInt(time.Now().UnixNano()/1000000, 10))
		}
	}
}
