package irc

import (
	"github.com/gissleh/irctrack/state"
)

// ClientState is a point-in-time view of the client, ready to be marshaled
// and sent to whatever shows it.
type ClientState struct {
	ID         string            `json:"id"`
	Nick       string            `json:"nick"`
	User       string            `json:"user"`
	Host       string            `json:"host"`
	UserModes  string            `json:"userModes"`
	Away       bool              `json:"away"`
	Connected  bool              `json:"connected"`
	Registered bool              `json:"registered"`
	ISupport   map[string]string `json:"isupport"`
	Caps       []string          `json:"caps"`
	Channels   []state.Channel   `json:"channels"`
}

// State gets the client's state.
func (client *Client) State() ClientState {
	client.mutex.RLock()
	clientState := ClientState{
		ID:         client.id,
		Nick:       client.nick,
		User:       client.user,
		Host:       client.host,
		UserModes:  client.userModes,
		Away:       client.away,
		Connected:  client.conn != nil,
		Registered: client.registered,
	}
	client.mutex.RUnlock()

	clientState.ISupport = client.isupport.State()
	clientState.Caps = client.caps.EnabledList()
	clientState.Channels = client.Channels()

	return clientState
}
