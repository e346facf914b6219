package irc

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// EnableDebug logs all events that passes through the client at debug level,
// with the event as JSON. It's added with the lowest priority, so it will not
// see events killed by other handlers. The returned function removes it.
func EnableDebug(client *Client, logger zerolog.Logger) (remove func()) {
	return client.AddHandler(func(event *Event, client *Client) {
		data, err := json.Marshal(event)
		if err != nil {
			logger.Warn().Err(err).Str("event", event.Name()).Msg("Could not marshal event")
			return
		}

		logger.Debug().Str("event", event.Name()).RawJSON("data", data).Msg("Event")
	}, Priority(-1000))
}
