package irc

import (
	"errors"
	"fmt"
)

// ErrNoConnection is returned if you try to do something requiring a connection,
// but there is none.
var ErrNoConnection = errors.New("irc: no connection")

// ErrLineTooLong is returned when a line would be cut off by the server.
var ErrLineTooLong = errors.New("irc: line too long")

// ErrDestroyed is returned when the client has been destroyed.
var ErrDestroyed = errors.New("irc: client destroyed")

// A MalformedMessageError is returned by ParsePacket when there is no command
// to be found in the line.
type MalformedMessageError struct {
	Line string
}

func (err *MalformedMessageError) Error() string {
	return fmt.Sprintf("irc: malformed line %q", err.Line)
}

// A MessageTagError is returned by ParsePacket for a broken tag section.
type MessageTagError struct {
	Line   string
	Reason string
}

func (err *MessageTagError) Error() string {
	return fmt.Sprintf("irc: bad tags (%s) in %q", err.Reason, err.Line)
}

// A ServerMessageError is reported when a well-formed line does not make sense,
// like a MODE for a channel the client is not in, or a WHO reply with too few
// parameters.
type ServerMessageError struct {
	Line   string
	Reason string
}

func (err *ServerMessageError) Error() string {
	return fmt.Sprintf("irc: %s: %q", err.Reason, err.Line)
}

// An EventHandlerError is reported when a handler panics. The other handlers
// still get the event.
type EventHandlerError struct {
	Event string
	Value interface{}
}

func (err *EventHandlerError) Error() string {
	return fmt.Sprintf("irc: handler panicked on %s: %v", err.Event, err.Value)
}

// An InternalError is reported when processing a line panics, which means the
// state got out of sync with the server.
type InternalError struct {
	Line  string
	Value interface{}
}

func (err *InternalError) Error() string {
	return fmt.Sprintf("irc: processing %q failed: %v", err.Line, err.Value)
}
