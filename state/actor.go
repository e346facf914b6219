package state

import "regexp"

// An Actor is anything that can be the source of a message: a *UserRecord,
// a *ChannelRecord, a Server or a Generic actor.
type Actor interface {
	Name() string
	isActor()
}

// A Server is an actor whose name looks like a host name.
type Server struct {
	name string
}

// Name gets the server name. It's empty for lines without a source.
func (server Server) Name() string {
	return server.name
}

func (Server) isActor() {}

// A Generic actor is the fallback for names that are neither user masks,
// channels nor host names, like service names.
type Generic struct {
	name string
}

// Name gets the raw name.
func (generic Generic) Name() string {
	return generic.name
}

func (Generic) isActor() {}

var (
	userPattern   = regexp.MustCompile(`^([^!@]+)!([^!@]+)@([^!@]+)$`)
	serverPattern = regexp.MustCompile(`^(?:[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?\.)+[A-Za-z]+$`)
)

// SplitMask splits a nick!user@host mask. It returns false if the name is not
// a complete mask.
func SplitMask(mask string) (nick, user, host string, ok bool) {
	m := userPattern.FindStringSubmatch(mask)
	if m == nil {
		return "", "", "", false
	}

	return m[1], m[2], m[3], true
}

// IsServerName returns true for names that look like a host name with at
// least one dot, and a top label of letters only.
func IsServerName(name string) bool {
	return serverPattern.MatchString(name)
}

// Resolve classifies a message source. A user mask returns the tracked user
// if there is one, or a new record that is not registered. A channel name
// returns the tracked channel, or a transient one if the name is valid. Host
// names and the empty string become a Server, and anything else a Generic.
func (tracker *Tracker) Resolve(name string) Actor {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.resolve(name)
}

func (tracker *Tracker) resolve(name string) Actor {
	if nick, user, host, ok := SplitMask(name); ok {
		if record := tracker.users[tracker.fold(nick)]; record != nil {
			return record
		}

		return tracker.newUser(nick, user, host)
	}

	if channel := tracker.channel(name); channel != nil {
		return channel
	}

	if name == "" || IsServerName(name) {
		return Server{name: name}
	}

	return Generic{name: name}
}
