package irc

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultCapabilities are the capabilities requested if Config.Capabilities is
// empty.
var DefaultCapabilities = []string{
	"server-time",
	"cap-notify",
	"multi-prefix",
	"userhost-in-names",
	"account-notify",
	"away-notify",
	"extended-join",
	"chghost",
	"account-tag",
	"invite-notify",
}

// The Config for an IRC client.
type Config struct {
	// The nick that you go by. By default it's "IrcUser"
	Nick string `json:"nick" yaml:"nick" mapstructure:"nick"`

	// Alternatives are a list of nicks to try if Nick is occupied, in order of preference. When
	// they run out, a backtick is added to the rejected nick instead.
	Alternatives []string `json:"alternatives" yaml:"alternatives" mapstructure:"alternatives"`

	// User is sent along with all messages and commonly shown before the @ on join, quit, etc....
	// Some servers tack on a ~ in front of it if you do not have an ident server.
	User string `json:"user" yaml:"user" mapstructure:"user"`

	// RealName is shown in WHOIS as your real name. By default "..."
	RealName string `json:"realName" yaml:"realName" mapstructure:"realName"`

	// SkipSSLVerification disables SSL certificate verification. Do not do this
	// in production.
	SkipSSLVerification bool `json:"skipSslVerification" yaml:"skipSslVerification" mapstructure:"skipSslVerification"`

	// The Password used upon connection. This is not your NickServ/SASL password!
	Password string `json:"-" yaml:"password" mapstructure:"password"`

	// SendRate is the number of queued lines sent per second. By default 2.
	SendRate float64 `json:"sendRate" yaml:"sendRate" mapstructure:"sendRate"`

	// SendBurst is how many queued lines can be sent at once before SendRate
	// kicks in. By default 2.
	SendBurst int `json:"sendBurst" yaml:"sendBurst" mapstructure:"sendBurst"`

	// Capabilities are requested if the server supports them. By default
	// DefaultCapabilities.
	Capabilities []string `json:"capabilities" yaml:"capabilities" mapstructure:"capabilities"`

	// TrackedModes are the mask modes, like b, e, I and q, whose lists are
	// kept on the channels. None are kept by default.
	TrackedModes string `json:"trackedModes" yaml:"trackedModes" mapstructure:"trackedModes"`

	// WhoRefreshInterval is the shortest time between two WHO refreshes of a
	// channel. By default 5 seconds.
	WhoRefreshInterval time.Duration `json:"whoRefreshInterval" yaml:"whoRefreshInterval" mapstructure:"whoRefreshInterval"`

	// AutoJoinInvites makes the client join channels it's invited to.
	AutoJoinInvites bool `json:"autoJoinInvites" yaml:"autoJoinInvites" mapstructure:"autoJoinInvites"`

	// Logger gets the client's log output. Nothing is logged if it's nil.
	Logger *zerolog.Logger `json:"-" yaml:"-" mapstructure:"-"`
}

// WithDefaults returns the config with the default values
func (config Config) WithDefaults() Config {
	if config.Nick == "" {
		config.Nick = "IrcUser"
	}
	if config.User == "" {
		config.User = "IrcUser"
	}
	if config.RealName == "" {
		config.RealName = "..."
	}
	if config.SendRate <= 0 {
		config.SendRate = 2
	}
	if config.SendBurst <= 0 {
		config.SendBurst = 2
	}
	if len(config.Capabilities) == 0 {
		config.Capabilities = append([]string(nil), DefaultCapabilities...)
	}
	if config.WhoRefreshInterval <= 0 {
		config.WhoRefreshInterval = 5 * time.Second
	}

	return config
}
