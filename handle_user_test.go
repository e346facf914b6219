package irc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAccount(t *testing.T) {
	client, log := joinTest(t, Config{})

	feed(client, ":Voiced!v@voiced.example.com ACCOUNT VoicedAccount")

	user, ok := client.TrackedUser("Voiced")
	require.True(t, ok)
	assert.Equal(t, "VoicedAccount", user.Account)

	event := log.last("packet.account")
	require.NotNil(t, event.Subject)
	assert.Equal(t, "VoicedAccount", event.Subject.Account)

	feed(client, ":Voiced!v@voiced.example.com ACCOUNT *")

	assert.True(t, user.IsStale())
	user, _ = client.TrackedUser("Voiced")
	assert.Empty(t, user.Account)
}

func TestHandleAccountTag(t *testing.T) {
	client, _ := joinTest(t, Config{})

	feed(client, "@account=GisleAccount :Gisle!irce@10.32.0.1 PRIVMSG #Test :Hello")

	user, ok := client.TrackedUser("Gisle")
	require.True(t, ok)
	assert.Equal(t, "GisleAccount", user.Account)
}

func TestHandleAway(t *testing.T) {
	client, _ := joinTest(t, Config{})

	feed(client, ":Gisle!irce@10.32.0.1 AWAY :Gone fishing")

	user, _ := client.TrackedUser("Gisle")
	assert.True(t, user.Away)
	assert.Equal(t, "Gone fishing", user.AwayMessage)

	feed(client, ":Gisle!irce@10.32.0.1 AWAY")

	user, _ = client.TrackedUser("Gisle")
	assert.False(t, user.Away)
	assert.Empty(t, user.AwayMessage)
}

func TestHandleChghost(t *testing.T) {
	client, log := joinTest(t, Config{})

	feed(client, ":Voiced!v@voiced.example.com CHGHOST newuser new.example.com")

	user, _ := client.TrackedUser("Voiced")
	assert.Equal(t, "newuser", user.User)
	assert.Equal(t, "new.example.com", user.Host)
	assert.Equal(t, "Voiced!newuser@new.example.com", log.last("packet.chghost").Subject.DisplayName())

	feed(client, ":Tester!~tester@client.example.com CHGHOST ~t cloaked.example.com")

	assert.Equal(t, "~t", client.User())
	assert.Equal(t, "cloaked.example.com", client.Host())
}

func TestHandleAwayReply(t *testing.T) {
	client, log := joinTest(t, Config{})

	feed(client, ":irc.example.com 301 Tester Gisle :Out to lunch")

	user, _ := client.TrackedUser("Gisle")
	assert.True(t, user.Away)
	assert.Equal(t, "Out to lunch", user.AwayMessage)
	assert.Equal(t, "Gisle", log.last("packet.301").Target)
}

func TestHandleSelfAway(t *testing.T) {
	client, _ := joinTest(t, Config{})

	feed(client, ":irc.example.com 306 Tester :You have been marked as being away")
	assert.True(t, client.IsAway())
	user, _ := client.TrackedUser("Tester")
	assert.True(t, user.Away)

	feed(client, ":irc.example.com 305 Tester :You are no longer marked as being away")
	assert.False(t, client.IsAway())
	user, _ = client.TrackedUser("Tester")
	assert.False(t, user.Away)
}

var whoisLines = []string{
	":irc.example.com 311 Tester Stranger s stranger.example.com * :Strange Person",
	":irc.example.com 319 Tester Stranger :@#Test +#Other",
	":irc.example.com 312 Tester Stranger irc.example.com :Example server",
	":irc.example.com 313 Tester Stranger :is an IRC operator",
	":irc.example.com 301 Tester Stranger :Not here",
	":irc.example.com 317 Tester Stranger 42 1600000000 :seconds idle, signon time",
	":irc.example.com 330 Tester Stranger StrangeAccount :is logged in as",
	":irc.example.com 671 Tester Stranger :is using a secure connection",
	":irc.example.com 318 Tester Stranger :End of /WHOIS list.",
}

func TestHandleWhois(t *testing.T) {
	client, log := joinTest(t, Config{})

	feed(client, whoisLines...)

	event := log.last("client.whois")
	require.NotNil(t, event)
	assert.Equal(t, "Stranger", event.Target)
	assert.Nil(t, event.Subject)
	assert.Equal(t, &WhoisData{
		Nick:        "Stranger",
		User:        "s",
		Host:        "stranger.example.com",
		RealName:    "Strange Person",
		Server:      "irc.example.com",
		ServerInfo:  "Example server",
		Account:     "StrangeAccount",
		Operator:    "an IRC operator",
		Away:        true,
		AwayMessage: "Not here",
		Secure:      true,
		Idle:        42 * time.Second,
		SignOn:      time.Unix(1600000000, 0),
		Channels:    []string{"@#Test", "+#Other"},
	}, event.Whois)

	end := log.last("packet.318")
	require.NotNil(t, end)
	assert.Same(t, event.Whois, end.Whois)

	_, ok := client.TrackedUser("Stranger")
	assert.False(t, ok)
	assert.Empty(t, client.whois)
}

func TestHandleWhois_Pinned(t *testing.T) {
	client, log := joinTest(t, Config{})
	sent(client)

	require.NoError(t, client.Whois("stranger"))
	assert.Equal(t, []string{"WHOIS stranger"}, sent(client))

	feed(client, whoisLines...)

	user, ok := client.TrackedUser("Stranger")
	require.True(t, ok)
	assert.Equal(t, "Stranger!s@stranger.example.com", user.DisplayName())
	assert.Equal(t, "StrangeAccount", user.Account)
	assert.Equal(t, "an IRC operator", user.Operator)
	assert.True(t, user.Away)
	assert.Empty(t, user.Channels())

	event := log.last("client.whois")
	require.NotNil(t, event.Subject)
	assert.Equal(t, "Stranger", event.Subject.Nick)
}

func TestHandleWhois_Tracked(t *testing.T) {
	client, _ := joinTest(t, Config{})

	feed(client,
		":irc.example.com 311 Tester Gisle irce 10.32.0.1 * :Gisle's Real Name",
		":irc.example.com 312 Tester Gisle irc.example.com :Example server",
		":irc.example.com 318 Tester Gisle :End of /WHOIS list.",
	)

	user, _ := client.TrackedUser("Gisle")
	assert.Equal(t, "Gisle's Real Name", user.RealName)
	assert.Equal(t, "irc.example.com", user.Server)
	assert.False(t, user.Away)
}

func TestHandleWhois_NoReply(t *testing.T) {
	client, log := joinTest(t, Config{})

	feed(client,
		":irc.example.com 401 Tester Nobody :No such nick/channel",
		":irc.example.com 318 Tester Nobody :End of /WHOIS list.",
	)

	assert.Nil(t, log.last("client.whois"))
	assert.Equal(t, "Nobody", log.last("packet.318").Target)
}
