package irc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Commands(t *testing.T) {
	table := []struct {
		Name  string
		Run   func(client *Client) error
		Lines []string
	}{
		{"Join", func(c *Client) error { return c.Join("#a", "#b") }, []string{"JOIN #a,#b"}},
		{"JoinNone", func(c *Client) error { return c.Join() }, nil},
		{"JoinWithKey", func(c *Client) error { return c.JoinWithKey("#Secret", "hunter2") }, []string{"JOIN #Secret hunter2"}},
		{"Part", func(c *Client) error { return c.Part("#Test", "") }, []string{"PART #Test"}},
		{"PartReason", func(c *Client) error { return c.Part("#Test", "See you") }, []string{"PART #Test :See you"}},
		{"Quit", func(c *Client) error { return c.Quit("Bye now") }, []string{"QUIT :Bye now"}},
		{"SetNick", func(c *Client) error { return c.SetNick("Other") }, []string{"NICK Other"}},
		{"Mode", func(c *Client) error { return c.Mode("#Test", "+ov", "Gisle", "Voiced") }, []string{"MODE #Test +ov Gisle Voiced"}},
		{"RequestModeList", func(c *Client) error { return c.RequestModeList("#Test", 'b') }, []string{"MODE #Test +b"}},
		{"Who", func(c *Client) error { return c.Who("#Test") }, []string{"WHO #Test"}},
		{"SetTopic", func(c *Client) error { return c.SetTopic("#Test", "New topic") }, []string{"TOPIC #Test :New topic"}},
		{"Kick", func(c *Client) error { return c.Kick("#Test", "Voiced", "Go away") }, []string{"KICK #Test Voiced :Go away"}},
		{"Invite", func(c *Client) error { return c.Invite("Voiced", "#Test") }, []string{"INVITE Voiced #Test"}},
		{"Knock", func(c *Client) error { return c.Knock("#Secret", "Let me in") }, []string{"KNOCK #Secret :Let me in"}},
		{"Away", func(c *Client) error { return c.Away("") }, []string{"AWAY Away"}},
		{"Back", func(c *Client) error { return c.Back() }, []string{"AWAY"}},
		{"Monitor", func(c *Client) error { return c.Monitor(true, "Alice", "Bob") }, []string{"MONITOR + Alice,Bob"}},
		{"Say", func(c *Client) error { return c.Say("#Test", "Hello there") }, []string{"PRIVMSG #Test :Hello there"}},
		{"Notice", func(c *Client) error { return c.Notice("Gisle", "Hi") }, []string{"NOTICE Gisle Hi"}},
		{"Describe", func(c *Client) error { return c.Describe("#Test", "waves") }, []string{"PRIVMSG #Test :\x01ACTION waves\x01"}},
		{"SendCTCP", func(c *Client) error { return c.SendCTCP("VERSION", "Gisle", true, "irctrack 1.0") }, []string{"NOTICE Gisle :\x01VERSION irctrack 1.0\x01"}},
		{"SendRaw", func(c *Client) error { return c.SendRaw("PRIVMSG #Test :raw line\r\n") }, []string{"PRIVMSG #Test :raw line"}},
	}

	for _, row := range table {
		t.Run(row.Name, func(t *testing.T) {
			client := newTestClient(t, Config{Nick: "Tester"})
			register(client, "Tester")

			require.NoError(t, row.Run(client))
			assert.Equal(t, row.Lines, sent(client))
		})
	}
}

func TestClient_WhoX(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester"})
	register(client, "Tester")
	feed(client, ":irc.example.com 005 Tester WHOX :are supported by this server")

	require.NoError(t, client.Who("#Test"))
	assert.Equal(t, []string{"WHO #Test %cuhsnfar"}, sent(client))
}

func TestClient_SayLong(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester"})
	register(client, "Tester")
	feed(client, ":irc.example.com 352 Tester * ~tester client.example.com irc.example.com Tester H :0 Test User")

	text := strings.Repeat("Lorem ipsum dolor sit amet. ", 30)
	require.NoError(t, client.Say("#Test", text))

	lines := sent(client)
	require.True(t, len(lines) > 1)

	joined := ""
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "PRIVMSG #Test :"))
		assert.LessOrEqual(t, len(":Tester!~tester@client.example.com "+line+"\r\n"), 512)

		joined += strings.TrimPrefix(line, "PRIVMSG #Test :") + " "
	}

	assert.Equal(t, strings.Fields(text), strings.Fields(joined))
}

func TestClient_CommandErrors(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester"})

	assert.Equal(t, ErrLineTooLong, client.SendRaw("PRIVMSG #Test :"+strings.Repeat("a", 600)))
	assert.Equal(t, ErrLineTooLong, client.SetTopic("#Test", strings.Repeat("a", 600)))
	assert.Error(t, client.SendCommand("KICK", "#Test", "two words", "reason"))
	assert.Empty(t, sent(client))

	_, err := FormatCommand("PRIVMSG", "#Test", "")
	assert.NoError(t, err)
}
