package irc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient makes a client without its goroutines. Lines and events are
// handled by feed, and the sent lines are read with sent.
func newTestClient(t *testing.T, config Config) *Client {
	t.Helper()

	client := newClient(context.Background(), config)
	t.Cleanup(client.cancel)

	return client
}

func feed(client *Client, lines ...string) {
	for _, line := range lines {
		client.Input(line)
	}

	client.processQueue()
}

func emit(client *Client, event Event) {
	client.Emit(event)
	client.processQueue()
}

func sent(client *Client) []string {
	var lines []string
	for {
		select {
		case line := <-client.sends:
			lines = append(lines, line)
		default:
			return lines
		}
	}
}

// register gets the client through 001 and a typical 005.
func register(client *Client, nick string) {
	feed(client,
		":irc.example.com 001 "+nick+" :Welcome to the Internet Relay Network "+nick,
		":irc.example.com 005 "+nick+" CHANTYPES=#& PREFIX=(ov)@+ CHANMODES=eIbq,k,flj,CFLNPQcgimnprstz CASEMAPPING=rfc1459 STATUSMSG=@+ EXCEPTS INVEX MONITOR=100 :are supported by this server",
	)
	sent(client)
}

// eventLog keeps copies of the events a client dispatches.
type eventLog struct {
	events []Event
}

func (log *eventLog) handler(event *Event, _ *Client) {
	log.events = append(log.events, *event)
}

func (log *eventLog) last(name string) *Event {
	for i := len(log.events) - 1; i >= 0; i-- {
		if log.events[i].Name() == name {
			return &log.events[i]
		}
	}

	return nil
}

func (log *eventLog) names() []string {
	names := make([]string, 0, len(log.events))
	for _, event := range log.events {
		names = append(names, event.Name())
	}

	return names
}

func TestClient_Connect(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester", User: "tester", RealName: "Test User", Password: "hunter2"})

	emit(client, NewEvent("client", "connect"))

	assert.Equal(t, []string{
		"CAP LS 302",
		"PASS hunter2",
		"NICK Tester",
		"USER tester 8 * :Test User",
	}, sent(client))
}

func TestClient_NickRejected(t *testing.T) {
	t.Run("Backtick", func(t *testing.T) {
		client := newTestClient(t, Config{Nick: "bob"})
		emit(client, NewEvent("client", "connect"))
		sent(client)

		feed(client, ":irc.example.com 433 * bob :Nickname is already in use")
		assert.Equal(t, []string{"NICK bob`"}, sent(client))

		feed(client, ":irc.example.com 433 * bob` :Nickname is already in use")
		assert.Equal(t, []string{"NICK bob``"}, sent(client))
	})

	t.Run("Alternatives", func(t *testing.T) {
		client := newTestClient(t, Config{Nick: "Test", Alternatives: []string{"Test2", "Test3"}})
		emit(client, NewEvent("client", "connect"))
		sent(client)

		feed(client, ":irc.example.com 433 * Test :Nickname is already in use")
		assert.Equal(t, []string{"NICK Test2"}, sent(client))
		feed(client, ":irc.example.com 432 * Test2 :Erroneous nickname")
		assert.Equal(t, []string{"NICK Test3"}, sent(client))
		feed(client, ":irc.example.com 433 * Test3 :Nickname is already in use")
		assert.Equal(t, []string{"NICK Test3`"}, sent(client))
	})

	t.Run("AfterRegistration", func(t *testing.T) {
		log := &eventLog{}
		client := newTestClient(t, Config{Nick: "alice"})
		client.AddHandler(log.handler)
		register(client, "alice")

		require.NoError(t, client.SetNick("bob"))
		assert.Equal(t, []string{"NICK bob"}, sent(client))

		feed(client, ":irc.example.com 433 alice bob :Nickname is already in use")
		assert.Equal(t, []string{"NICK bob`"}, sent(client))
		assert.NotNil(t, log.last("packet.433"))

		feed(client, ":irc.example.com 433 alice bob` :Nickname is already in use")
		assert.Equal(t, []string{"NICK bob``"}, sent(client))

		feed(client, ":alice!a@a.example.com NICK bob``")
		assert.Equal(t, "bob``", client.Nick())

		feed(client, ":irc.example.com 433 bob`` carol :Nickname is already in use")
		assert.Empty(t, sent(client))
		assert.Equal(t, "bob``", client.Nick())
	})

	t.Run("NothingPending", func(t *testing.T) {
		client := newTestClient(t, Config{Nick: "bob"})
		register(client, "bob")

		feed(client, ":irc.example.com 433 bob alice :Nickname is already in use")
		assert.Empty(t, sent(client))
		assert.Equal(t, "bob", client.Nick())
	})
}

func TestClient_CapNegotiation(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester"})
	emit(client, NewEvent("client", "connect"))
	sent(client)

	feed(client, ":irc.example.com CAP * LS * :multi-prefix chghost sasl=PLAIN")
	assert.Empty(t, sent(client))

	feed(client, ":irc.example.com CAP * LS :userhost-in-names vendor/custom")
	assert.Equal(t, []string{"CAP REQ :multi-prefix userhost-in-names chghost"}, sent(client))
	assert.True(t, client.Caps().IsNegotiating())

	feed(client, ":irc.example.com CAP * ACK :multi-prefix userhost-in-names chghost")
	assert.Equal(t, []string{"CAP END"}, sent(client))
	assert.False(t, client.Caps().IsNegotiating())
	assert.True(t, client.CapEnabled("multi-prefix"))
	assert.True(t, client.CapEnabled("chghost"))
	assert.False(t, client.CapEnabled("sasl"))
	assert.False(t, client.CapEnabled("vendor/custom"))

	feed(client, ":irc.example.com 001 Tester :Welcome")
	sent(client)

	feed(client, ":irc.example.com CAP Tester NEW :invite-notify")
	assert.Equal(t, []string{"CAP REQ invite-notify"}, sent(client))
	feed(client, ":irc.example.com CAP Tester ACK :invite-notify")
	assert.Empty(t, sent(client))
	assert.True(t, client.CapEnabled("invite-notify"))

	feed(client, ":irc.example.com CAP Tester DEL :chghost")
	assert.False(t, client.CapEnabled("chghost"))

	feed(client,
		":irc.example.com CAP Tester LIST * :multi-prefix",
		":irc.example.com CAP Tester LIST :away-notify",
	)
	assert.Equal(t, []string{"away-notify", "multi-prefix"}, client.Caps().EnabledList())
}

func TestClient_CapNak(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester", Capabilities: []string{"away-notify"}})
	emit(client, NewEvent("client", "connect"))
	sent(client)

	feed(client, ":irc.example.com CAP * LS :away-notify")
	assert.Equal(t, []string{"CAP REQ away-notify"}, sent(client))

	feed(client, ":irc.example.com CAP * NAK :away-notify")
	assert.Equal(t, []string{"CAP END"}, sent(client))
	assert.False(t, client.CapEnabled("away-notify"))
}

func TestClient_CapNothingToRequest(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester"})
	emit(client, NewEvent("client", "connect"))
	sent(client)

	feed(client, ":irc.example.com CAP * LS :vendor/custom")
	assert.Equal(t, []string{"CAP END"}, sent(client))
}

func TestClient_Welcome(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester"})

	feed(client, ":irc.example.com 001 Tester768 :Welcome")
	assert.Equal(t, []string{"WHO Tester768"}, sent(client))
	assert.Equal(t, "Tester768", client.Nick())
	assert.True(t, client.Registered())
	assert.False(t, client.Caps().IsNegotiating())

	feed(client,
		":irc.example.com 352 Tester768 * ~tester client.example.com irc.example.com Tester768 H :0 Test User",
		":irc.example.com 221 Tester768 +iw",
		":Tester768 MODE Tester768 :-w+x",
	)
	assert.Equal(t, "~tester", client.User())
	assert.Equal(t, "client.example.com", client.Host())
	assert.Equal(t, "ix", client.UserModes())

	user, ok := client.TrackedUser("tester768")
	require.True(t, ok)
	assert.Equal(t, "Test User", user.RealName)
}

func TestClient_ISupport(t *testing.T) {
	log := &eventLog{}
	client := newTestClient(t, Config{Nick: "Tester"})
	client.AddHandler(log.handler, On("error.*"))

	feed(client, ":irc.example.com 005 Tester NICKLEN=abc CHANNELLEN=50 NETWORK=TestNet :are supported by this server")

	assert.Equal(t, "TestNet", client.ISupport().Network())
	assert.Equal(t, 50, client.ISupport().ChannelLen())
	require.NotNil(t, log.last("error.isupport"))
	assert.Equal(t, []string{"error.isupport"}, log.names())
}

func TestClient_Ping(t *testing.T) {
	client := newTestClient(t, Config{})

	feed(client,
		"PING :testserver.example.com",
		"PING :two words",
	)

	assert.Equal(t, []string{"PONG testserver.example.com", "PONG :two words"}, sent(client))
}

func TestClient_ServerTime(t *testing.T) {
	log := &eventLog{}
	client := newTestClient(t, Config{})
	client.AddHandler(log.handler)

	feed(client, "@time=2021-01-01T00:00:00.000Z :irc.example.com NOTICE * :Hello")

	event := log.last("packet.notice")
	require.NotNil(t, event)
	assert.Equal(t, 2021, event.Time.Year())
	assert.Equal(t, "Hello", event.Text)
}

func TestClient_ErrorSink(t *testing.T) {
	table := []struct {
		Line string
		Name string
	}{
		{"@ :irc.example.com NOTICE * :hi", "error.tag"},
		{":irc.example.com", "error.malformed"},
		{":irc.example.com 352 Tester * too few", "error.server"},
		{":op!o@host MODE #nowhere +o Tester", "error.server"},
		{":stranger!s@host JOIN #nowhere", "error.server"},
	}

	for _, row := range table {
		t.Run(row.Line, func(t *testing.T) {
			log := &eventLog{}
			client := newTestClient(t, Config{Nick: "Tester"})
			client.AddHandler(log.handler)
			register(client, "Tester")

			feed(client, row.Line, "PING :still alive")

			event := log.last(row.Name)
			require.NotNil(t, event, "events: %v", log.names())
			assert.Error(t, event.Err)
			assert.Equal(t, []string{"PONG :still alive"}, sent(client))
		})
	}
}

func TestClient_Reset(t *testing.T) {
	log := &eventLog{}
	client := newTestClient(t, Config{Nick: "Tester"})
	client.AddHandler(log.handler)
	register(client, "Tester")

	feed(client,
		":Tester!t@client.example.com JOIN #Test",
		":irc.example.com 353 Tester = #Test :Tester @Someone",
	)
	channel, ok := client.Channel("#test")
	require.True(t, ok)

	client.Input("")
	client.Input("")
	client.processQueue()

	_, ok = client.Channel("#test")
	assert.False(t, ok)
	assert.True(t, channel.IsStale())
	assert.Empty(t, client.Nick())
	assert.False(t, client.Registered())
	assert.Empty(t, client.ISupport().State())
	assert.True(t, client.Caps().IsNegotiating())
	assert.NotNil(t, log.last("client.reset"))
}

func TestClient_Destroy(t *testing.T) {
	client := New(context.Background(), Config{})

	client.Destroy()
	assert.True(t, client.Destroyed())
	assert.Equal(t, ErrDestroyed, client.EmitSync(context.Background(), NewEvent("test", "event")))
}

func TestClient_State(t *testing.T) {
	client := newTestClient(t, Config{Nick: "Tester"})
	register(client, "Tester")
	feed(client, ":Tester!t@client.example.com JOIN #Test")

	state := client.State()
	assert.Equal(t, client.ID(), state.ID)
	assert.Equal(t, "Tester", state.Nick)
	assert.Equal(t, "client.example.com", state.Host)
	assert.True(t, state.Registered)
	assert.False(t, state.Connected)
	assert.Equal(t, "rfc1459", state.ISupport["CASEMAPPING"])
	require.Len(t, state.Channels, 1)
	assert.Equal(t, "#Test", state.Channels[0].Name)
}
