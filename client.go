package irc

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/gissleh/irctrack/caps"
	"github.com/gissleh/irctrack/ircutil"
	"github.com/gissleh/irctrack/isupport"
	"github.com/gissleh/irctrack/state"
)

// A Client is an IRC client. You need to use New to construct it
type Client struct {
	id     string
	config Config
	logger zerolog.Logger

	mutex  sync.RWMutex
	conn   net.Conn
	ctx    context.Context
	cancel context.CancelFunc

	queue    inputQueue
	sends    chan string
	limiter  *rate.Limiter
	handlers handlerTable

	lastSend time.Time
	quit     bool

	isupport *isupport.ISupport
	caps     *caps.Tracker
	tracker  *state.Tracker

	nick          string
	user          string
	host          string
	userModes     string
	away          bool
	registered    bool
	requestedNick string
	values        map[string]interface{}
	monitor       map[string]bool
	whoisPinned   map[string]bool

	// These are only used by the event goroutine.
	capsPending int
	capListing  bool
	whois       map[string]*WhoisData
	motd        []string
	modeLists   map[string][]state.ModeInfo
}

// New creates a new client. The context can be context.Background if you want manually to
// tear down clients upon quitting.
func New(ctx context.Context, config Config) *Client {
	client := newClient(ctx, config)

	go client.handleEventLoop()
	go client.handleSendLoop()

	return client
}

func newClient(ctx context.Context, config Config) *Client {
	config = config.WithDefaults()

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	id := uuid.NewString()
	client := &Client{
		id:          id,
		config:      config,
		logger:      logger.With().Str("client", id).Logger(),
		sends:       make(chan string, 256),
		limiter:     rate.NewLimiter(rate.Limit(config.SendRate), config.SendBurst),
		isupport:    isupport.New(nil),
		caps:        caps.NewTracker(),
		values:      make(map[string]interface{}),
		monitor:     make(map[string]bool),
		whoisPinned: make(map[string]bool),
		whois:       make(map[string]*WhoisData),
		modeLists:   make(map[string][]state.ModeInfo),
	}

	client.queue.signal = make(chan struct{}, 1)
	client.tracker = state.NewTracker(state.Config{
		ISupport:     client.isupport,
		Send:         client.SendQueued,
		TrackedModes: config.TrackedModes,
		WhoInterval:  config.WhoRefreshInterval,
	})
	client.ctx, client.cancel = context.WithCancel(ctx)

	return client
}

// Context gets the client's context. It's cancelled if the parent context used
// in New is, or Destroy is called.
func (client *Client) Context() context.Context {
	return client.ctx
}

// ID gets the unique identifier for the client, which could be used in data structures
func (client *Client) ID() string {
	return client.id
}

// Logger gets the client's logger, which has the client ID as a field.
func (client *Client) Logger() *zerolog.Logger {
	return &client.logger
}

// Nick gets the nick of the client
func (client *Client) Nick() string {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	return client.nick
}

// User gets the user/ident of the client
func (client *Client) User() string {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	return client.user
}

// Host gets the hostname of the client
func (client *Client) Host() string {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	return client.host
}

// UserModes gets the client's own user modes, like `iw`.
func (client *Client) UserModes() string {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	return client.userModes
}

// IsAway returns true if the server has confirmed the client is marked as away.
func (client *Client) IsAway() bool {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	return client.away
}

// Registered returns true once the server has welcomed the client.
func (client *Client) Registered() bool {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	return client.registered
}

// ISupport gets the client's ISupport. This is mutable, and changes to it
// *will* affect the client.
func (client *Client) ISupport() *isupport.ISupport {
	return client.isupport
}

// Caps gets the client's capability tracker.
func (client *Client) Caps() *caps.Tracker {
	return client.caps
}

// CapEnabled returns true if the capability has been acknowledged by the server.
func (client *Client) CapEnabled(name string) bool {
	return client.caps.Enabled(name)
}

// Tracker gets the client's channel and user tracker.
func (client *Client) Tracker() *state.Tracker {
	return client.tracker
}

// Channel gets a snapshot of a channel the client is in.
func (client *Client) Channel(name string) (state.Channel, bool) {
	record := client.tracker.TrackedChannel(name)
	if record == nil {
		return state.Channel{}, false
	}

	return record.Snapshot(), true
}

// Channels gets snapshots of every channel the client is in, sorted by name.
func (client *Client) Channels() []state.Channel {
	records := client.tracker.Channels()
	result := make([]state.Channel, 0, len(records))
	for _, record := range records {
		result = append(result, record.Snapshot())
	}

	sortChannels(result)

	return result
}

// TrackedUser gets a snapshot of a user the client can see.
func (client *Client) TrackedUser(nick string) (state.User, bool) {
	record := client.tracker.User(nick)
	if record == nil {
		return state.User{}, false
	}

	return record.Snapshot(), true
}

// Resolve resolves a name to a user, channel, server or generic actor.
func (client *Client) Resolve(name string) state.Actor {
	return client.tracker.Resolve(name)
}

// Monitored gets the nicks on the MONITOR list, and whether they are online.
func (client *Client) Monitored() map[string]bool {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	result := make(map[string]bool, len(client.monitor))
	for nick, online := range client.monitor {
		result[nick] = online
	}

	return result
}

// Connect connects to the server by addr.
func (client *Client) Connect(addr string, ssl bool) (err error) {
	var conn net.Conn

	if client.Connected() {
		_ = client.Disconnect()
	}

	client.mutex.Lock()
	client.quit = false
	client.mutex.Unlock()

	// Start from a clean slate, in order with anything left of the old connection.
	client.Input("")
	_ = client.EmitSync(context.Background(), NewEvent("client", "connecting"))

	if ssl {
		conn, err = tls.Dial("tcp", addr, &tls.Config{
			InsecureSkipVerify: client.config.SkipSSLVerification,
		})
		if err != nil {
			return err
		}
	} else {
		conn, err = net.Dial("tcp", addr)
		if err != nil {
			return err
		}
	}

	client.logger.Info().Str("addr", addr).Bool("ssl", ssl).Msg("Connected")

	client.mutex.Lock()
	client.conn = conn
	client.mutex.Unlock()

	client.Emit(NewEvent("client", "connect"))

	go func() {
		reader := bufio.NewReader(conn)
		replacer := strings.NewReplacer("\r", "", "\n", "")

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				break
			}

			line = replacer.Replace(line)
			if line == "" {
				continue
			}

			client.Input(line)
		}

		client.mutex.Lock()
		if client.conn == conn {
			client.conn = nil
		}
		client.mutex.Unlock()

		client.logger.Info().Str("addr", addr).Msg("Disconnected")
		client.Emit(NewEvent("client", "disconnect"))
	}()

	return nil
}

// Disconnect disconnects from the server. It will either return the
// close error, or ErrNoConnection if there is no connection
func (client *Client) Disconnect() error {
	client.mutex.Lock()
	defer client.mutex.Unlock()

	if client.conn == nil {
		return ErrNoConnection
	}

	client.quit = true

	return client.conn.Close()
}

// Connected returns true if the client has a connection
func (client *Client) Connected() bool {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	return client.conn != nil
}

// Input puts a raw line from the server in the client's queue. Lines are
// handled in the order they are put in, on the client's event goroutine. An
// empty line resets all state, and should be put in by anything that replaces
// the connection.
func (client *Client) Input(line string) {
	client.queue.push(queueItem{line: line})
}

// Send sends a line to the server right away. A line-feed will be automatically
// added if one is not provided.
func (client *Client) Send(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if ircutil.LineTooLong(line) {
		return ErrLineTooLong
	}

	client.mutex.RLock()
	conn := client.conn
	client.mutex.RUnlock()

	if conn == nil {
		return ErrNoConnection
	}

	_, err := conn.Write([]byte(line + "\r\n"))
	if err != nil {
		client.emitError("network", err)
		_ = client.Disconnect()
		return err
	}

	client.mutex.Lock()
	client.lastSend = time.Now()
	client.mutex.Unlock()

	client.logger.Debug().Str("line", line).Msg("Sent line")

	return nil
}

// Sendf is Send with a fmt.Sprintf
func (client *Client) Sendf(format string, a ...interface{}) error {
	return client.Send(fmt.Sprintf(format, a...))
}

// SendQueued appends a message to a queue that will only send SendRate messages
// per second to avoid flooding. If the queue is full, a goroutine will be
// spawned to queue it, so this function will always return immediately.
// Order may not be guaranteed, however, but if you're sending 256 messages
// at once that may not be your greatest concern.
//
// Failed sends will be discarded quietly to avoid a backup from being
// thrown on a new connection.
func (client *Client) SendQueued(line string) {
	select {
	case client.sends <- line:
	default:
		go func() {
			select {
			case client.sends <- line:
			case <-client.ctx.Done():
			}
		}()
	}
}

// SendQueuedf is SendQueued with a fmt.Sprintf
func (client *Client) SendQueuedf(format string, a ...interface{}) {
	client.SendQueued(fmt.Sprintf(format, a...))
}

// SendCommand queues a command with its parameters. Only the last parameter may
// contain spaces, be empty or start with a colon.
func (client *Client) SendCommand(command string, params ...string) error {
	line, err := FormatCommand(command, params...)
	if err != nil {
		return err
	}

	client.SendQueued(line)
	return nil
}

// FormatCommand makes a line out of a command and its parameters, without the
// CR-LF.
func FormatCommand(command string, params ...string) (string, error) {
	message := ircmsg.MakeMessage(nil, "", command, params...)

	line, err := message.Line()
	if err != nil {
		return "", err
	}

	line = strings.TrimSuffix(line, "\r\n")
	if ircutil.LineTooLong(line) {
		return "", ErrLineTooLong
	}

	return line, nil
}

// Emit sends an event through the client's event queue, and it will return immediately.
// The returned context can be used to wait for the event, or the client's destruction.
func (client *Client) Emit(event Event) context.Context {
	event.ctx, event.cancel = context.WithCancel(client.ctx)
	client.queue.push(queueItem{event: &event})

	return event.ctx
}

// EmitSync emits an event and waits for either its context to complete or the one
// passed to it (e.g. a request's context). It's a shorthand for Emit with its
// return value used in a `select` along with a passed context.
func (client *Client) EmitSync(ctx context.Context, event Event) (err error) {
	eventCtx := client.Emit(event)

	select {
	case <-eventCtx.Done():
		{
			if err := eventCtx.Err(); err != context.Canceled {
				return err
			}
			if client.Destroyed() {
				return ErrDestroyed
			}

			return nil
		}
	case <-ctx.Done():
		{
			return ctx.Err()
		}
	}
}

// EmitInput emits an input event parsed from the line. The target is the
// channel or nick the input was written to, and may be empty.
func (client *Client) EmitInput(line string, target string) context.Context {
	event := ParseInput(line)
	event.Target = target

	return client.Emit(event)
}

// Value gets a client value.
func (client *Client) Value(key string) (v interface{}, ok bool) {
	client.mutex.RLock()
	v, ok = client.values[key]
	client.mutex.RUnlock()

	return
}

// SetValue sets a client value.
func (client *Client) SetValue(key string, value interface{}) {
	client.mutex.Lock()
	client.values[key] = value
	client.mutex.Unlock()
}

// Destroy destroys the client, which will lead to a disconnect. Cancelling the
// parent context will do the same.
func (client *Client) Destroy() {
	_ = client.Disconnect()
	client.cancel()
}

// Destroyed returns true if the client has been destroyed, either by
// Destroy or the parent context.
func (client *Client) Destroyed() bool {
	select {
	case <-client.ctx.Done():
		return true
	default:
		return false
	}
}

// PrivmsgOverhead returns the overhead on a privmsg to the target. If `action` is true,
// it will also count the extra overhead of a CTCP ACTION.
func (client *Client) PrivmsgOverhead(targetName string, action bool) int {
	client.mutex.RLock()
	defer client.mutex.RUnlock()

	// Return a really safe estimate if user or host is missing.
	if client.user == "" || client.host == "" {
		return 200
	}

	return ircutil.MessageOverhead(client.nick, client.user, client.host, targetName, action)
}

func (client *Client) handleEventLoop() {
	ticker := time.NewTicker(time.Second * 30)
	defer ticker.Stop()

	for {
		select {
		case <-client.queue.signal:
			client.processQueue()
		case <-ticker.C:
			event := NewEvent("client", "tick")
			client.processEvent(&event)
		case <-client.ctx.Done():
			_ = client.Disconnect()

			event := NewEvent("client", "destroy")
			client.processEvent(&event)

			for _, item := range client.queue.drain() {
				if item.event != nil {
					item.event.markDone()
				}
			}

			return
		}
	}
}

func (client *Client) handleSendLoop() {
	for {
		select {
		case line := <-client.sends:
			if err := client.limiter.Wait(client.ctx); err != nil {
				return
			}

			err := client.Send(line)
			if err != nil && err != ErrNoConnection {
				client.logger.Warn().Err(err).Str("line", line).Msg("Could not send line")
			}
		case <-client.ctx.Done():
			return
		}
	}
}

// processQueue handles everything in the queue, including what's added while
// it's at it.
func (client *Client) processQueue() {
	for {
		items := client.queue.drain()
		if len(items) == 0 {
			return
		}

		for _, item := range items {
			if item.event != nil {
				client.processEvent(item.event)
			} else {
				client.handleLine(item.line)
			}
		}
	}
}

func (client *Client) processEvent(event *Event) {
	defer event.markDone()

	client.handleEvent(event)
	client.dispatch(event)
}

// handleLine is where the server's lines turn into state changes and events.
func (client *Client) handleLine(line string) {
	if line == "" {
		client.reset()

		event := NewEvent("client", "reset")
		client.processEvent(&event)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			client.reportError("internal", &InternalError{Line: line, Value: r})
		}
	}()

	client.logger.Debug().Str("line", line).Msg("Received line")

	packet, err := ParsePacket(line)
	if err != nil {
		if _, ok := err.(*MessageTagError); ok {
			client.reportError("tag", err)
		} else {
			client.reportError("malformed", err)
		}

		return
	}

	event := NewPacketEvent(packet)

	// IRCv3 `server-time`
	if timeTag, ok := event.Tags["time"]; ok {
		serverTime, err := time.Parse(time.RFC3339Nano, timeTag)
		if err == nil && serverTime.Year() > 2000 {
			event.Time = serverTime
		}
	}

	event.Actor = client.tracker.Resolve(packet.Source)

	// Keep what the source says about a known user fresh, including the
	// `account-tag` capability's tag.
	if record, ok := event.Actor.(*state.UserRecord); ok && client.tracker.User(event.Nick) == record {
		patch := state.UserPatch{User: event.User, Host: event.Host}
		if account, ok := event.Tags["account"]; ok && account != "" {
			patch.Account = account
		}

		client.tracker.UpdateUser(event.Nick, patch)
		if client.isSelf(event.Nick) {
			client.setSelfMask(event.User, event.Host)
		}
	}

	if handler := packetHandlers[packet.Command]; handler != nil {
		if err := handler(client, &event, &packet); err != nil {
			client.reportError("server", err)
		}
	}

	client.dispatch(&event)
}

// handleEvent handles the client's own events before the handlers get them.
func (client *Client) handleEvent(event *Event) {
	switch event.name {
	case "client.connect":
		{
			client.caps.Reset()

			client.mutex.Lock()
			client.capsPending = 0
			nick := client.config.Nick
			if client.nick != "" {
				nick = client.nick
			}
			client.requestedNick = nick
			client.mutex.Unlock()

			_ = client.SendCommand("CAP", "LS", "302")
			if client.config.Password != "" {
				_ = client.SendCommand("PASS", client.config.Password)
			}
			_ = client.SendCommand("NICK", nick)
			_ = client.SendCommand("USER", client.config.User, "8", "*", client.config.RealName)
		}

	// Ping Pong
	case "client.tick":
		{
			client.mutex.RLock()
			lastSend := time.Since(client.lastSend)
			connected := client.conn != nil
			client.mutex.RUnlock()

			if connected && lastSend > time.Second*120 {
				_ = client.SendCommand("PING", strconv.FormatInt(time.Now().UnixNano(), 36))
			}
		}
	}
}

// reset forgets everything about the connection. It's only called on the
// event goroutine.
func (client *Client) reset() {
	client.tracker.Reset()
	client.isupport.Reset()
	client.caps.Reset()

	client.mutex.Lock()
	client.nick = ""
	client.user = ""
	client.host = ""
	client.userModes = ""
	client.away = false
	client.registered = false
	client.requestedNick = ""
	client.monitor = make(map[string]bool)
	client.whoisPinned = make(map[string]bool)
	client.mutex.Unlock()

	client.capsPending = 0
	client.capListing = false
	client.whois = make(map[string]*WhoisData)
	client.motd = nil
	client.modeLists = make(map[string][]state.ModeInfo)
}

// reportError logs the error and passes it to the handlers as an error event.
// It must only be called on the event goroutine.
func (client *Client) reportError(code string, err error) {
	client.logger.Warn().Err(err).Str("code", code).Msg("Error event")

	event := NewErrorEvent(code, err.Error(), err)
	client.dispatch(&event)
}

// emitError is reportError for other goroutines.
func (client *Client) emitError(code string, err error) {
	client.logger.Warn().Err(err).Str("code", code).Msg("Error event")
	client.Emit(NewErrorEvent(code, err.Error(), err))
}

type queueItem struct {
	line  string
	event *Event
}

// inputQueue is an unbounded, ordered queue of lines and events.
type inputQueue struct {
	mutex  sync.Mutex
	items  []queueItem
	signal chan struct{}
}

func (queue *inputQueue) push(item queueItem) {
	queue.mutex.Lock()
	queue.items = append(queue.items, item)
	queue.mutex.Unlock()

	select {
	case queue.signal <- struct{}{}:
	default:
	}
}

func (queue *inputQueue) drain() []queueItem {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()

	items := queue.items
	queue.items = nil

	return items
}
