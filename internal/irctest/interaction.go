package irctest

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is how long each step of an Interaction may take unless
// Interaction.Timeout is set.
const DefaultTimeout = 2 * time.Second

// An Interaction is a scripted server for one client connection. It goes
// through the Lines in order: server lines are written, client lines are
// read and matched, and callbacks are run in between.
type Interaction struct {
	wg sync.WaitGroup

	// Strict makes any unexpected client line a failure. Otherwise, lines
	// that do not match are logged and skipped.
	Strict  bool
	Timeout time.Duration
	Lines   []InteractionLine

	// Log has every line read from the client, matched or not.
	Log     []string
	Failure *InteractionFailure
}

// Listen listens for a client in a separate goroutine, and returns the
// address to connect to.
func (interaction *Interaction) Listen() (addr string, err error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}

	lines := append([]InteractionLine(nil), interaction.Lines...)

	interaction.wg.Add(1)
	go func() {
		defer interaction.wg.Done()
		defer listener.Close()

		conn, err := listener.Accept()
		if err != nil {
			interaction.Failure = &InteractionFailure{Index: -1, NetErr: err}
			return
		}
		defer conn.Close()

		interaction.Failure = interaction.run(conn, lines)
	}()

	return listener.Addr().String(), nil
}

// Wait waits for the interaction to end. It's safe to check Failure and Log
// after that.
func (interaction *Interaction) Wait() {
	interaction.wg.Wait()
}

func (interaction *Interaction) run(conn net.Conn, lines []InteractionLine) *InteractionFailure {
	timeout := interaction.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	reader := bufio.NewReader(conn)

	for i, line := range lines {
		switch {
		case line.Server != "":
			_ = conn.SetWriteDeadline(time.Now().Add(timeout))
			if _, err := conn.Write([]byte(line.Server + "\r\n")); err != nil {
				return &InteractionFailure{Index: i, NetErr: err}
			}
		case line.Client != "":
			if failure := interaction.expect(conn, reader, i, line, timeout); failure != nil {
				return failure
			}
		case line.Callback != nil:
			if err := line.Callback(); err != nil {
				return &InteractionFailure{Index: i, CBErr: err}
			}
		}
	}

	return nil
}

// expect reads client lines until one matches, or the first one that
// doesn't when Strict is set.
func (interaction *Interaction) expect(conn net.Conn, reader *bufio.Reader, index int, line InteractionLine, timeout time.Duration) *InteractionFailure {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		input, err := reader.ReadString('\n')
		if err != nil {
			return &InteractionFailure{Index: index, NetErr: err}
		}

		input = strings.TrimRight(input, "\r\n")
		interaction.Log = append(interaction.Log, input)

		if line.Matches(input) {
			return nil
		}
		if interaction.Strict {
			return &InteractionFailure{Index: index, Result: input}
		}
	}
}

// InteractionFailure is why an interaction ended early.
type InteractionFailure struct {
	Index  int
	Result string
	NetErr error
	CBErr  error
}

func (failure *InteractionFailure) Error() string {
	switch {
	case failure.NetErr != nil:
		return fmt.Sprintf("interaction line %d: network: %s", failure.Index, failure.NetErr)
	case failure.CBErr != nil:
		return fmt.Sprintf("interaction line %d: callback: %s", failure.Index, failure.CBErr)
	default:
		return fmt.Sprintf("interaction line %d: unexpected %q", failure.Index, failure.Result)
	}
}

// InteractionLine is one step of an interaction: a line sent to the client,
// a line expected from the client, or a callback.
type InteractionLine struct {
	Client   string
	Server   string
	Callback func() error
}

// Matches checks a client line against the expected one. A Client line
// ending with `*` matches any line starting with what's before it.
func (line InteractionLine) Matches(input string) bool {
	if prefix, ok := strings.CutSuffix(line.Client, "*"); ok {
		return strings.HasPrefix(input, prefix)
	}

	return input == line.Client
}
