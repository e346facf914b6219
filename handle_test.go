package irc_test

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gissleh/irctrack"
)

func newClient(t *testing.T) *irc.Client {
	client := irc.New(context.Background(), irc.Config{})
	t.Cleanup(client.Destroy)

	return client
}

func emitSync(t *testing.T, client *irc.Client, event irc.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, client.EmitSync(ctx, event))
}

func TestHandle(t *testing.T) {
	rng := rand.NewSource(time.Now().UnixNano())
	eventName := strconv.FormatInt(rng.Int63(), 36) + strconv.FormatInt(rng.Int63(), 36)

	client := newClient(t)
	handled := false

	client.AddHandler(func(event *irc.Event, client *irc.Client) {
		if event.Kind() == "test" && event.Verb() == eventName {
			handled = true
		}
	})

	emitSync(t, client, irc.NewEvent("test", eventName))
	assert.True(t, handled, "Event wasn't handled")
}

func TestHandle_On(t *testing.T) {
	table := []struct {
		Names   []string
		Matched []string
	}{
		{[]string{"test.one"}, []string{"test.one"}},
		{[]string{"test.one", "other.two"}, []string{"test.one", "other.two"}},
		{[]string{"test.*"}, []string{"test.one", "test.two"}},
		{[]string{"*"}, []string{"test.one", "test.two", "other.two"}},
		{nil, []string{"test.one", "test.two", "other.two"}},
	}

	for _, row := range table {
		t.Run(fmt.Sprint(row.Names), func(t *testing.T) {
			client := newClient(t)

			var matched []string
			client.AddHandler(func(event *irc.Event, client *irc.Client) {
				if event.Kind() == "test" || event.Kind() == "other" {
					matched = append(matched, event.Name())
				}
			}, irc.On(row.Names...))

			emitSync(t, client, irc.NewEvent("test", "one"))
			emitSync(t, client, irc.NewEvent("test", "two"))
			emitSync(t, client, irc.NewEvent("other", "two"))

			assert.Equal(t, row.Matched, matched)
		})
	}
}

func TestHandle_Priority(t *testing.T) {
	client := newClient(t)

	var order []string
	add := func(name string, options ...irc.HandlerOption) {
		client.AddHandler(func(event *irc.Event, client *irc.Client) {
			order = append(order, name)
		}, append(options, irc.On("test.order"))...)
	}

	add("default1")
	add("low", irc.Priority(-10))
	add("high", irc.Priority(10))
	add("default2")
	add("higher", irc.Priority(20))

	emitSync(t, client, irc.NewEvent("test", "order"))

	assert.Equal(t, []string{"higher", "high", "default1", "default2", "low"}, order)
}

func TestHandle_When(t *testing.T) {
	client := newClient(t)

	var texts []string
	client.AddHandler(func(event *irc.Event, client *irc.Client) {
		texts = append(texts, event.Text)
	}, irc.On("test.when"), irc.When(func(event *irc.Event) bool {
		return event.Text != "skip"
	}), irc.When(func(event *irc.Event) bool {
		return event.Target == "#Test"
	}))

	for _, text := range []string{"one", "skip", "two"} {
		event := irc.NewEvent("test", "when")
		event.Text = text
		event.Target = "#Test"
		emitSync(t, client, event)
	}

	event := irc.NewEvent("test", "when")
	event.Text = "elsewhere"
	emitSync(t, client, event)

	assert.Equal(t, []string{"one", "two"}, texts)
}

func TestHandle_Kill(t *testing.T) {
	client := newClient(t)

	calls := 0
	client.AddHandler(func(event *irc.Event, client *irc.Client) {
		event.Kill()
	}, irc.On("test.kill"), irc.Priority(1))
	client.AddHandler(func(event *irc.Event, client *irc.Client) {
		calls++
	}, irc.On("test.kill", "test.live"))

	emitSync(t, client, irc.NewEvent("test", "kill"))
	emitSync(t, client, irc.NewEvent("test", "live"))

	assert.Equal(t, 1, calls)
}

func TestHandle_Panic(t *testing.T) {
	client := newClient(t)

	var errs []error
	calls := 0
	client.AddHandler(func(event *irc.Event, client *irc.Client) {
		panic("oh no")
	}, irc.On("test.panic", "error.handler"), irc.Priority(1))
	client.AddHandler(func(event *irc.Event, client *irc.Client) {
		calls++
	}, irc.On("test.panic"))
	client.AddHandler(func(event *irc.Event, client *irc.Client) {
		errs = append(errs, event.Err)
	}, irc.On("error.handler"))

	emitSync(t, client, irc.NewEvent("test", "panic"))

	assert.Equal(t, 1, calls)
	require.Len(t, errs, 1)

	var handlerErr *irc.EventHandlerError
	require.ErrorAs(t, errs[0], &handlerErr)
	assert.Equal(t, "test.panic", handlerErr.Event)
	assert.Equal(t, "oh no", handlerErr.Value)
}

func TestHandle_Remove(t *testing.T) {
	client := newClient(t)

	calls := 0
	remove := client.AddHandler(func(event *irc.Event, client *irc.Client) {
		calls++
	}, irc.On("test.remove"))

	emitSync(t, client, irc.NewEvent("test", "remove"))
	remove()
	remove()
	emitSync(t, client, irc.NewEvent("test", "remove"))

	assert.Equal(t, 1, calls)
}

func TestEnableDebug(t *testing.T) {
	client := newClient(t)
	buffer := &bytes.Buffer{}

	remove := irc.EnableDebug(client, zerolog.New(buffer).Level(zerolog.DebugLevel))

	event := irc.NewEvent("test", "debug")
	event.Text = "Hello, World"
	emitSync(t, client, event)

	assert.Contains(t, buffer.String(), `"event":"test.debug"`)
	assert.Contains(t, buffer.String(), `"text":"Hello, World"`)

	remove()
	buffer.Reset()
	emitSync(t, client, irc.NewEvent("test", "debug"))
	assert.NotContains(t, buffer.String(), "test.debug")
}

func BenchmarkHandle(b *testing.B) {
	rng := rand.NewSource(time.Now().UnixNano())
	eventName := strconv.FormatInt(rng.Int63(), 36) + strconv.FormatInt(rng.Int63(), 36)

	client := irc.New(context.Background(), irc.Config{})
	defer client.Destroy()

	event := irc.NewEvent("test", eventName)

	b.Run("Emit", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			client.Emit(event)
		}
	})

	b.Run("EmitSync", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			_ = client.EmitSync(context.Background(), event)
		}
	})
}
