package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gissleh/irctrack"
	"github.com/gissleh/irctrack/handlers"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var configPath string
	var server string
	var ssl bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "ircrepl",
		Short: "Connect to an IRC server and type commands into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(&logger, configPath)
			if err != nil {
				return err
			}
			logger.Debug().Str("path", path).Msg("Loaded config")

			if cmd.Flags().Changed("server") {
				cfg.Server = server
			}
			if cmd.Flags().Changed("ssl") {
				cfg.SSL = ssl
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the config file")
	cmd.Flags().StringVar(&server, "server", "", "The server to connect to")
	cmd.Flags().BoolVar(&ssl, "ssl", false, "Whether to connect securely")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log every event")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// targetKey is the client value holding the input target.
const targetKey = "ircrepl.target"

func currentTarget(client *irc.Client) string {
	target, _ := client.Value(targetKey)
	s, _ := target.(string)

	return s
}

func run(ctx context.Context, cfg replConfig, logger zerolog.Logger) error {
	clientConfig := cfg.Client
	clientConfig.Logger = &logger

	client := irc.New(context.Background(), clientConfig)
	defer client.Destroy()

	client.AddHandler(handlers.Input)
	client.AddHandler(handlers.CTCP)
	client.AddHandler(handlers.MRoleplay)
	if cfg.Debug {
		irc.EnableDebug(client, logger.Level(zerolog.DebugLevel))
	}

	done := make(chan struct{})
	disconnected := sync.Once{}

	client.AddHandler(func(event *irc.Event, client *irc.Client) {
		switch event.Name() {
		case "input.target":
			event.Kill()

			target := strings.TrimSpace(event.Text)
			client.SetValue(targetKey, target)
			if target == "" {
				logger.Info().Msg("Cleared target")
			} else {
				logger.Info().Str("target", target).Msg("Set target")
			}
		case "input.clientstatus":
			event.Kill()

			printJSON(client.State())
		case "packet.001":
			if len(cfg.Join) > 0 {
				if err := client.Join(cfg.Join...); err != nil {
					logger.Error().Err(err).Msg("Could not join channels")
				}
			}
		case "client.disconnect":
			disconnected.Do(func() { close(done) })
		case "packet.part", "packet.kick":
			target := currentTarget(client)
			if event.Channel != nil && !event.Channel.Tracked && client.ISupport().Fold(event.Target) == client.ISupport().Fold(target) {
				logger.Info().Str("target", target).Msg("Left target channel")
				client.SetValue(targetKey, "")
			}
		}

		if event.Kind() != "input" && !event.Killed() && !event.Hidden() {
			printJSON(event)
		}
	}, irc.Priority(10))

	if err := client.Connect(cfg.Server, cfg.SSL); err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Server, err)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				quit(client, "EOF", done)
				return nil
			}

			client.EmitInput(line, currentTarget(client))
		case <-ctx.Done():
			quit(client, "Goodnight.", done)
			return nil
		case <-done:
			return nil
		}
	}
}

// quit waits a little for the server to close the connection after QUIT.
func quit(client *irc.Client, reason string, done <-chan struct{}) {
	if err := client.Quit(reason); err != nil {
		return
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}

func printJSON(v interface{}) {
	j, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return
	}

	fmt.Println(string(j))
}
