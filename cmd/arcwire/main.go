// Command arcwire runs the reference A2A agent server and a small client for
// talking to any A2A agent from the shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/arcwire/arcwire"
	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/client"
	"github.com/arcwire/arcwire/pkg/config"
	"github.com/arcwire/arcwire/pkg/echo"
	"github.com/arcwire/arcwire/pkg/logger"
	"github.com/arcwire/arcwire/pkg/server"
)

var cli struct {
	Serve  ServeCmd  `cmd:"" help:"Run the agent server."`
	Send   SendCmd   `cmd:"" help:"Send a message to an agent."`
	Get    GetCmd    `cmd:"" help:"Fetch a task."`
	Cancel CancelCmd `cmd:"" help:"Cancel a task."`
	Card   CardCmd   `cmd:"" help:"Fetch an agent card."`

	LogLevel  string           `default:"info" enum:"debug,info,warn,error" help:"Log level."`
	LogFormat string           `default:"text" enum:"text,json" help:"Log format."`
	Version   kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	_ = godotenv.Load()

	ctx := kong.Parse(&cli,
		kong.Name("arcwire"),
		kong.Description("A2A protocol runtime: server and client."),
		kong.UsageOnError(),
		kong.Vars{"version": arcwire.GetBuildInfo().String()},
	)
	logger.Init(logger.Options{Level: cli.LogLevel, Format: cli.LogFormat})
	ctx.FatalIfErrorf(ctx.Run())
}

// ServeCmd runs the echo agent behind all configured transports.
type ServeCmd struct {
	Config      string `short:"c" type:"existingfile" help:"YAML config file."`
	HTTPAddress string `help:"Override the HTTP listen address."`
	GRPCAddress string `help:"Override the gRPC listen address."`
}

func (s *ServeCmd) Run() error {
	cfg := &config.Config{}
	if s.Config != "" {
		loaded, err := config.Load(s.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg.SetDefaults()
	}
	if s.HTTPAddress != "" {
		cfg.Server.HTTPAddress = s.HTTPAddress
	}
	if s.GRPCAddress != "" {
		cfg.Server.GRPCAddress = s.GRPCAddress
	}

	taskStore := server.NewInMemoryTaskStore()
	opts := []server.HandlerOption{}
	if cfg.Push.Enabled {
		pushStore := server.NewInMemoryPushConfigStore()
		opts = append(opts,
			server.WithPushConfigStore(pushStore),
			server.WithPushSender(server.NewHTTPPushSender(pushStore)))
	}
	handler := server.NewDefaultRequestHandler(echo.New(), taskStore, opts...)

	srv := server.New(cfg.Card(), handler, server.Options{
		HTTPAddress: cfg.Server.HTTPAddress,
		GRPCAddress: cfg.Server.GRPCAddress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

// clientFlags are shared by the client subcommands.
type clientFlags struct {
	URL       string        `short:"u" required:"" help:"Agent base URL."`
	Transport []string      `help:"Transports to offer, in preference order."`
	Timeout   time.Duration `default:"30s" help:"Per-request timeout."`
}

func (f *clientFlags) newClient(ctx context.Context) (*client.Client, error) {
	return client.New(ctx, f.URL, client.Config{
		SupportedTransports: f.Transport,
		Streaming:           true,
		Timeout:             f.Timeout,
	})
}

// SendCmd sends one message, streaming events if the agent supports it.
type SendCmd struct {
	clientFlags
	Text   string `arg:"" help:"Message text."`
	TaskID string `help:"Continue an existing task."`
	Stream bool   `default:"true" negatable:"" help:"Use message/stream."`
}

func (s *SendCmd) Run() error {
	ctx := context.Background()
	c, err := s.newClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	params := &a2a.MessageSendParams{
		Message: a2a.Message{
			Role:   a2a.MessageRoleUser,
			Parts:  []a2a.Part{a2a.TextPart(s.Text)},
			TaskID: s.TaskID,
		},
	}

	if s.Stream && c.Card().Capabilities.Streaming {
		stream, err := c.SendMessageStreaming(ctx, params, nil)
		if err != nil {
			return err
		}
		for item := range stream {
			if item.Err != nil {
				return item.Err
			}
			printJSON(item.Event)
		}
		return nil
	}

	event, err := c.SendMessage(ctx, params, nil)
	if err != nil {
		return err
	}
	printJSON(event)
	return nil
}

// GetCmd fetches a task snapshot.
type GetCmd struct {
	clientFlags
	ID            string `arg:"" help:"Task id."`
	HistoryLength int    `help:"Truncate history to the last N messages."`
}

func (g *GetCmd) Run() error {
	ctx := context.Background()
	c, err := g.newClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	task, err := c.GetTask(ctx, &a2a.TaskQueryParams{ID: g.ID, HistoryLength: g.HistoryLength}, nil)
	if err != nil {
		return err
	}
	printJSON(task)
	return nil
}

// CancelCmd cancels a task.
type CancelCmd struct {
	clientFlags
	ID string `arg:"" help:"Task id."`
}

func (c *CancelCmd) Run() error {
	ctx := context.Background()
	cl, err := c.newClient(ctx)
	if err != nil {
		return err
	}
	defer cl.Close()

	task, err := cl.CancelTask(ctx, &a2a.TaskIDParams{ID: c.ID}, nil)
	if err != nil {
		return err
	}
	printJSON(task)
	return nil
}

// CardCmd fetches and prints the agent card.
type CardCmd struct {
	URL string `arg:"" help:"Agent base URL."`
}

func (c *CardCmd) Run() error {
	card, err := client.NewCardResolver().Get(context.Background(), c.URL, nil)
	if err != nil {
		return err
	}
	printJSON(card)
	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(data))
}
