package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/m4xw311/todoloop/app/mcp"
	"github.com/m4xw311/todoloop/app/rpc"
	"github.com/m4xw311/todoloop/app/terminal"
	"github.com/m4xw311/todoloop/config"
	"github.com/m4xw311/todoloop/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("todoloop", flag.ContinueOnError)
	flags.SetOutput(stderr)
	frontendFlag := flags.String("frontend", "", "Front end: 'terminal', 'rpc' or 'mcp'")
	traceFlag := flags.String("trace", "", "Append structured logs to this file")
	logLevelFlag := flags.String("log-level", "", "Log level: 'debug', 'info', 'warn' or 'error'")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %+v\n", err)
		return 1
	}
	applyFlags(cfg, *frontendFlag, *traceFlag, *logLevelFlag)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %+v\n", err)
		return 1
	}

	if err := log.Init(cfg.Log.File, cfg.Log.Level); err != nil {
		fmt.Fprintf(stderr, "Error initializing logging: %+v\n", err)
		return 1
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("frontend", cfg.Frontend).Dur("reply_timeout", cfg.ReplyTimeout).Msg("todoloop: starting")
	if err := serve(ctx, cfg, stdin, stdout); err != nil {
		log.Error().Err(err).Msg("todoloop: stopped with an error")
		fmt.Fprintf(stderr, "todoloop stopped with an error: %+v\n", err)
		return 1
	}
	return 0
}

func applyFlags(cfg *config.Config, frontend, trace, level string) {
	if frontend != "" {
		cfg.Frontend = frontend
	}
	if trace != "" {
		cfg.Log.File = trace
	}
	if level != "" {
		cfg.Log.Level = level
	}
}

func serve(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	switch cfg.Frontend {
	case config.FrontendRPC:
		return rpc.Run(ctx, stdin, stdout, cfg.ReplyTimeout)
	case config.FrontendMCP:
		server, err := mcp.NewServer(ctx, cfg.MCP.Tools, cfg.ReplyTimeout)
		if err != nil {
			return err
		}
		// The MCP transport is bound to the process's own stdio.
		return server.Run(ctx)
	default:
		return terminal.New(stdin, stdout).Run(ctx)
	}
}
