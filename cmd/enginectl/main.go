package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/danmuck/enginectl/internal/client"
	"github.com/danmuck/enginectl/internal/commands"
	"github.com/danmuck/enginectl/internal/logging"
	"github.com/danmuck/enginectl/internal/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose    bool
	command    string
	configPath string
}

func main() {
	logging.ConfigureRuntime()

	ctx, stop := interruptContext(context.Background())
	defer stop()

	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "enginectl: %v\n", err)
		os.Exit(1)
	}
}

// interruptContext is cancelled by the first SIGINT. Later interrupts get
// the default handling and terminate the process.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}

func newRootCmd(stdin *os.File, stdout, stderr io.Writer) *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:   "enginectl [flags] [socket-path]",
		Short: "Control client for the engine's unix command socket",
		Long: `Send control commands to a running engine over its unix command socket.

Without -c, enginectl starts an interactive prompt with command name
completion. With -c, it runs a single command and prints the raw JSON
response.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, stdin, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "echo raw protocol traffic and enable debug logging")
	cmd.Flags().StringVarP(&opts.command, "command", "c", "", "execute a single command and exit")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	return cmd
}

func run(ctx context.Context, opts rootOptions, args []string, stdin *os.File, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(resolveConfigPath(opts.configPath))
	if err != nil {
		return err
	}
	verbose := opts.verbose || cfg.Verbose
	logging.SetVerbose(verbose)

	socketPath := cfg.SocketPath
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		socketPath = args[0]
	}

	clientOpts := client.Options{
		ProtocolVersion: cfg.ProtocolVersion,
		Verbose:         verbose,
		Echo:            stderr,
	}
	dial := func(ctx context.Context) (session.Conn, error) {
		c, err := client.Connect(ctx, socketPath, clientOpts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	conn, err := dial(ctx)
	if err != nil {
		return err
	}

	reg := commands.DefaultRegistry()
	d := &session.Driver{
		Registry: reg,
		Conn:     conn,
		Out:      stdout,
		Reconnect: &session.ReconnectPolicy{
			Attempts: cfg.Reconnect,
			Backoff:  cfg.Backoff,
			Dial:     dial,
		},
	}
	defer func() { _ = d.Conn.Close() }()

	if opts.command != "" {
		log.Debug().Str("socket", socketPath).Str("command", opts.command).Msg("enginectl.batch")
		return d.RunBatch(ctx, opts.command)
	}

	log.Debug().Str("socket", socketPath).Msg("enginectl.interactive")
	in := session.NewLineReader(reg, cfg.HistoryFile, stdin)
	defer func() { _ = in.Close() }()
	return d.RunInteractive(ctx, in)
}
