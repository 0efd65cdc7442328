package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/enginectl/internal/client"
	"github.com/danmuck/enginectl/internal/commands"
	"github.com/danmuck/enginectl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Conn is the part of client.Client the driver needs.
type Conn interface {
	Do(ctx context.Context, req protocol.Request) (protocol.Response, error)
	Close() error
}

// LineReader yields operator input one line at a time. It returns io.EOF
// when input ends or the operator interrupts.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// Driver runs parsed commands against an engine connection.
type Driver struct {
	Registry  *commands.Registry
	Conn      Conn
	Out       io.Writer
	Renderer  *Renderer
	Reconnect *ReconnectPolicy
}

func (d *Driver) renderer() *Renderer {
	if d.Renderer == nil {
		d.Renderer = NewRenderer(d.Out)
	}
	return d.Renderer
}

// RunBatch executes one command line and prints the raw response.
// A non-OK engine status is not an error.
func (d *Driver) RunBatch(ctx context.Context, line string) error {
	req, err := commands.Parse(line, d.Registry)
	if err != nil {
		return err
	}
	resp, err := d.Conn.Do(ctx, req)
	if err != nil {
		return err
	}
	log.Debug().Str("command", req.Command).Str("status", resp.Status).Msg("session.batch")
	return RenderRaw(d.Out, resp)
}

// RunInteractive prints the command banner, then reads, executes and
// renders lines until in is exhausted or ctx is cancelled. It returns an
// error only when the connection is lost and cannot be re-established.
func (d *Driver) RunInteractive(ctx context.Context, in LineReader) error {
	if err := d.banner(ctx); err != nil {
		return interrupted(ctx, err)
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		req, err := commands.Parse(line, d.Registry)
		if err != nil {
			fmt.Fprintln(d.Out, err)
			d.usageHint(err)
			continue
		}
		resp, err := d.Conn.Do(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				log.Debug().Str("command", req.Command).Msg("session.interrupted")
				return nil
			}
			fmt.Fprintln(d.Out, err)
			if client.IsConnectionLost(err) {
				if err := d.reconnect(ctx, err); err != nil {
					return interrupted(ctx, err)
				}
			}
			continue
		}
		if err := d.renderer().Render(d.Out, resp); err != nil {
			fmt.Fprintln(d.Out, err)
		}
	}
}

func (d *Driver) banner(ctx context.Context) error {
	names, err := d.engineCommands(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		log.Warn().Err(err).Msg("session.command_list_unavailable")
		if client.IsConnectionLost(err) {
			if err := d.reconnect(ctx, err); err != nil {
				return err
			}
		}
		names = d.Registry.Names()
	}
	fmt.Fprintf(d.Out, "Command list: %s\n", strings.Join(names, ", "))
	return nil
}

func (d *Driver) engineCommands(ctx context.Context) ([]string, error) {
	resp, err := d.Conn.Do(ctx, protocol.Request{Command: "command-list"})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("command-list: status=%s", resp.Status)
	}
	var body struct {
		Commands []string `json:"commands"`
	}
	if err := json.Unmarshal(resp.Message, &body); err != nil {
		return nil, fmt.Errorf("command-list: %w: %w", protocol.ErrMalformed, err)
	}
	if len(body.Commands) == 0 {
		return nil, errors.New("command-list: empty")
	}
	return body.Commands, nil
}

// reconnect swaps in a fresh connection after cause broke the current one.
func (d *Driver) reconnect(ctx context.Context, cause error) error {
	_ = d.Conn.Close()
	if !d.Reconnect.enabled() {
		return cause
	}
	conn, err := d.Reconnect.redial(ctx)
	if err != nil {
		return err
	}
	d.Conn = conn
	return nil
}

// usageHint shows the argument schema after an argument error.
func (d *Driver) usageHint(err error) {
	var perr *commands.ParseError
	if !errors.As(err, &perr) {
		return
	}
	if !errors.Is(perr, commands.ErrMissingArguments) && !errors.Is(perr, commands.ErrInvalidArgument) {
		return
	}
	spec, ok := d.Registry.Lookup(perr.Command)
	if !ok {
		return
	}
	fmt.Fprintf(d.Out, "usage: %s %s\n", perr.Command, spec.Usage())
}

// interrupted turns a failure caused by cancelling ctx into a clean stop.
func interrupted(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		log.Debug().Err(err).Msg("session.interrupted")
		return nil
	}
	return err
}
