package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/danmuck/enginectl/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Options configures one engine connection.
type Options struct {
	// ProtocolVersion is announced in the handshake; empty skips the handshake.
	ProtocolVersion string
	// Verbose echoes every document sent and received to Echo.
	Verbose bool
	Echo    io.Writer
}

func DefaultOptions() Options {
	return Options{
		ProtocolVersion: protocol.DefaultVersion,
		Echo:            os.Stderr,
	}
}

// Client owns one connection to the engine's command socket and runs a
// strict request/response cycle over it: every Send must be answered by a
// Read before the next Send.
//
// A Client is not safe for concurrent use. It never times out or retries on
// its own; callers bound an exchange with the context passed to Do, or with
// SetDeadline.
type Client struct {
	path     string
	conn     net.Conn
	enc      *protocol.Encoder
	dec      *protocol.Decoder
	state    State
	version  string
	verbose  bool
	echo     io.Writer
	exchange string
	command  string
}

// Connect dials the unix socket at path and performs the version handshake.
func Connect(ctx context.Context, path string, opts Options) (*Client, error) {
	path = strings.TrimSpace(path)
	version := strings.TrimSpace(opts.ProtocolVersion)
	newline, err := protocol.NewlineFramed(version)
	if err != nil {
		return nil, err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", classifyDialErr(err), path, err)
	}

	echo := opts.Echo
	if echo == nil {
		echo = os.Stderr
	}
	c := &Client{
		path:    path,
		conn:    conn,
		enc:     protocol.NewEncoder(conn, newline),
		dec:     protocol.NewDecoder(bufio.NewReader(conn)),
		state:   Connected,
		version: version,
		verbose: opts.Verbose,
		echo:    echo,
	}
	if version != "" {
		stop := c.interruptOn(ctx)
		err := c.handshake()
		stop()
		if err != nil {
			_ = c.Close()
			return nil, withCause(ctx, err)
		}
	}
	log.Debug().Str("path", path).Str("version", version).Msg("client.connected")
	return c, nil
}

func (c *Client) handshake() error {
	payload, err := protocol.Marshal(protocol.Hello{Version: c.version})
	if err != nil {
		return err
	}
	if err := c.write(payload); err != nil {
		return err
	}
	c.state = AwaitingResponse
	resp, err := c.Read()
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status=%s message=%s", ErrHandshake, resp.Status, strings.TrimSpace(string(resp.Message)))
	}
	return nil
}

// Send writes one request. It is legal only in the Connected state.
func (c *Client) Send(req protocol.Request) error {
	switch c.state {
	case Disconnected:
		return ErrNotConnected
	case AwaitingResponse:
		return fmt.Errorf("%w: %q not yet answered", ErrRequestInFlight, c.command)
	}
	payload, err := protocol.Marshal(req)
	if err != nil {
		return err
	}
	c.exchange = uuid.NewString()
	c.command = req.Command
	if err := c.write(payload); err != nil {
		return err
	}
	c.state = AwaitingResponse
	log.Debug().Str("exchange", c.exchange).Str("command", req.Command).Msg("client.send")
	return nil
}

// Read blocks until the response to the outstanding request is decoded.
// Any failure leaves the client Disconnected.
func (c *Client) Read() (protocol.Response, error) {
	switch c.state {
	case Disconnected:
		return protocol.Response{}, ErrNotConnected
	case Connected:
		return protocol.Response{}, ErrNoRequestInFlight
	}
	resp, err := c.dec.ReadResponse()
	if err != nil {
		c.resetConn()
		switch {
		case errors.Is(err, io.EOF):
			return protocol.Response{}, fmt.Errorf("%w: connection closed by engine", ErrIO)
		case errors.Is(err, protocol.ErrTruncated),
			errors.Is(err, protocol.ErrMalformed),
			errors.Is(err, protocol.ErrMissingStatus):
			return protocol.Response{}, fmt.Errorf("%w: %w", ErrProtocol, err)
		default:
			return protocol.Response{}, fmt.Errorf("%w: read: %w", ErrIO, err)
		}
	}
	c.state = Connected
	if c.verbose {
		fmt.Fprintf(c.echo, "RCV: %s\n", resp.Raw)
	}
	log.Debug().Str("exchange", c.exchange).Str("command", c.command).Str("status", resp.Status).Msg("client.read")
	return resp, nil
}

// Do runs one full exchange. Cancelling ctx while the response is pending
// aborts the read and drops the connection.
func (c *Client) Do(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Response{}, err
	}
	if err := c.Send(req); err != nil {
		return protocol.Response{}, err
	}
	stop := c.interruptOn(ctx)
	resp, err := c.Read()
	stop()
	if err != nil {
		return protocol.Response{}, withCause(ctx, err)
	}
	return resp, nil
}

// interruptOn expires the read deadline once ctx is done. The returned stop
// waits for an in-flight expiry and clears it, so a response that won the
// race leaves the connection usable.
func (c *Client) interruptOn(ctx context.Context) (stop func()) {
	conn := c.conn
	if conn == nil || ctx.Done() == nil {
		return func() {}
	}
	fired := make(chan struct{})
	cancel := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
		close(fired)
	})
	return func() {
		if cancel() {
			return
		}
		<-fired
		_ = conn.SetReadDeadline(time.Time{})
	}
}

func withCause(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	return fmt.Errorf("%w: %w", err, context.Cause(ctx))
}

// SetDeadline bounds the next Send/Read. A Read that hits the deadline
// drops the connection, since the stream position is no longer known.
func (c *Client) SetDeadline(t time.Time) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.SetDeadline(t)
}

func (c *Client) State() State {
	return c.state
}

func (c *Client) Path() string {
	return c.path
}

// Close terminates the connection. It is safe to call more than once.
func (c *Client) Close() error {
	if c.conn == nil {
		c.state = Disconnected
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.state = Disconnected
	log.Debug().Str("path", c.path).Msg("client.closed")
	return err
}

func (c *Client) write(payload []byte) error {
	if c.verbose {
		fmt.Fprintf(c.echo, "SND: %s\n", payload)
	}
	if err := c.enc.WriteMessage(payload); err != nil {
		c.resetConn()
		return fmt.Errorf("%w: write: %w", ErrIO, err)
	}
	return nil
}

func (c *Client) resetConn() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.state = Disconnected
}
