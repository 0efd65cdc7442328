package enginetest

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// Request is one decoded command received by the fake engine.
type Request struct {
	Command   string         `json:"command"`
	Arguments map[string]any `json:"arguments,omitempty"`
	// HasArguments records whether the "arguments" key was present at all.
	HasArguments bool `json:"-"`
}

// Reply scripts the engine's answer to one request.
type Reply struct {
	Return  string
	Message any
	// Raw, when set, is written verbatim instead of a JSON reply.
	Raw []byte
	// Close drops the connection after writing.
	Close bool
}

// Handler produces the reply for one request.
type Handler func(req Request) Reply

// Option customizes a fake engine.
type Option func(*Engine)

// WithHandler replaces the default command handler.
func WithHandler(h Handler) Option {
	return func(e *Engine) { e.handler = h }
}

// WithoutHandshake makes the engine treat the first message as a command.
func WithoutHandshake() Option {
	return func(e *Engine) { e.handshake = false }
}

// RejectHandshake makes the engine refuse the version announcement.
func RejectHandshake(message string) Option {
	return func(e *Engine) { e.rejectMessage = message }
}

// Engine is an in-process stand-in for the engine's unix command socket.
type Engine struct {
	Path string

	ln            net.Listener
	handler       Handler
	handshake     bool
	rejectMessage string

	mu       sync.Mutex
	requests []Request
	versions []string
	conns    int
	open     map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// Start listens on a fresh socket path and serves until the test ends.
func Start(t testing.TB, opts ...Option) *Engine {
	t.Helper()

	// unix socket paths are length limited; keep the directory short.
	dir, err := os.MkdirTemp("", "eng")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	path := filepath.Join(dir, "command.socket")
	ln, err := net.Listen("unix", path)
	if err != nil {
		_ = os.RemoveAll(dir)
		t.Fatalf("listen unix: %v", err)
	}

	e := &Engine{
		Path:      path,
		ln:        ln,
		handler:   DefaultHandler,
		handshake: true,
		open:      make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.wg.Add(1)
	go e.serve()
	t.Cleanup(func() {
		_ = e.ln.Close()
		e.DropConnections()
		e.wg.Wait()
		_ = os.RemoveAll(dir)
	})
	return e
}

// DropConnections closes every established client connection.
func (e *Engine) DropConnections() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for conn := range e.open {
		_ = conn.Close()
	}
}

// Requests returns the commands received so far, in arrival order.
func (e *Engine) Requests() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Request, len(e.requests))
	copy(out, e.requests)
	return out
}

// Versions returns the protocol versions announced by clients.
func (e *Engine) Versions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.versions))
	copy(out, e.versions)
	return out
}

// Connections reports how many clients have connected.
func (e *Engine) Connections() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conns
}

func (e *Engine) serve() {
	defer e.wg.Done()
	for {
		conn, err := e.ln.Accept()
		if err != nil {
			return
		}
		e.mu.Lock()
		e.conns++
		e.open[conn] = struct{}{}
		e.mu.Unlock()
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.handleConn(conn)
			e.mu.Lock()
			delete(e.open, conn)
			e.mu.Unlock()
		}()
	}
}

func (e *Engine) handleConn(conn net.Conn) {
	defer conn.Close()
	dec := json.NewDecoder(conn)

	if e.handshake {
		var hello struct {
			Version string `json:"version"`
		}
		if err := dec.Decode(&hello); err != nil {
			return
		}
		e.mu.Lock()
		e.versions = append(e.versions, hello.Version)
		e.mu.Unlock()
		if e.rejectMessage != "" {
			_ = writeReply(conn, Reply{Return: "NOK", Message: e.rejectMessage})
			return
		}
		if err := writeReply(conn, Reply{Return: "OK"}); err != nil {
			return
		}
	}

	for {
		var raw map[string]json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if !errors.Is(err, io.EOF) {
				_ = writeReply(conn, Reply{Return: "NOK", Message: "Invalid JSON"})
			}
			return
		}
		req := Request{}
		_ = json.Unmarshal(raw["command"], &req.Command)
		if args, ok := raw["arguments"]; ok {
			req.HasArguments = true
			_ = json.Unmarshal(args, &req.Arguments)
		}
		e.mu.Lock()
		e.requests = append(e.requests, req)
		e.mu.Unlock()

		reply := e.handler(req)
		if err := writeReply(conn, reply); err != nil {
			return
		}
		if reply.Close {
			return
		}
	}
}

func writeReply(w io.Writer, reply Reply) error {
	if reply.Raw != nil {
		_, err := w.Write(reply.Raw)
		return err
	}
	body := map[string]any{"return": reply.Return}
	if reply.Message != nil {
		body["message"] = reply.Message
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	_, err = w.Write(payload)
	return err
}

// DefaultHandler answers a handful of catalog commands with canned data.
func DefaultHandler(req Request) Reply {
	switch req.Command {
	case "command-list":
		return Reply{Return: "OK", Message: map[string]any{
			"count":    3,
			"commands": []string{"command-list", "uptime", "version"},
		}}
	case "uptime":
		return Reply{Return: "OK", Message: 42}
	case "version":
		return Reply{Return: "OK", Message: "7.0.0 RELEASE"}
	case "iface-stat":
		iface, _ := req.Arguments["iface"].(string)
		if iface != "eth0" {
			return Reply{Return: "NOK", Message: "Interface '" + iface + "' not found"}
		}
		return Reply{Return: "OK", Message: map[string]any{"pkts": 10, "drop": 0}}
	default:
		return Reply{Return: "NOK", Message: "Unknown command"}
	}
}
