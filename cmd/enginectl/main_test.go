package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/danmuck/enginectl/internal/client"
	"github.com/danmuck/enginectl/internal/commands"
	"github.com/danmuck/enginectl/internal/testutil/enginetest"
	"github.com/danmuck/enginectl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the operator's own config file out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(envConfigPath, "")
}

func execute(t *testing.T, stdin *os.File, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(stdin, &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestBatchCommand(t *testing.T) {
	testlog.Start(t)
	isolate(t)
	engine := enginetest.Start(t)

	out, _, err := execute(t, os.Stdin, "-c", "iface-stat eth0", engine.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"return":"OK","message":{"drop":0,"pkts":10}}`, out)

	reqs := engine.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"iface": "eth0"}, reqs[0].Arguments)
}

func TestBatchEngineFailureExitsCleanly(t *testing.T) {
	testlog.Start(t)
	isolate(t)
	engine := enginetest.Start(t)

	out, _, err := execute(t, os.Stdin, "--command", "reload-rules", engine.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"return":"NOK","message":"Unknown command"}`, out)
}

func TestBatchParseErrorFails(t *testing.T) {
	testlog.Start(t)
	isolate(t)
	engine := enginetest.Start(t)

	_, _, err := execute(t, os.Stdin, "-c", "pcap-file only-one", engine.Path)
	require.ErrorIs(t, err, commands.ErrMissingArguments)
	assert.Empty(t, engine.Requests())
}

func TestBatchVerboseEchoesTraffic(t *testing.T) {
	testlog.Start(t)
	isolate(t)
	engine := enginetest.Start(t)

	_, echo, err := execute(t, os.Stdin, "-v", "-c", "uptime", engine.Path)
	require.NoError(t, err)
	assert.Contains(t, echo, `SND: {"command":"uptime"}`)
	assert.Contains(t, echo, "RCV: ")
}

func TestSocketPathFromConfig(t *testing.T) {
	testlog.Start(t)
	isolate(t)
	engine := enginetest.Start(t)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`socket_path = "`+engine.Path+`"`), 0o600))

	out, _, err := execute(t, os.Stdin, "--config", cfgPath, "-c", "uptime")
	require.NoError(t, err)
	assert.JSONEq(t, `{"return":"OK","message":42}`, out)
}

func TestMissingSocketFails(t *testing.T) {
	testlog.Start(t)
	isolate(t)

	_, _, err := execute(t, os.Stdin, "-c", "uptime", filepath.Join(t.TempDir(), "absent.socket"))
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestTooManyArgsFails(t *testing.T) {
	testlog.Start(t)
	isolate(t)

	_, _, err := execute(t, os.Stdin, "a.socket", "b.socket")
	require.Error(t, err)
}

func TestInteractiveFromPipe(t *testing.T) {
	testlog.Start(t)
	isolate(t)
	engine := enginetest.Start(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	_, err = w.WriteString("uptime\nbogus\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, _, err := execute(t, r, engine.Path)
	require.NoError(t, err)
	assert.Equal(t, "Command list: command-list, uptime, version\nSuccess:\n42\nunknown command bogus\n", out)
}

// stallingEngine interrupts this process once cmd arrives and never answers it.
func stallingEngine(t *testing.T, cmd string) *enginetest.Engine {
	t.Helper()
	release := make(chan struct{})
	engine := enginetest.Start(t, enginetest.WithHandler(func(req enginetest.Request) enginetest.Reply {
		if req.Command == cmd {
			_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
			<-release
		}
		return enginetest.DefaultHandler(req)
	}))
	t.Cleanup(func() { close(release) })
	return engine
}

func executeInterruptible(t *testing.T, stdin *os.File, args ...string) (string, error) {
	t.Helper()
	ctx, stop := interruptContext(context.Background())
	defer stop()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(stdin, &stdout, &stderr)
	cmd.SetArgs(args)
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		return stdout.String(), err
	case <-time.After(3 * time.Second):
		t.Fatal("still running 3s after SIGINT while waiting on the engine")
		return "", nil
	}
}

func TestInterruptAbortsPendingBatchCommand(t *testing.T) {
	testlog.Start(t)
	isolate(t)
	engine := stallingEngine(t, "reload-rules")

	out, err := executeInterruptible(t, os.Stdin, "-c", "reload-rules", engine.Path)
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, client.ErrIO)
	assert.Empty(t, out)
}

func TestInterruptEndsInteractiveSessionCleanly(t *testing.T) {
	testlog.Start(t)
	isolate(t)
	engine := stallingEngine(t, "reload-rules")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	t.Cleanup(func() { _ = w.Close() })
	_, err = w.WriteString("reload-rules\nuptime\n")
	require.NoError(t, err)

	out, err := executeInterruptible(t, r, engine.Path)
	require.NoError(t, err)
	assert.Equal(t, "Command list: command-list, uptime, version\n", out)
	assert.Equal(t, 1, engine.Connections())
}
