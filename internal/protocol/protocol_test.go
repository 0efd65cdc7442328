package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/danmuck/enginectl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOmitsEmptyArguments(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	enc := NewEncoder(&buf, true)
	payload, err := enc.Encode(Request{Command: "uptime"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"command":"uptime"}`, string(payload))
	assert.Equal(t, `{"command":"uptime"}`+"\n", buf.String())
	assert.NotContains(t, buf.String(), "arguments")

	buf.Reset()
	_, err = enc.Encode(Request{Command: "uptime", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "arguments")
}

func TestEncodeTypedArguments(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	_, err := NewEncoder(&buf, false).Encode(Request{
		Command: "pcap-file",
		Arguments: map[string]any{
			"filename":   "f.pcap",
			"output-dir": "/out",
			"tenant":     json.Number("12"),
			"continuous": true,
		},
	})
	require.NoError(t, err)

	assert.False(t, strings.HasSuffix(buf.String(), "\n"))
	assert.JSONEq(t,
		`{"command":"pcap-file","arguments":{"filename":"f.pcap","output-dir":"/out","tenant":12,"continuous":true}}`,
		buf.String())
}

func TestEncodeRejectsEmptyCommand(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	_, err := NewEncoder(&buf, true).Encode(Request{Command: "  "})
	assert.ErrorIs(t, err, ErrEmptyCommand)
	assert.Zero(t, buf.Len())
}

func TestDecodeConsecutiveResponses(t *testing.T) {
	testlog.Start(t)

	stream := `{"return":"OK","message":"1.0"}` + "\n" +
		`{"return":"NOK","message":{"reason":"bad"}}` +
		`{"status":"OK","message":[1,2]}`
	dec := NewDecoder(strings.NewReader(stream))

	first, err := dec.ReadResponse()
	require.NoError(t, err)
	assert.True(t, first.OK())
	assert.JSONEq(t, `"1.0"`, string(first.Message))
	assert.JSONEq(t, `{"return":"OK","message":"1.0"}`, string(first.Raw))

	second, err := dec.ReadResponse()
	require.NoError(t, err)
	assert.False(t, second.OK())
	assert.Equal(t, "NOK", second.Status)
	assert.JSONEq(t, `{"reason":"bad"}`, string(second.Message))

	third, err := dec.ReadResponse()
	require.NoError(t, err)
	assert.Equal(t, StatusOK, third.Status)

	_, err = dec.ReadResponse()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeFailures(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name  string
		input string
		want  error
	}{
		{name: "truncated", input: `{"return":"OK","mess`, want: ErrTruncated},
		{name: "syntax", input: `{"return" "OK"}`, want: ErrMalformed},
		{name: "missing status", input: `{"message":"x"}`, want: ErrMissingStatus},
		{name: "null document", input: `null`, want: ErrMissingStatus},
		{name: "not an object", input: `[1,2]`, want: ErrMalformed},
		{name: "status not a string", input: `{"return":7}`, want: ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDecoder(strings.NewReader(tc.input)).ReadResponse()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v want %v", err, tc.want)
		})
	}
}

func TestResponseMarshalKeepsRaw(t *testing.T) {
	testlog.Start(t)

	raw := `{"return":"OK","message":{"count":2,"ifaces":["eth0","eth1"]}}`
	resp, err := NewDecoder(strings.NewReader(raw)).ReadResponse()
	require.NoError(t, err)

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))

	built, err := json.Marshal(Response{Status: "NOK"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"return":"NOK","message":null}`, string(built))
}

func TestNewlineFramed(t *testing.T) {
	testlog.Start(t)

	cases := map[string]bool{
		"":    true,
		"0.1": false,
		"0.2": true,
		"1.0": true,
	}
	for v, want := range cases {
		got, err := NewlineFramed(v)
		require.NoError(t, err, "version=%q", v)
		assert.Equal(t, want, got, "version=%q", v)
	}

	_, err := NewlineFramed("not-a-version")
	assert.ErrorIs(t, err, ErrInvalidVersion)
}
