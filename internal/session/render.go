package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/danmuck/enginectl/internal/protocol"
)

// Renderer formats engine responses for a human reader. Header styling is
// bound to the output writer and degrades to plain text off a terminal.
type Renderer struct {
	success lipgloss.Style
	failure lipgloss.Style
}

func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

// Render writes "Success:" plus the indented message for an OK status, and
// "Error (status=X)" plus the compact message otherwise.
func (r *Renderer) Render(w io.Writer, resp protocol.Response) error {
	var body bytes.Buffer
	msg := messageOrNull(resp.Message)
	if resp.OK() {
		if err := json.Indent(&body, msg, "", "  "); err != nil {
			return fmt.Errorf("%w: %w", protocol.ErrMalformed, err)
		}
		_, err := fmt.Fprintf(w, "%s\n%s\n", r.success.Render("Success:"), body.Bytes())
		return err
	}
	if err := json.Compact(&body, msg); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrMalformed, err)
	}
	header := fmt.Sprintf("Error (status=%s)", resp.Status)
	_, err := fmt.Fprintf(w, "%s\n%s\n", r.failure.Render(header), body.Bytes())
	return err
}

// RenderRaw writes the received document compactly on one line.
func RenderRaw(w io.Writer, resp protocol.Response) error {
	raw := resp.Raw
	if len(raw) == 0 {
		encoded, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		raw = encoded
	}
	var body bytes.Buffer
	if err := json.Compact(&body, raw); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrMalformed, err)
	}
	body.WriteByte('\n')
	_, err := w.Write(body.Bytes())
	return err
}

func messageOrNull(msg json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(msg)) == 0 {
		return json.RawMessage("null")
	}
	return msg
}
