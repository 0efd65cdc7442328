package session

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/enginectl/internal/commands"
	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const promptText = ">>> "

// Prompt is an interactive line editor with history and command name
// completion.
type Prompt struct {
	line        *liner.State
	historyPath string
}

// NewPrompt opens a terminal line editor. History is loaded from
// historyPath when set and written back on Close.
func NewPrompt(reg *commands.Registry, historyPath string) *Prompt {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(Completer(reg))

	p := &Prompt{line: line, historyPath: historyPath}
	p.loadHistory()
	return p
}

// Completer offers registry names while the first word is being typed.
func Completer(reg *commands.Registry) func(string) []string {
	return func(line string) []string {
		if strings.ContainsAny(line, " \t") {
			return nil
		}
		return reg.Complete(line)
	}
}

func (p *Prompt) ReadLine() (string, error) {
	input, err := p.line.Prompt(promptText)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" && !strings.HasPrefix(input, " ") {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (p *Prompt) Close() error {
	p.saveHistory()
	return p.line.Close()
}

func (p *Prompt) loadHistory() {
	if p.historyPath == "" {
		return
	}
	f, err := os.Open(p.historyPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", p.historyPath).Msg("session.history_load")
		}
		return
	}
	defer f.Close()
	if _, err := p.line.ReadHistory(f); err != nil {
		log.Warn().Err(err).Str("path", p.historyPath).Msg("session.history_load")
	}
}

func (p *Prompt) saveHistory() {
	if p.historyPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.historyPath), 0o700); err != nil {
		log.Warn().Err(err).Str("path", p.historyPath).Msg("session.history_save")
		return
	}
	f, err := os.OpenFile(p.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		log.Warn().Err(err).Str("path", p.historyPath).Msg("session.history_save")
		return
	}
	defer f.Close()
	if _, err := p.line.WriteHistory(f); err != nil {
		log.Warn().Err(err).Str("path", p.historyPath).Msg("session.history_save")
	}
}

// PlainReader reads lines without editing, for piped input.
type PlainReader struct {
	scanner *bufio.Scanner
}

func NewPlainReader(r io.Reader) *PlainReader {
	return &PlainReader{scanner: bufio.NewScanner(r)}
}

func (r *PlainReader) ReadLine() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *PlainReader) Close() error {
	return nil
}

// NewLineReader picks the line editor when in is a terminal and a plain
// reader otherwise.
func NewLineReader(reg *commands.Registry, historyPath string, in *os.File) LineReader {
	if term.IsTerminal(int(in.Fd())) {
		return NewPrompt(reg, historyPath)
	}
	return NewPlainReader(in)
}
