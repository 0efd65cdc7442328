package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/enginectl/internal/protocol"
	"github.com/danmuck/enginectl/internal/session"
)

const (
	defaultSocketPath = "/var/run/suricata/suricata-command.socket"
	envConfigPath     = "ENGINECTL_CONFIG"
)

type appConfig struct {
	SocketPath      string
	Verbose         bool
	ProtocolVersion string
	HistoryFile     string
	Reconnect       int
	Backoff         session.BackoffConfig
}

type fileConfig struct {
	SocketPath            string `toml:"socket_path"`
	Verbose               bool   `toml:"verbose"`
	ProtocolVersion       string `toml:"protocol_version"`
	HistoryFile           string `toml:"history_file"`
	ReconnectAttempts     int    `toml:"reconnect_attempts"`
	ReconnectInitialDelay string `toml:"reconnect_initial_delay"`
	ReconnectMaxDelay     string `toml:"reconnect_max_delay"`
}

func defaultAppConfig() appConfig {
	history := ""
	if dir, err := configDir(); err == nil {
		history = filepath.Join(dir, "history")
	}
	return appConfig{
		SocketPath:      defaultSocketPath,
		ProtocolVersion: protocol.DefaultVersion,
		HistoryFile:     history,
		Reconnect:       3,
		Backoff:         session.DefaultBackoff(),
	}
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "enginectl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "enginectl"), nil
}

// resolveConfigPath reports the config file to read and whether the operator
// named it explicitly. Only explicit files must exist.
func resolveConfigPath(flagPath string) (string, bool) {
	if p := strings.TrimSpace(flagPath); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p, true
	}
	dir, err := configDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "config.toml"), false
}

func loadConfig(path string, explicit bool) (appConfig, error) {
	cfg := defaultAppConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return appConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("socket_path") {
		if p := strings.TrimSpace(raw.SocketPath); p != "" {
			cfg.SocketPath = expandHome(p)
		}
	}

	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}

	if meta.IsDefined("protocol_version") {
		cfg.ProtocolVersion = strings.TrimSpace(raw.ProtocolVersion)
		if _, err := protocol.NewlineFramed(cfg.ProtocolVersion); err != nil {
			return appConfig{}, fmt.Errorf("parse protocol_version: %w", err)
		}
	}

	if meta.IsDefined("history_file") {
		cfg.HistoryFile = expandHome(strings.TrimSpace(raw.HistoryFile))
	}

	if meta.IsDefined("reconnect_attempts") {
		if raw.ReconnectAttempts < 0 {
			return appConfig{}, fmt.Errorf("reconnect_attempts must be >= 0, got %d", raw.ReconnectAttempts)
		}
		cfg.Reconnect = raw.ReconnectAttempts
	}

	if meta.IsDefined("reconnect_initial_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReconnectInitialDelay))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse reconnect_initial_delay: %w", err)
		}
		cfg.Backoff.InitialDelay = d
	}

	if meta.IsDefined("reconnect_max_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReconnectMaxDelay))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse reconnect_max_delay: %w", err)
		}
		cfg.Backoff.MaxDelay = d
	}

	return cfg, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
