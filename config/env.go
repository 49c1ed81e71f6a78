// Package config loads the settings of a simulation run from the
// environment and the topology of a network from scenario files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sarchlab/actornet/tracing"
)

// Environment variables read by LoadEnv.
const (
	EnvLogLevel      = "ACTORNET_LOG_LEVEL"
	EnvMonitorPort   = "ACTORNET_MONITOR_PORT"
	EnvRecordPath    = "ACTORNET_RECORD_PATH"
	EnvParallel      = "ACTORNET_PARALLEL"
	EnvMailboxCap    = "ACTORNET_MAILBOX_CAP"
	EnvScriptTimeout = "ACTORNET_SCRIPT_TIMEOUT"
)

// Env holds the settings taken from the environment.
type Env struct {
	LogLevel      string
	MonitorPort   int
	RecordPath    string
	Parallel      bool
	MailboxCap    int
	ScriptTimeout time.Duration
}

// DefaultEnv returns the settings used when nothing is set.
func DefaultEnv() Env {
	return Env{
		LogLevel:      "info",
		MailboxCap:    16,
		ScriptTimeout: 5 * time.Second,
	}
}

// LoadEnv loads the given dotenv files, or ".env" if none is given, into the
// process environment and reads the settings. Variables already set in the
// environment win over the files. A missing ".env" is not an error; a
// missing file that was asked for is.
func LoadEnv(files ...string) (Env, error) {
	if len(files) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("loading .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Env{}, fmt.Errorf("loading %v: %w", files, err)
	}

	return ReadEnv(os.LookupEnv)
}

// ReadEnv reads the settings through lookup, which has the signature of
// os.LookupEnv.
func ReadEnv(lookup func(string) (string, bool)) (Env, error) {
	env := DefaultEnv()

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		env.LogLevel = v
	}

	if v, ok := lookup(EnvRecordPath); ok {
		env.RecordPath = v
	}

	var err error

	if v, ok := lookup(EnvMonitorPort); ok && v != "" {
		env.MonitorPort, err = strconv.Atoi(v)
		if err != nil || env.MonitorPort < 0 || env.MonitorPort > 65535 {
			return Env{}, fmt.Errorf("%s: invalid port %q", EnvMonitorPort, v)
		}
	}

	if v, ok := lookup(EnvParallel); ok && v != "" {
		env.Parallel, err = strconv.ParseBool(v)
		if err != nil {
			return Env{}, fmt.Errorf("%s: %w", EnvParallel, err)
		}
	}

	if v, ok := lookup(EnvMailboxCap); ok && v != "" {
		env.MailboxCap, err = strconv.Atoi(v)
		if err != nil || env.MailboxCap < 0 {
			return Env{}, fmt.Errorf("%s: invalid capacity %q",
				EnvMailboxCap, v)
		}
	}

	if v, ok := lookup(EnvScriptTimeout); ok && v != "" {
		env.ScriptTimeout, err = time.ParseDuration(v)
		if err != nil {
			return Env{}, fmt.Errorf("%s: %w", EnvScriptTimeout, err)
		}
	}

	return env, nil
}

// NewLogger creates the logger of the run, at the configured level.
func (e Env) NewLogger(w io.Writer) *slog.Logger {
	return tracing.NewLogger(e.LogLevel, w)
}
