package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader builds a Config from a parsed flag set.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadArgs parses args with the flags of mode and returns the resulting Config.
func (l Loader) LoadArgs(mode Mode, args []string) (*Config, error) {
	if mode != ModeSerial && mode != ModeConcurrent {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	cmd := newFlagCommand(mode)
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelpRequested
		}
		return nil, err
	}
	return l.Load(mode, cmd.Flags())
}

// Load reads every flag of fs through viper on top of the mode defaults. Flags
// missing from fs keep their default.
func (Loader) Load(mode Mode, fs *pflag.FlagSet) (*Config, error) {
	var cfg Config
	switch mode {
	case ModeSerial:
		cfg = DefaultSerial()
	case ModeConcurrent:
		cfg = DefaultConcurrent()
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	has := func(name string) bool { return fs.Lookup(name) != nil }

	if has("host") {
		cfg.Host = strings.TrimSpace(v.GetString("host"))
	}
	if has("port") {
		cfg.Port = v.GetInt("port")
	}
	if has("host-header") {
		cfg.HostHeader = strings.TrimSpace(v.GetString("host-header"))
	}
	if has("buffer-size") {
		cfg.BufferSize = v.GetInt("buffer-size")
	}
	if has("tasks") {
		cfg.Tasks = v.GetInt("tasks")
	}
	if has("timeout") {
		cfg.Timeout = v.GetDuration("timeout")
	}
	if has("max-in-flight") {
		cfg.MaxInFlight = v.GetInt("max-in-flight")
	}
	if has("launch-rate") {
		cfg.LaunchRate = v.GetInt("launch-rate")
	}
	if has("report") {
		cfg.Report = ReportFormat(strings.ToLower(strings.TrimSpace(v.GetString("report"))))
	}
	if has("metrics-file") {
		cfg.MetricsFile = strings.TrimSpace(v.GetString("metrics-file"))
	}
	if has("log-level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v.GetString("log-level")))
	}
	if has("log-errors") {
		cfg.LogErrors = v.GetBool("log-errors")
	}
	if has("trace-endpoint") {
		cfg.Tracing.Endpoint = strings.TrimSpace(v.GetString("trace-endpoint"))
	}
	if has("trace-protocol") {
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(v.GetString("trace-protocol")))
	}
	if has("trace-insecure") {
		cfg.Tracing.Insecure = v.GetBool("trace-insecure")
	}
	if has("trace-sample-rate") {
		cfg.Tracing.SampleRate = v.GetFloat64("trace-sample-rate")
	}

	if cfg.HostHeader == "" {
		cfg.HostHeader = DefaultSerial().HostHeader
	}
	return &cfg, nil
}
