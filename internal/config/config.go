// Package config provides flag parsing, defaults and validation for sockprobe.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/torosent/sockprobe/internal/probe"
)

type Mode string

const (
	ModeSerial     Mode = "serial"
	ModeConcurrent Mode = "concurrent"
)

type ReportFormat string

const (
	ReportNone ReportFormat = "none"
	ReportText ReportFormat = "text"
	ReportJSON ReportFormat = "json"
	ReportYAML ReportFormat = "yaml"
)

const (
	DefaultHost           = "localhost"
	DefaultSerialPort     = 8090
	DefaultConcurrentPort = 8080
	DefaultTasks          = 20
	DefaultTaskTimeout    = 2 * time.Second
	DefaultLogLevel       = "warn"

	highTaskCount = 500
)

type Config struct {
	Mode        Mode          `mapstructure:"-"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"` // zero means no deadline
	HostHeader  string        `mapstructure:"host_header"`
	BufferSize  int           `mapstructure:"buffer_size"`
	Tasks       int           `mapstructure:"tasks"`
	MaxInFlight int           `mapstructure:"max_in_flight"`
	LaunchRate  int           `mapstructure:"launch_rate"`
	Report      ReportFormat  `mapstructure:"report"`
	MetricsFile string        `mapstructure:"metrics_file"`
	LogLevel    string        `mapstructure:"log_level"`
	LogErrors   bool          `mapstructure:"log_errors"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector host:port
	Protocol    string  `mapstructure:"protocol"`     // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`     // plaintext exporter connection
	SampleRate  float64 `mapstructure:"sample_rate"`  // 0.0-1.0
	ServiceName string  `mapstructure:"service_name"` // defaults to sockprobe
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// DefaultSerial returns the serial mode defaults: localhost:8090, no timeout.
func DefaultSerial() Config {
	return Config{
		Mode:       ModeSerial,
		Host:       DefaultHost,
		Port:       DefaultSerialPort,
		HostHeader: probe.DefaultHostHeader,
		BufferSize: probe.DefaultBufferSize,
		Report:     ReportNone,
		LogLevel:   DefaultLogLevel,
		Tracing:    TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

// DefaultConcurrent returns the concurrent mode defaults: localhost:8080, 20
// tasks, 2s per-task timeout.
func DefaultConcurrent() Config {
	cfg := DefaultSerial()
	cfg.Mode = ModeConcurrent
	cfg.Port = DefaultConcurrentPort
	cfg.Tasks = DefaultTasks
	cfg.Timeout = DefaultTaskTimeout
	return cfg
}

// Target returns the probe target described by the config.
func (c Config) Target() probe.Target {
	return probe.Target{Host: c.Host, Port: c.Port, Timeout: c.Timeout}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	switch c.Mode {
	case ModeSerial, ModeConcurrent:
	default:
		issues = append(issues, fmt.Sprintf("mode %q is not supported", c.Mode))
	}
	if strings.TrimSpace(c.Host) == "" {
		issues = append(issues, "host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		issues = append(issues, fmt.Sprintf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.BufferSize < 1 {
		issues = append(issues, "buffer-size must be >= 1")
	}
	if c.Tasks < 0 {
		issues = append(issues, "tasks must be >= 0")
	}
	if c.MaxInFlight < 0 {
		issues = append(issues, "max-in-flight must be >= 0")
	}
	if c.LaunchRate < 0 {
		issues = append(issues, "launch-rate must be >= 0")
	}
	switch c.Report {
	case "", ReportNone, ReportText, ReportJSON, ReportYAML:
	default:
		issues = append(issues, fmt.Sprintf("report format %q is not supported (none, text, json, yaml)", c.Report))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		issues = append(issues, fmt.Sprintf("log-level %q is not supported", c.LogLevel))
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings lists settings that are valid but worth flagging to the operator.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Tasks > highTaskCount {
		warnings = append(warnings, fmt.Sprintf("High task count configured (%d). Ensure you have authorization to test the target system.", c.Tasks))
	}
	if c.HostHeader != probe.DefaultHostHeader && c.HostHeader != "" {
		warnings = append(warnings, fmt.Sprintf("Host header overridden to %q.", c.HostHeader))
	}
	return warnings
}

func validateTracingConfig(t TracingConfig) []string {
	if !t.Enabled() {
		return nil
	}
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing: sample rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
