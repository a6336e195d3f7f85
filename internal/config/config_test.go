package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/torosent/sockprobe/internal/config"
)

func TestLoadSerialDefaults(t *testing.T) {
	cfg, err := config.NewLoader().LoadArgs(config.ModeSerial, []string{})
	if err != nil {
		t.Fatalf("LoadArgs() error = %v", err)
	}
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.Host)
	}
	if cfg.Port != 8090 {
		t.Errorf("Port = %d, want 8090", cfg.Port)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %s, want 0 (no deadline)", cfg.Timeout)
	}
	if cfg.HostHeader != "localhost" {
		t.Errorf("HostHeader = %q, want localhost", cfg.HostHeader)
	}
	if cfg.BufferSize != 4096 {
		t.Errorf("BufferSize = %d, want 4096", cfg.BufferSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConcurrentDefaults(t *testing.T) {
	cfg, err := config.NewLoader().LoadArgs(config.ModeConcurrent, nil)
	if err != nil {
		t.Fatalf("LoadArgs() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Tasks != 20 {
		t.Errorf("Tasks = %d, want 20", cfg.Tasks)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %s, want 2s", cfg.Timeout)
	}
	if cfg.MaxInFlight != 0 || cfg.LaunchRate != 0 {
		t.Errorf("MaxInFlight/LaunchRate = %d/%d, want 0/0", cfg.MaxInFlight, cfg.LaunchRate)
	}
	if cfg.Report != config.ReportNone {
		t.Errorf("Report = %q, want none", cfg.Report)
	}
	if cfg.Tracing.Enabled() {
		t.Error("Tracing enabled by default")
	}
}

func TestLoadConcurrentFlagOverrides(t *testing.T) {
	cfg, err := config.NewLoader().LoadArgs(config.ModeConcurrent, []string{
		"--host", " 10.0.0.5 ",
		"-p", "9000",
		"-n", "50",
		"--timeout", "500ms",
		"--max-in-flight", "10",
		"--launch-rate", "200",
		"--report", "JSON",
		"--metrics-file", "/tmp/probe.prom",
		"--log-level", "debug",
		"--log-errors",
		"--trace-endpoint", "localhost:4317",
		"--trace-protocol", "http",
		"--trace-insecure",
		"--trace-sample-rate", "0.25",
	})
	if err != nil {
		t.Fatalf("LoadArgs() error = %v", err)
	}
	if cfg.Host != "10.0.0.5" || cfg.Port != 9000 {
		t.Errorf("target = %s:%d, want 10.0.0.5:9000", cfg.Host, cfg.Port)
	}
	if cfg.Tasks != 50 {
		t.Errorf("Tasks = %d, want 50", cfg.Tasks)
	}
	if cfg.Timeout != 500*time.Millisecond {
		t.Errorf("Timeout = %s, want 500ms", cfg.Timeout)
	}
	if cfg.MaxInFlight != 10 || cfg.LaunchRate != 200 {
		t.Errorf("MaxInFlight/LaunchRate = %d/%d, want 10/200", cfg.MaxInFlight, cfg.LaunchRate)
	}
	if cfg.Report != config.ReportJSON {
		t.Errorf("Report = %q, want json", cfg.Report)
	}
	if cfg.MetricsFile != "/tmp/probe.prom" {
		t.Errorf("MetricsFile = %q", cfg.MetricsFile)
	}
	if cfg.LogLevel != "debug" || !cfg.LogErrors {
		t.Errorf("LogLevel/LogErrors = %q/%v", cfg.LogLevel, cfg.LogErrors)
	}
	if !cfg.Tracing.Enabled() || cfg.Tracing.Protocol != "http" || !cfg.Tracing.Insecure || cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	target := cfg.Target()
	if target.Address() != "10.0.0.5:9000" || target.Timeout != 500*time.Millisecond {
		t.Errorf("Target() = %+v", target)
	}
}

func TestSerialHasNoTimeoutFlag(t *testing.T) {
	_, err := config.NewLoader().LoadArgs(config.ModeSerial, []string{"--timeout", "1s"})
	if err == nil {
		t.Fatal("LoadArgs() error = nil, want unknown flag error")
	}
}

func TestLoadHelpRequested(t *testing.T) {
	_, err := config.NewLoader().LoadArgs(config.ModeConcurrent, []string{"--help"})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("LoadArgs() error = %v, want ErrHelpRequested", err)
	}
}

func TestLoadUnknownMode(t *testing.T) {
	if _, err := config.NewLoader().LoadArgs(config.Mode("burst"), nil); err == nil {
		t.Fatal("LoadArgs() error = nil, want error")
	}
}

func TestValidateCollectsAllIssues(t *testing.T) {
	cfg := config.DefaultConcurrent()
	cfg.Host = " "
	cfg.Port = 0
	cfg.Tasks = -1
	cfg.Timeout = -time.Second
	cfg.BufferSize = 0
	cfg.Report = "xml"
	cfg.LogLevel = "chatty"
	cfg.Tracing = config.TracingConfig{Endpoint: "localhost:4317", Protocol: "udp", SampleRate: 2}

	err := cfg.Validate()
	var vErr config.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Validate() error = %v, want ValidationError", err)
	}
	wantSubstrings := []string{"host", "port", "tasks", "timeout", "buffer-size", "report", "log-level", "protocol", "sample rate"}
	joined := strings.Join(vErr.Issues(), "\n")
	for _, want := range wantSubstrings {
		if !strings.Contains(joined, want) {
			t.Errorf("issues missing %q:\n%s", want, joined)
		}
	}
}

func TestWarnings(t *testing.T) {
	cfg := config.DefaultConcurrent()
	if w := cfg.Warnings(); len(w) != 0 {
		t.Fatalf("Warnings() = %v, want none", w)
	}
	cfg.Tasks = 1000
	cfg.HostHeader = "example.test"
	if w := cfg.Warnings(); len(w) != 2 {
		t.Fatalf("Warnings() = %v, want 2", w)
	}
}
