package config

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterSerialFlags registers the serial mode flags on a cobra command.
func RegisterSerialFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags(), DefaultSerial())
}

// RegisterConcurrentFlags registers the concurrent mode flags on a cobra command.
func RegisterConcurrentFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags(), DefaultConcurrent())
}

// newFlagCommand creates a cobra command with the flags of mode configured.
func newFlagCommand(mode Mode) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sockprobe " + string(mode),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	if mode == ModeSerial {
		RegisterSerialFlags(cmd)
	} else {
		RegisterConcurrentFlags(cmd)
	}
	return cmd
}

// configureFlags sets up the flags of def.Mode with def as defaults.
func configureFlags(flags *pflag.FlagSet, def Config) {
	// Target flags
	flags.String("host", def.Host, "Target host to connect to")
	flags.IntP("port", "p", def.Port, "Target TCP port")
	flags.String("host-header", def.HostHeader, "Value of the Host header sent with every probe")
	flags.Int("buffer-size", def.BufferSize, "Maximum response bytes captured by the single read")

	if def.Mode == ModeConcurrent {
		// Fan-out flags
		flags.IntP("tasks", "n", def.Tasks, "Number of concurrent probe tasks")
		flags.Duration("timeout", def.Timeout, "Per-task connection and I/O timeout (0 disables)")
		flags.Int("max-in-flight", def.MaxInFlight, "Cap on tasks running at once (0 runs all tasks at once)")
		flags.Int("launch-rate", def.LaunchRate, "Task launches per second (0 launches without pacing)")

		// Output flags
		flags.String("report", string(def.Report), "Summary report after the run: none, text, json or yaml")
		flags.String("metrics-file", def.MetricsFile, "Write Prometheus text-format metrics to this file")
	}

	// Diagnostics flags
	flags.String("log-level", def.LogLevel, "Diagnostic log level: debug, info, warn, error, fatal")
	flags.Bool("log-errors", def.LogErrors, "Log each failed probe to stderr")

	// Tracing flags
	flags.String("trace-endpoint", def.Tracing.Endpoint, "OTLP collector endpoint (host:port); empty disables tracing")
	flags.String("trace-protocol", def.Tracing.Protocol, "OTLP exporter protocol: grpc or http")
	flags.Bool("trace-insecure", def.Tracing.Insecure, "Use a plaintext connection to the OTLP collector")
	flags.Float64("trace-sample-rate", def.Tracing.SampleRate, "Fraction of probes to trace (0.0-1.0)")
}
