package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/torosent/sockprobe/internal/config"
	"github.com/torosent/sockprobe/internal/metrics"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Probe Results ---")
	if stats.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", stats.RunID)
	}
	fmt.Fprintf(w, "Total Probes:      %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failures)
	fmt.Fprintf(w, "Bytes Received:    %d\n", stats.BytesReceived)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Probes/sec:        %.2f\n", stats.ProbesPerSec)
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)

	if len(stats.Failed) > 0 {
		fmt.Fprintln(w, "\nFailure Reasons:")
		reasons := make([]string, 0, len(stats.Failed))
		for reason := range stats.Failed {
			reasons = append(reasons, reason)
		}
		sort.Slice(reasons, func(i, j int) bool {
			if stats.Failed[reasons[i]] == stats.Failed[reasons[j]] {
				return reasons[i] < reasons[j]
			}
			return stats.Failed[reasons[i]] > stats.Failed[reasons[j]]
		})
		for _, reason := range reasons {
			fmt.Fprintf(w, "  %-16s %d\n", reason+":", stats.Failed[reason])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, stats metrics.Stats) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(stats); err != nil {
		return err
	}
	return enc.Close()
}

// WriteReport dispatches on format. ReportNone and the empty format write nothing.
func WriteReport(w io.Writer, format config.ReportFormat, stats metrics.Stats) error {
	switch format {
	case "", config.ReportNone:
		return nil
	case config.ReportText:
		PrintReport(w, stats)
		return nil
	case config.ReportJSON:
		return PrintJSONReport(w, stats)
	case config.ReportYAML:
		return PrintYAMLReport(w, stats)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}
