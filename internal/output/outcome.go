package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/torosent/sockprobe/internal/probe"
)

// OutcomePrinter writes one console line per probe outcome. It is safe for
// concurrent use and satisfies runner.Reporter.
type OutcomePrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewOutcomePrinter(w io.Writer) *OutcomePrinter {
	return &OutcomePrinter{w: w}
}

func (p *OutcomePrinter) Report(out probe.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, FormatOutcome(out))
}

// FormatOutcome renders the per-task line without a trailing newline.
func FormatOutcome(out probe.Outcome) string {
	if out.Success() {
		return fmt.Sprintf("Thread %d: Response received.", out.ID)
	}
	return fmt.Sprintf("Thread %d: Exception: %v", out.ID, out.Err)
}

// PrintResponse writes the decoded serial response followed by a newline.
func PrintResponse(w io.Writer, resp []byte) error {
	_, err := fmt.Fprintln(w, string(resp))
	return err
}
