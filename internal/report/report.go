package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Dropkick0/ai-call-agent/internal/session"
)

// Summary is the computed end-of-call record handed to persistence and
// written to the report file.
type Summary struct {
	ReportID         string
	CallID           string
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	Transcripts      int
	TPS              float64
	AvgLatency       time.Duration
	GuardrailRejects uint64
	PolicyRejects    uint64
	StateViolations  uint64
	CalendarErrors   uint64
	FinalState       string
}

// Compute derives the summary from a finalized session. Works with partial
// data: a session that never produced transcripts or timestamps yields zero
// rates rather than an error.
func Compute(s *session.CallSession) Summary {
	sum := Summary{
		ReportID:         uuid.NewString(),
		CallID:           s.CallID,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		Duration:         s.Duration(),
		Transcripts:      len(s.Transcripts),
		GuardrailRejects: s.GuardrailRejects,
		PolicyRejects:    s.PolicyRejects,
		StateViolations:  s.StateViolations,
		CalendarErrors:   s.CalendarErrors,
		FinalState:       s.State.String(),
	}

	if secs := sum.Duration.Seconds(); secs > 0 {
		sum.TPS = float64(sum.Transcripts) / secs
	}
	if len(s.Latencies) > 0 {
		var total time.Duration
		for _, l := range s.Latencies {
			total += l
		}
		sum.AvgLatency = total / time.Duration(len(s.Latencies))
	}
	return sum
}

// Write renders the summary as a markdown report file in dir and returns
// the file path. The directory is created if missing.
func Write(dir string, sum Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports dir: %w", err)
	}

	name := sum.CallID
	if name == "" {
		name = sum.ReportID
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_report.md", name))

	content := fmt.Sprintf(`# Call Report %s

TPS: %.2f
Average Latency: %.3f seconds
Guardrail Rejects: %d
Policy Rejects: %d
State Violations: %d
Calendar Errors: %d
Duration: %.2f seconds
Final State: %s
`,
		name,
		sum.TPS,
		sum.AvgLatency.Seconds(),
		sum.GuardrailRejects,
		sum.PolicyRejects,
		sum.StateViolations,
		sum.CalendarErrors,
		sum.Duration.Seconds(),
		sum.FinalState,
	)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
