// Package report produces the end-of-call summary: computed call metrics
// (duration, turns per second, average latency, rejection counters) and a
// markdown report file per call. Summaries are produced on every call exit
// path, including fatal transport errors.
package report
