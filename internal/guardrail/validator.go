package guardrail

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Verdict classifies one engine turn after validation.
type Verdict int

const (
	Accepted Verdict = iota
	RejectedByGuardrail
	RejectedByPolicy
)

// String returns the verdict name used in logs and transcripts.
func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedByGuardrail:
		return "rejected_by_guardrail"
	case RejectedByPolicy:
		return "rejected_by_policy"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// Intent is the structured record extracted from engine output.
type Intent struct {
	Intent string `json:"intent"`
	Text   string `json:"text"`
}

// ParseError reports engine output that could not be parsed as a structured
// intent. It is non-fatal; the turn is treated as rejected by guardrail.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("guardrail parse: %s", e.Reason)
}

// Config contains validator configuration.
type Config struct {
	// AllowedIntents is the intent whitelist. An empty whitelist disables
	// intent gating: every parseable or unparseable turn is accepted.
	AllowedIntents []string
	// DisallowedPattern is an optional regular expression matched
	// case-insensitively against the raw turn text. Empty disables the scan.
	DisallowedPattern string
}

// Result is the outcome of validating one engine turn.
type Result struct {
	// Intent is the extracted record, nil unless the verdict is Accepted
	// and extraction succeeded.
	Intent  *Intent
	Verdict Verdict
	Reason  string
}

// Validator applies the policy scan and intent extraction. It is immutable
// after construction and safe for concurrent use.
type Validator struct {
	allowed map[string]struct{}
	policy  *regexp.Regexp
}

// New builds a validator from configuration. The disallowed pattern is
// compiled once, case-insensitively.
func New(cfg Config) (*Validator, error) {
	v := &Validator{}

	if len(cfg.AllowedIntents) > 0 {
		v.allowed = make(map[string]struct{}, len(cfg.AllowedIntents))
		for _, intent := range cfg.AllowedIntents {
			v.allowed[intent] = struct{}{}
		}
	}

	if cfg.DisallowedPattern != "" {
		re, err := regexp.Compile("(?i)" + cfg.DisallowedPattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile disallowed pattern: %w", err)
		}
		v.policy = re
	}

	return v, nil
}

// Gated reports whether intent gating is active.
func (v *Validator) Gated() bool {
	return len(v.allowed) > 0
}

// Validate classifies one raw engine turn. The policy scan runs first and
// short-circuits: a policy hit never reaches intent extraction. Intent
// extraction fails closed when gating is active.
func (v *Validator) Validate(raw string) Result {
	if v.policy != nil && v.policy.MatchString(raw) {
		return Result{
			Verdict: RejectedByPolicy,
			Reason:  "disallowed topic pattern matched",
		}
	}

	intent, err := ExtractIntent(raw)
	if !v.Gated() {
		// Ungated configuration: forward everything, keep the intent when
		// one was parseable.
		if err != nil {
			return Result{Verdict: Accepted}
		}
		return Result{Intent: intent, Verdict: Accepted}
	}

	if err != nil {
		return Result{
			Verdict: RejectedByGuardrail,
			Reason:  err.Error(),
		}
	}

	if _, ok := v.allowed[intent.Intent]; !ok {
		return Result{
			Verdict: RejectedByGuardrail,
			Reason:  fmt.Sprintf("intent %q not in whitelist", intent.Intent),
		}
	}

	return Result{Intent: intent, Verdict: Accepted}
}

// ExtractIntent parses the engine's structured output into an Intent. The
// engine emits a JSON object, possibly embedded in surrounding prose, so the
// outermost {...} span is located before unmarshalling.
func ExtractIntent(raw string) (*Intent, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil, &ParseError{Reason: "no JSON object in turn text"}
	}

	var intent Intent
	if err := json.Unmarshal([]byte(raw[start:end+1]), &intent); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if intent.Intent == "" {
		return nil, &ParseError{Reason: "missing intent field"}
	}

	return &intent, nil
}
