// Package guardrail validates speech-engine output before it can influence
// the conversation. It runs two independent, side-effect-free checks: a
// case-insensitive scan for disallowed topics, and extraction of a typed
// {intent, text} record against a configurable intent whitelist. Both checks
// fail closed; the caller is responsible for logging and counters.
package guardrail
