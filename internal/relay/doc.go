// Package relay implements the duplex bridge between one telephony media
// stream and one speech-engine realtime connection. A Coordinator owns the
// call session and runs two pumps: the inbound pump forwards caller audio to
// the engine, the outbound pump forwards engine audio to the caller and
// drives guardrail validation and the conversation state machine. Barge-in,
// policy cancellation and coordinated teardown all happen here.
package relay
