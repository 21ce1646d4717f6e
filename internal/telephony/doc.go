// Package telephony covers the provider-facing side of the relay: the JSON
// message vocabulary of the media-stream WebSocket, a write-serialized
// connection wrapper, the TwiML document returned by the outgoing-call
// webhook, and a REST client for placing outbound calls.
package telephony
