// Package engine implements the WebSocket client for the speech engine's
// realtime API. It dials the engine with authenticated headers, decodes
// server events into typed records, and sends the session.update, audio
// append and response.cancel control messages the relay needs.
package engine
