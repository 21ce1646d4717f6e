// Package server implements the HTTP surface of the call agent: the
// outbound-call endpoint, the telephony webhook, the media-stream WebSocket
// that hosts one relay per call, and the monitoring endpoints.
package server
