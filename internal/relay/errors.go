package relay

import "fmt"

// TransportError wraps a socket failure on either side of the relay. Fatal
// to the call: the coordinator tears down both connections and finalizes
// the session.
type TransportError struct {
	Side string // "telephony" or "engine"
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Side, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
