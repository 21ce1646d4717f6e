// Package session holds per-call state and the process-wide session
// registry. A CallSession is owned by the relay coordinator handling that
// call; the registry only maps call identifiers to sessions for lookup and
// monitoring and is safe for concurrent insert/remove from different calls.
package session
