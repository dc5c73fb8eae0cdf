// Package transport owns the byte channel to the oracle target.
//
// Ownership boundary:
// - TCP sessions to a remote host:port
// - spawned local processes with stdin/stdout pipes (stderr merged)
// - bounded reads with per-call timeouts and exactly-once teardown
//
// Callers program against Session only; the variant is chosen once in Open.
package transport
