// Package challenge implements a local div-oracle target.
//
// A Game holds a 128-bit secret (top bit set) and serves the menu protocol
// on one stream: query mode answers floor(secret / n) for 128-bit n, guess
// mode checks one answer and ends the session. Server runs one Game per
// TCP connection.
package challenge
