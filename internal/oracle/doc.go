// Package oracle speaks the target's menu protocol.
//
// Wire protocol (fixed):
// - "1\n" selects query mode; the target asks for a number, reads one
//   decimal line and replies with text containing an integer
// - "2\n" selects guess mode; the target asks for the secret, reads one
//   decimal line and replies with free-form text
//
// The integer returned by a query is read as floor(secret / number). Only
// its relation to 1 matters: >= 1 means number <= secret. Every caller
// above this package depends on that reading.
package oracle
