// Package prompt frames the oracle's text stream into prompt-terminated
// reads.
//
// The default MarkerReader is a heuristic: it stops at the first known
// prompt substring, on EOF, or on timeout, and never reports a missed or
// spurious marker as an error. DelimiterReader is the strict alternative
// for targets that end every message with a fixed delimiter.
package prompt
