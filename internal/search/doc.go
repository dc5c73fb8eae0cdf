// Package search recovers the oracle's secret by binary search.
//
// The candidate range starts at [2^127, 2^128-1] and shrinks by at least
// one value per query, so a truthful oracle is resolved in at most 128
// queries. An unparseable reply or an exhausted step budget aborts the run;
// neither is retried because the session's text position cannot be
// trusted afterwards.
package search
