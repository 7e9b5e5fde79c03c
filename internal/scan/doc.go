// Package scan holds the rule registry and scoring engine.
//
// A scan evaluates every Rule of a Registry against one PageContext and
// returns one Finding per rule in registry order. Score and Summarize reduce
// that list for presentation. Nothing here performs I/O: page acquisition is
// the collector's job and rendering is the report package's.
package scan
