// Package hub multiplexes long-lived serial connections under unique port
// identifiers.
//
// Each open port gets a Conn: one background ingestion goroutine draining
// the device into a bounded line buffer. Reads against the buffer never
// wait for the device; an unlimited read drains the buffer atomically,
// a limited read peeks at the most recent lines without disturbing it.
//
// The Registry serializes all map mutations and lookups behind its own
// lock, while each connection's buffer is locked independently, so one
// device streaming at full rate never delays commands aimed at another.
package hub
