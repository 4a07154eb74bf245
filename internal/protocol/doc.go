// Package protocol carries the line-delimited request/response protocol
// between clients and the connection registry.
//
// Each request is one JSON object per line naming an operation and its
// arguments; each response is either a success payload or a structured
// error with a numeric category and a message. Requests are answered
// strictly in arrival order, one response per request, and no input is
// ever fatal to the server.
package protocol
