// Package serial provides low-level access to Linux serial devices.
//
// Open configures a device for raw 8N1 communication in a single atomic
// step: the descriptor is opened without becoming the controlling terminal,
// termios settings disable all line processing, echo and flow control, and
// stale input is flushed. A failure at any point closes the descriptor and
// reports an error; a Port is only ever returned fully configured.
//
// Unrecognized baud rates are mapped to 115200 instead of being rejected.
//
// WaitReadable gives callers an event-driven way to wait for incoming
// bytes; a blocked wait is released by Close through an internal self-pipe,
// so background readers can be cancelled without busy-polling.
package serial
