package protocol

import "encoding/json"

// Error categories carried on the wire. Protocol-level codes are in the
// 1xx range, operation-specific failures in the 2xx range.
const (
	CodeMalformedRequest = 100
	CodeUnknownOperation = 101
	CodeInvalidArgument  = 102

	CodeNoPortsOpen   = 200
	CodeNotOpen       = 201
	CodeAlreadyOpen   = 202
	CodeOpenFailed    = 203
	CodeConfigFailed  = 204
	CodeWriteFailed   = 205
	CodeEncodingError = 206
	CodeListFailed    = 207
)

// Request names an operation and its arguments. One request per line.
type Request struct {
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Error is a structured failure with a numeric category and a
// human-readable message.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is either a success payload or an error, never both.
type Response struct {
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

func okResponse(result any) Response {
	return Response{OK: true, Result: result}
}

func errResponse(code int, message string) Response {
	return Response{OK: false, Error: &Error{Code: code, Message: message}}
}

// Argument shapes, one per operation.

type openArgs struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

type readArgs struct {
	Port  string `json:"port"`
	Limit *int   `json:"limit"`
}

type writeArgs struct {
	Text *string `json:"text"`
	Port string  `json:"port"`
}

type closeArgs struct {
	Port string `json:"port"`
}

type statusArgs struct {
	Port string `json:"port"`
}
