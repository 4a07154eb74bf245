package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"seriald/internal/hub"
	"seriald/internal/serial"
)

// listPorts is swappable so tests do not depend on the host's /dev.
var listPorts = serial.ListPorts

// ErrShutdown is returned by Serve after an explicit shutdown request, so
// callers can tell a torn-down server from an ordinary client disconnect.
var ErrShutdown = errors.New("shutdown requested")

// Server dispatches line-delimited JSON requests against a registry.
// Requests are processed strictly one at a time, in arrival order, each
// producing exactly one response before the next request is read.
type Server struct {
	reg *hub.Registry
	log zerolog.Logger
}

// NewServer returns a server bound to reg. The registry is shared state
// passed by reference; the server never owns connections itself.
func NewServer(reg *hub.Registry, log zerolog.Logger) *Server {
	return &Server{reg: reg, log: log}
}

// maxRequestLine bounds how many bytes a single request may occupy.
const maxRequestLine = 64 * 1024

// Serve reads requests from r and writes responses to w until r is
// exhausted, ctx is cancelled, or a shutdown request is received.
// A shutdown closes every live connection before the loop returns.
// No request is ever fatal: malformed or oversized input produces an
// error response and processing continues. Cancelling ctx only takes
// effect once a pending read returns; the caller is expected to close
// r to unblock it.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	enc := json.NewEncoder(w)

	for {
		select {
		case <-ctx.Done():
			s.reg.CloseAll()
			return ctx.Err()
		default:
		}

		line, oversize, readErr := readRequestLine(br)
		if readErr != nil && readErr != io.EOF {
			if ctx.Err() != nil {
				s.reg.CloseAll()
				return ctx.Err()
			}
			return fmt.Errorf("read request: %w", readErr)
		}

		if oversize {
			resp := errResponse(CodeMalformedRequest,
				fmt.Sprintf("request exceeds %d bytes", maxRequestLine))
			if err := enc.Encode(resp); err != nil {
				s.reg.CloseAll()
				return fmt.Errorf("write response: %w", err)
			}
		} else if line = strings.TrimSpace(line); line != "" {
			resp, shutdown := s.handle([]byte(line))
			if err := enc.Encode(resp); err != nil {
				s.reg.CloseAll()
				return fmt.Errorf("write response: %w", err)
			}
			if shutdown {
				s.log.Info().Msg("shutdown requested")
				return ErrShutdown
			}
		}

		if readErr == io.EOF {
			return nil
		}
	}
}

// readRequestLine returns the next newline-terminated line from r. A line
// longer than maxRequestLine is consumed to its end but reported as
// oversized with empty content, so hostile input never accumulates in
// memory and the loop can keep serving subsequent requests.
func readRequestLine(r *bufio.Reader) (string, bool, error) {
	var (
		buf      []byte
		oversize bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversize {
			buf = append(buf, chunk...)
			if len(buf) > maxRequestLine {
				oversize = true
				buf = nil
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return string(buf), oversize, err
	}
}

// handle processes one request line. The second return value is true when
// the request asked the server to shut down.
func (s *Server) handle(line []byte) (Response, bool) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return errResponse(CodeMalformedRequest, fmt.Sprintf("malformed request: %v", err)), false
	}

	s.log.Debug().Str("op", req.Op).Msg("request")

	switch req.Op {
	case "open":
		return s.handleOpen(req.Args), false
	case "read":
		return s.handleRead(req.Args), false
	case "write":
		return s.handleWrite(req.Args), false
	case "close":
		return s.handleClose(req.Args), false
	case "status":
		return s.handleStatus(req.Args), false
	case "ports":
		return s.handlePorts(), false
	case "shutdown":
		closed := s.reg.CloseAll()
		return okResponse(map[string]any{"closed": closed}), true
	case "":
		return errResponse(CodeMalformedRequest, "missing operation"), false
	default:
		return errResponse(CodeUnknownOperation, fmt.Sprintf("unknown operation %q", req.Op)), false
	}
}

func (s *Server) handleOpen(raw json.RawMessage) Response {
	var args openArgs
	if resp, ok := decodeArgs(raw, &args); !ok {
		return resp
	}
	if args.Port == "" {
		return errResponse(CodeInvalidArgument, "open requires a port")
	}
	if args.Baud == 0 {
		args.Baud = serial.DefaultBaudRate
	}

	if err := s.reg.Open(args.Port, args.Baud); err != nil {
		return mapError(err)
	}

	s.log.Info().Str("port", args.Port).Int("baud", args.Baud).Msg("port opened")
	return okResponse(map[string]any{"port": args.Port, "baud": args.Baud})
}

func (s *Server) handleRead(raw json.RawMessage) Response {
	var args readArgs
	if resp, ok := decodeArgs(raw, &args); !ok {
		return resp
	}

	port, resp, ok := s.resolvePort(args.Port)
	if !ok {
		return resp
	}

	var lines []string
	var err error
	if args.Limit == nil {
		lines, err = s.reg.Read(port)
	} else {
		if *args.Limit < 0 {
			return errResponse(CodeInvalidArgument, "limit must not be negative")
		}
		lines, err = s.reg.ReadRecent(port, *args.Limit)
	}
	if err != nil {
		return mapError(err)
	}

	return okResponse(map[string]any{"port": port, "lines": lines})
}

func (s *Server) handleWrite(raw json.RawMessage) Response {
	var args writeArgs
	if resp, ok := decodeArgs(raw, &args); !ok {
		return resp
	}
	if args.Text == nil {
		return errResponse(CodeInvalidArgument, "write requires text")
	}

	port, resp, ok := s.resolvePort(args.Port)
	if !ok {
		return resp
	}

	if err := s.reg.Write(port, *args.Text); err != nil {
		return mapError(err)
	}

	return okResponse(map[string]any{"port": port, "sent": *args.Text})
}

func (s *Server) handleClose(raw json.RawMessage) Response {
	var args closeArgs
	if resp, ok := decodeArgs(raw, &args); !ok {
		return resp
	}

	if args.Port == "" {
		closed := s.reg.CloseAll()
		s.log.Info().Strs("ports", closed).Msg("closed all ports")
		return okResponse(map[string]any{"closed": closed})
	}

	if err := s.reg.Close(args.Port); err != nil {
		return mapError(err)
	}
	s.log.Info().Str("port", args.Port).Msg("port closed")
	return okResponse(map[string]any{"closed": []string{args.Port}})
}

func (s *Server) handleStatus(raw json.RawMessage) Response {
	var args statusArgs
	if resp, ok := decodeArgs(raw, &args); !ok {
		return resp
	}

	if args.Port == "" {
		return okResponse(map[string]any{"ports": s.reg.StatusAll()})
	}

	st, err := s.reg.Status(args.Port)
	if errors.Is(err, hub.ErrNotOpen) {
		// An absent port reports "not open" rather than erroring.
		return okResponse(hub.Status{Port: args.Port, Open: false})
	}
	if err != nil {
		return mapError(err)
	}
	return okResponse(st)
}

func (s *Server) handlePorts() Response {
	ports, err := listPorts()
	if err != nil {
		return errResponse(CodeListFailed, fmt.Sprintf("list ports: %v", err))
	}
	if ports == nil {
		ports = []string{}
	}
	return okResponse(map[string]any{"ports": ports})
}

// resolvePort falls back to the first open port when the caller omitted
// an explicit one.
func (s *Server) resolvePort(port string) (string, Response, bool) {
	if port != "" {
		return port, Response{}, true
	}
	first, err := s.reg.FirstOpen()
	if err != nil {
		return "", mapError(err), false
	}
	return first, Response{}, true
}

func decodeArgs(raw json.RawMessage, into any) (Response, bool) {
	if len(raw) == 0 {
		return Response{}, true
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return errResponse(CodeInvalidArgument, fmt.Sprintf("invalid arguments: %v", err)), false
	}
	return Response{}, true
}

// mapError translates registry and device errors into wire categories.
func mapError(err error) Response {
	var code int
	switch {
	case errors.Is(err, hub.ErrNoPortsOpen):
		code = CodeNoPortsOpen
	case errors.Is(err, hub.ErrNotOpen):
		code = CodeNotOpen
	case errors.Is(err, hub.ErrAlreadyOpen):
		code = CodeAlreadyOpen
	case errors.Is(err, serial.ErrOpenFailed):
		code = CodeOpenFailed
	case errors.Is(err, serial.ErrConfigurationFailed):
		code = CodeConfigFailed
	case errors.Is(err, hub.ErrWriteFailed), errors.Is(err, serial.ErrPortClosed):
		code = CodeWriteFailed
	case errors.Is(err, hub.ErrEncoding):
		code = CodeEncodingError
	default:
		code = CodeInvalidArgument
	}
	return errResponse(code, err.Error())
}
