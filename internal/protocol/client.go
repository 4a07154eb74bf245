package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"seriald/internal/hub"
)

// Client talks to a running daemon over TCP. It issues one request at a
// time and reads exactly one response per request, mirroring the server's
// no-pipelining contract.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to a daemon listening on addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Do sends one request and decodes the matching response.
func (c *Client) Do(op string, args any) (Response, error) {
	req := Request{Op: op}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return Response{}, fmt.Errorf("encode args: %w", err)
		}
		req.Args = raw
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	if _, err := c.conn.Write(append(payload, '\n')); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Status fetches the per-port snapshots from the daemon.
func (c *Client) Status() ([]hub.Status, error) {
	resp, err := c.Do("status", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("status failed: %s", resp.Error.Message)
	}

	// Round-trip the generic result through JSON into the typed form.
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, err
	}
	var result struct {
		Ports []hub.Status `json:"ports"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode status result: %w", err)
	}
	return result.Ports, nil
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	return c.conn.Close()
}
