package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"dd2-manager/pkg/core"
)

type Client struct {
	path    string
	log     core.Logger
	timeout time.Duration
}

func NewClient(path string, log core.Logger) *Client {
	return &Client{path: path, log: log, timeout: 2 * requestTimeout}
}

// Send delivers one command and waits for its response.
func (c *Client) Send(ctx context.Context, command string, args ...string) (Response, error) {
	c.log.Debug("Attempting to connect to socket server", "path", c.path)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return Response{}, fmt.Errorf("is dd2-manager running? %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	req := Request{Command: command, Args: args}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	c.log.Info("Request sent successfully", "command", command)

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.Info("Response received", "status", resp.Status, "message", resp.Message)
	return resp, nil
}
