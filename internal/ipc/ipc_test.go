package ipc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dd2-manager/pkg/logger"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// unix socket paths are length limited, keep it short
	dir, err := os.MkdirTemp("", "dd2")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestRoundTrip(t *testing.T) {
	path := socketPath(t)
	srv := NewServer(path, HandlerFunc(func(_ context.Context, req Request) Response {
		if req.Command != "rotate" {
			return Failure(fmt.Errorf("unknown command %q", req.Command))
		}
		return Response{Status: StatusSuccess, Message: "rotated " + req.Args[0], Data: map[string]any{"main": "0x2"}}
	}), logger.Nop())
	require.NoError(t, srv.Start())
	defer srv.Close()

	client := NewClient(path, logger.Nop())

	resp, err := client.Send(context.Background(), "rotate", "forward")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "rotated forward", resp.Message)
	assert.Equal(t, "0x2", resp.Data["main"])

	resp, err = client.Send(context.Background(), "dance")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Contains(t, resp.Message, "dance")
}

func TestStartReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, nil, 0644))

	srv := NewServer(path, HandlerFunc(func(context.Context, Request) Response { return Success("ok") }), logger.Nop())
	require.NoError(t, srv.Start())
	require.NoError(t, srv.Start())
	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSendWithoutServer(t *testing.T) {
	_, err := NewClient(socketPath(t), logger.Nop()).Send(context.Background(), "refresh")
	assert.Error(t, err)
}
