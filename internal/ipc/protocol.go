// Package ipc exposes the running manager on a unix socket so that
// `dd2-manager send <command>` can drive it from another process.
package ipc

import "context"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request is one newline-delimited JSON command.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type Response struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (r Response) OK() bool { return r.Status == StatusSuccess }

func Success(message string) Response {
	return Response{Status: StatusSuccess, Message: message}
}

func Failure(err error) Response {
	return Response{Status: StatusError, Message: err.Error()}
}

// Handler executes a request. Implementations forward into the event loop.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

type HandlerFunc func(ctx context.Context, req Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response { return f(ctx, req) }
