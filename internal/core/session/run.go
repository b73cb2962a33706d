package session

import (
	"context"

	"github.com/hay-kot/asmbench/internal/core/logging"
)

// Executor performs the exchange a request describes.
type Executor interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req Request) (Response, error)

func (fn ExecutorFunc) Execute(ctx context.Context, req Request) (Response, error) {
	return fn(ctx, req)
}

// Run dispatches cmd, performs its exchange and applies the response. A
// failed exchange releases the target and leaves the session unchanged.
func (s *Session) Run(ctx context.Context, exec Executor, cmd Command) (Response, error) {
	req, err := s.Dispatch(cmd)
	if err != nil {
		return Response{}, err
	}

	resp, err := exec.Execute(RequestContext(ctx, req), req)
	if err != nil {
		s.Fail(req, err)
		return Response{}, err
	}
	if err := s.Apply(req, resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// RequestContext carries the request and file ids of req for logging.
func RequestContext(ctx context.Context, req Request) context.Context {
	ctx = logging.WithRequestID(ctx, req.ID)
	if req.FileID != 0 {
		ctx = logging.WithFileID(ctx, req.FileID)
	}
	return ctx
}
