package dmh

import "context"

// Noop is a Client that acknowledges every submission without any external
// call. Used by dry runs and tests.
type Noop struct{}

func (Noop) Login(context.Context) error { return nil }

func (Noop) Submit(context.Context, Request) (Response, error) {
	return Response{Success: true, Code: "DRY_RUN"}, nil
}
