package geolocation

import "context"

// Result is the outcome of a single request: either Position or Err is set.
type Result struct {
	Position *Position
	Err      error
}

// Request is RequestLocation with the outcome delivered on a channel. The
// channel receives at most one Result and is never closed; a host that never
// answers leaves it empty.
func Request(host Host) <-chan Result {
	ch := make(chan Result, 1)

	RequestLocation(host,
		func(p *Position) { ch <- Result{Position: p} },
		func(err error) { ch <- Result{Err: err} },
	)

	return ch
}

// Locate waits for the outcome of a request. The context only bounds the wait:
// once issued, the request to the host keeps running.
func Locate(ctx context.Context, host Host) (*Position, error) {
	select {
	case r := <-Request(host):
		return r.Position, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
