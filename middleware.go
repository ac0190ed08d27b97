package engine

import (
	"context"
	"fmt"
	"sync"
)

// Middleware observes a call's request and response in onion order:
// Before hooks run in declared order, After hooks run in reverse-declared
// order (spec §5 "middleware observes requests in declared order and
// responses in reverse-declared order").
//
// The middleware list is fixed when the Client is built (WithMiddleware)
// and is snapshotted under a read lock before each call.
type Middleware struct {
	Name   string
	Before func(ctx context.Context, req *AWSRequest) error
	After  func(ctx context.Context, req *AWSRequest, resp *Response) error
}

// middlewareChain is the client's ordered list of Middleware, set once by
// newMiddlewareChain; there is no method to register middleware later. The
// list is snapshotted under a read lock before each call.
type middlewareChain struct {
	mu    sync.RWMutex
	items []Middleware
}

func newMiddlewareChain(items []Middleware) *middlewareChain {
	c := &middlewareChain{}
	c.items = append(c.items, items...)
	return c
}

func (c *middlewareChain) snapshot() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Middleware, len(c.items))
	copy(out, c.items)
	return out
}

// runBefore executes Before hooks in declared order, aborting on the first
// error (a middleware can reject a request before it is sent).
func (c *middlewareChain) runBefore(ctx context.Context, req *AWSRequest) error {
	for _, m := range c.snapshot() {
		if m.Before == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("middleware %q panicked: %v", m.Name, r)
				}
			}()
			return m.Before(ctx, req)
		}(); err != nil {
			return fmt.Errorf("middleware %q: %w", m.Name, err)
		}
	}
	return nil
}

// runAfter executes After hooks in reverse-declared order. Errors are
// collected rather than aborting: by the time a response exists the call
// has already happened, so an observer erroring out must not hide the
// real response from the caller or from earlier observers in the chain.
func (c *middlewareChain) runAfter(ctx context.Context, req *AWSRequest, resp *Response) error {
	items := c.snapshot()
	var errs []error
	for i := len(items) - 1; i >= 0; i-- {
		m := items[i]
		if m.After == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("middleware %q panicked: %v", m.Name, r)
				}
			}()
			return m.After(ctx, req, resp)
		}(); err != nil {
			errs = append(errs, fmt.Errorf("middleware %q: %w", m.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("after-response middleware failed: %v", errs)
	}
	return nil
}
