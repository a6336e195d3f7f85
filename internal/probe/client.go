package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// DefaultBufferSize caps the single response read.
const DefaultBufferSize = 4096

// Observer receives phase transitions of a probe in order.
type Observer func(Phase)

type observerKey struct{}

// WithObserver attaches an Observer to probes run with the returned context.
func WithObserver(ctx context.Context, fn Observer) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, observerKey{}, fn)
}

func observerFromContext(ctx context.Context) Observer {
	if fn, ok := ctx.Value(observerKey{}).(Observer); ok {
		return fn
	}
	return func(Phase) {}
}

// Client performs probes with a fixed request. The zero value is not usable; use
// NewClient.
type Client struct {
	request    Request
	bufferSize int
	dialer     func(ctx context.Context, network, addr string, timeout time.Duration) (net.Conn, error)
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBufferSize overrides the response read cap. Non-positive values are ignored.
func WithBufferSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// WithDialer replaces the TCP dialer, mainly for tests.
func WithDialer(dial func(ctx context.Context, network, addr string, timeout time.Duration) (net.Conn, error)) ClientOption {
	return func(c *Client) {
		if dial != nil {
			c.dialer = dial
		}
	}
}

func NewClient(req Request, opts ...ClientOption) *Client {
	c := &Client{
		request:    req,
		bufferSize: DefaultBufferSize,
		dialer:     dialTCP,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request returns the request written by the client.
func (c *Client) Request() Request {
	return c.request
}

// Probe connects to target, writes the request, does one bounded read and closes
// the connection. The returned bytes are whatever the first read produced; an
// immediate close by the server yields an empty, successful response.
func (c *Client) Probe(ctx context.Context, target Target) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	observe := observerFromContext(ctx)
	addr := target.Address()

	observe(PhaseConnecting)
	conn, err := c.dialer(ctx, "tcp", addr, target.Timeout)
	if err != nil {
		return nil, wrapErr(ctx, PhaseConnecting, addr, err)
	}
	defer conn.Close()

	if target.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(target.Timeout)); err != nil {
			return nil, wrapErr(ctx, PhaseConnecting, addr, err)
		}
	}
	// Unblock pending I/O when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	observe(PhaseSending)
	if _, err := conn.Write(c.request.raw); err != nil {
		return nil, wrapErr(ctx, PhaseSending, addr, err)
	}

	observe(PhaseReceiving)
	buf := make([]byte, c.bufferSize)
	n, err := conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, wrapErr(ctx, PhaseReceiving, addr, err)
	}
	return []byte{}, nil
}

func dialTCP(ctx context.Context, network, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, network, addr)
}

func wrapErr(ctx context.Context, phase Phase, addr string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = ctxErr
	}
	return &ConnectionError{Phase: phase, Addr: addr, Err: err}
}
