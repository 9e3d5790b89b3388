package kernel

import (
	"context"

	"github.com/orinrun/orin/internal/orierr"
)

// Transport is the pluggable channel a kernel receives requests from
// and sends replies on (spec.md 4.8: "local message transport
// (loopback socket or in-process queue) ... design supports pluggable
// transports"). ChannelTransport is the reference implementation; a
// loopback-socket transport would satisfy the same interface.
type Transport interface {
	Receive(ctx context.Context) (Message, error)
	Send(ctx context.Context, msg Message) error
	Close() error
}

// ChannelTransport is an in-process queue transport: Submit enqueues a
// request (the role a real loopback socket's accept loop would play)
// and Replies returns the channel a client reads kernel output from.
// This is the transport cmd/orin and every kernel test use; it never
// touches the network.
type ChannelTransport struct {
	requests chan Message
	replies  chan Message
	closed   chan struct{}
}

// NewChannelTransport builds a transport with the given request queue
// depth — the in-process analogue of a socket's backlog.
func NewChannelTransport(depth int) *ChannelTransport {
	if depth <= 0 {
		depth = 16
	}
	return &ChannelTransport{
		requests: make(chan Message, depth),
		replies:  make(chan Message, depth),
		closed:   make(chan struct{}),
	}
}

// Submit enqueues a request for the kernel's main loop to pick up.
// Blocks if the request queue is full, mirroring backpressure a real
// socket transport would apply at the TCP layer.
func (t *ChannelTransport) Submit(ctx context.Context, msg Message) error {
	select {
	case t.requests <- msg:
		return nil
	case <-t.closed:
		return orierr.New(orierr.KindInternal, "kernel", "transport closed")
	case <-ctx.Done():
		return orierr.Wrap(orierr.KindCancellation, "kernel", ctx.Err())
	}
}

// Replies returns the channel a client reads kernel replies from.
func (t *ChannelTransport) Replies() <-chan Message { return t.replies }

func (t *ChannelTransport) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-t.requests:
		return msg, nil
	case <-t.closed:
		return Message{}, orierr.New(orierr.KindInternal, "kernel", "transport closed")
	case <-ctx.Done():
		return Message{}, orierr.Wrap(orierr.KindCancellation, "kernel", ctx.Err())
	}
}

func (t *ChannelTransport) Send(ctx context.Context, msg Message) error {
	select {
	case t.replies <- msg:
		return nil
	case <-t.closed:
		return orierr.New(orierr.KindInternal, "kernel", "transport closed")
	case <-ctx.Done():
		return orierr.Wrap(orierr.KindCancellation, "kernel", ctx.Err())
	}
}

// Close shuts the transport down; idempotent.
func (t *ChannelTransport) Close() error {
	select {
	case <-t.closed:
	default:
		close(t.closed)
	}
	return nil
}
