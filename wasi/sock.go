package wasi

import (
	"context"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/resource"
)

// No socket backend exists; every socket call resolves the handle and
// then reports NotSupported.

func (c *Ctx) sock(op string, h resource.Handle) error {
	if _, err := c.file(op, h, 0); err != nil {
		return err
	}
	return errors.New(errors.PhaseDispatch, errors.KindNotSupported).Op(op).Handle(uint32(h)).Build()
}

// SockRecv receives from a socket.
func (c *Ctx) SockRecv(_ context.Context, h resource.Handle, _ [][]byte, _ uint16) (uint64, uint16, error) {
	return 0, 0, c.sock("sock_recv", h)
}

// SockSend sends on a socket.
func (c *Ctx) SockSend(_ context.Context, h resource.Handle, _ [][]byte, _ uint16) (uint64, error) {
	return 0, c.sock("sock_send", h)
}

// SockShutdown shuts down one or both directions of a socket.
func (c *Ctx) SockShutdown(_ context.Context, h resource.Handle, _ uint8) error {
	return c.sock("sock_shutdown", h)
}

// SockAccept accepts a connection on a listening socket.
func (c *Ctx) SockAccept(_ context.Context, h resource.Handle, _ file.FdFlags) (resource.Handle, error) {
	return 0, c.sock("sock_accept", h)
}
