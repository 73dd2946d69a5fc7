package server

import (
	"context"
	"errors"
	"net"

	"github.com/oklog/ulid/v2"
)

// ServeTCP accepts connections and runs the stream protocol on each,
// one goroutine per connection. The registry and facade behind the
// dispatcher are read-only after startup, so connections share them
// freely. Returns when the context is canceled or the listener fails.
func (d *Dispatcher) ServeTCP(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer listener.Close()
	d.logger.Info("listening", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return err
		}
		go d.serveConn(ctx, conn)
	}
}

func (d *Dispatcher) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	connID := ulid.Make().String()
	logger := d.logger.With("conn", connID, "remote", conn.RemoteAddr().String())
	logger.Info("connection opened")

	connDispatcher := &Dispatcher{registry: d.registry, logger: logger}
	if err := connDispatcher.HandleStream(ctx, conn, conn); err != nil {
		logger.Warn("connection ended with error", "error", err)
		return
	}
	logger.Info("connection closed")
}
