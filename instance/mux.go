package instance

import (
	"net"

	"github.com/hashicorp/yamux"
)

// muxListener adapts a yamux-multiplexed connection into a net.Listener so
// Harness.Serve's grpc.Server can run over it unmodified. Enabled by setting
// FLAME_MUX=1: each raw connection accepted on the worker socket becomes a
// yamux server session, and every logical stream opened on that session is
// surfaced through Accept as its own net.Conn. This lets one Unix-socket
// connection to the harness carry more than one concurrent gRPC stream
// without the frontend having to open a second socket connection.
type muxListener struct {
	underlying net.Listener
	streams    chan net.Conn
	errs       chan error
}

func newMuxListener(underlying net.Listener) *muxListener {
	ml := &muxListener{
		underlying: underlying,
		streams:    make(chan net.Conn),
		errs:       make(chan error, 1),
	}
	go ml.acceptLoop()
	return ml
}

func (ml *muxListener) acceptLoop() {
	for {
		conn, err := ml.underlying.Accept()
		if err != nil {
			ml.errs <- err
			return
		}
		session, err := yamux.Server(conn, yamux.DefaultConfig())
		if err != nil {
			conn.Close()
			continue
		}
		go ml.drainSession(session)
	}
}

func (ml *muxListener) drainSession(session *yamux.Session) {
	for {
		stream, err := session.Accept()
		if err != nil {
			return
		}
		ml.streams <- stream
	}
}

func (ml *muxListener) Accept() (net.Conn, error) {
	select {
	case c := <-ml.streams:
		return c, nil
	case err := <-ml.errs:
		return nil, err
	}
}

func (ml *muxListener) Close() error  { return ml.underlying.Close() }
func (ml *muxListener) Addr() net.Addr { return ml.underlying.Addr() }
