package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/xwire/protocol"
)

// TCP is a debug server: it accepts connections, runs a server-side engine
// on each, and answers requests from a Responder. Several listeners share
// the same port via SO_REUSEPORT so accept load spreads across them.
type TCP struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr string

	numListeners int
	listeners    []*TCPListener

	responder Responder
	maxFrame  uint32

	log   *zap.Logger
	trace bool
}

func NewTCP(options Options) *TCP {
	numListeners := options.NumListeners

	if numListeners < 1 {
		numListeners = runtime.NumCPU()
	}

	return &TCP{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		numListeners: numListeners,
		listeners:    make([]*TCPListener, 0, numListeners),
		trace:        options.Trace,
		maxFrame:     options.MaxFrameSize,
		responder:    options.Responder,
		log:          options.Log,
	}
}

func (w *TCP) Start(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	w.cancel = cancel

	w.log.Info("Starting tcp listeners", zap.Int("count", w.numListeners))

	for i := 0; i < w.numListeners; i++ {
		w.startListener(ctx, w.addr)
	}

	return nil
}

func (w *TCP) startListener(ctx context.Context, addr string) {
	w.stopWaiter.Add(1)
	listener := NewTCPListener(
		ctx,
		addr,
		w.responder,
		w.maxFrame,
		w.trace,
		w.log.Named("listener").With(zap.Int("listener", len(w.listeners))),
	)

	w.listeners = append(w.listeners, &listener)

	go func() {
		defer w.stopWaiter.Done()

		if err := listener.Listen(); err != nil {
			// TODO(rolly) as any of the listeners can fail to listen, but we don't treat this as fatal,
			//             you can end up with less than the required amount of listeners running
			w.log.Error("Failed to listen", zap.Error(err))
		}
	}()
}

// Close immediately closes all active listeners and connections.
func (w *TCP) Close() error {
	w.log.Info("Stopping TCP server")
	w.cancel()

	var err error
	for _, listener := range w.listeners {
		err = multierr.Append(err, listener.Close())
	}

	w.stopWaiter.Wait()
	w.log.Info("Listeners stopped")

	return err
}

type TCPListener struct {
	ctx context.Context

	addr string
	log  *zap.Logger

	mu          sync.Mutex
	activeConns map[*TCPConn]struct{}

	responder Responder
	maxFrame  uint32
	trace     bool
}

func NewTCPListener(
	ctx context.Context,
	addr string,
	responder Responder,
	maxFrame uint32,
	trace bool,
	log *zap.Logger,
) TCPListener {
	return TCPListener{
		ctx:         ctx,
		activeConns: make(map[*TCPConn]struct{}),
		addr:        addr,
		responder:   responder,
		maxFrame:    maxFrame,
		trace:       trace,
		log:         log,
	}
}

func (t *TCPListener) Close() (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for conn := range t.activeConns {
		err = multierr.Append(err, conn.Close())
		delete(t.activeConns, conn)
	}

	return err
}

func (t *TCPListener) Listen() error {
	listener, err := reuseport.Listen("tcp", t.addr)
	if err != nil {
		return err
	}

	defer listener.Close()

	var connWaiter sync.WaitGroup

	go func() {
		<-t.ctx.Done()

		t.log.Info("Closing listener")
		if err := listener.Close(); err != nil {
			t.log.Warn("TCP Listener did not close cleanly", zap.Error(err))
		}
	}()

	for {
		select {
		case <-t.ctx.Done():
			t.log.Info("Stopped accepting new connections")
			connWaiter.Wait()

			t.log.Info("Listener stopped")
			return nil

		default:
			conn, err := listener.Accept()
			if err != nil {
				netOpError := new(net.OpError)

				if errors.As(err, &netOpError) && strings.Contains(netOpError.Error(), "use of closed network connection") {
					// The listener was closed while we were waiting for new
					// connections, that's fine.
					return nil
				}

				// TODO(rolly) can we recover from some classes of err?
				return err
			}

			connWaiter.Add(1)
			tcpConn := NewTCPConn(t.ctx, conn, t.responder, t.maxFrame, t.trace, t.log.Named("conn"))

			t.addConn(tcpConn)

			go func() {
				defer connWaiter.Done()
				defer t.removeConn(tcpConn)

				tcpConn.Serve()
			}()
		}
	}
}

func (t *TCPListener) addConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeConns[conn] = struct{}{}
}

func (t *TCPListener) removeConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.activeConns, conn)
}

// TCPConn serves one client: a server-side engine over the accepted
// connection, answering one request per receive cycle.
type TCPConn struct {
	ctx    context.Context
	cancel context.CancelFunc

	conn net.Conn
	eng  *protocol.Engine

	responder Responder
	trace     bool

	log *zap.Logger
}

func NewTCPConn(
	parentCtx context.Context,
	conn net.Conn,
	responder Responder,
	maxFrame uint32,
	trace bool,
	log *zap.Logger,
) *TCPConn {
	ctx, cancel := context.WithCancel(parentCtx)

	return &TCPConn{
		ctx:       ctx,
		cancel:    cancel,
		conn:      conn,
		eng:       protocol.NewEngine(conn, protocol.Client, maxFrame),
		responder: responder,
		trace:     trace,
		log:       log,
	}
}

func (t *TCPConn) Close() error {
	t.cancel()
	return t.conn.Close()
}

// Serve answers requests until the client quits, the connection drops, or
// the listener shuts down.
func (t *TCPConn) Serve() {
	defer t.log.Info("Connection closed")

	// Greet the client so notice delivery is exercised on every session.
	if err := t.send(protocol.TypeNotice, &protocol.Notice{
		NoticeType: 1,
		Scope:      protocol.ScopeGlobal,
		Payload:    []byte("session started"),
	}); err != nil {
		t.log.Warn("Failed to send greeting notice", zap.Error(err))
		return
	}

	for {
		select {
		case <-t.ctx.Done():
			t.log.Info("Context cancelled, exiting...")
			return

		default:
			h := &requestHandler{}
			rcv := t.eng.Receive(h, nil)

			if err := rcv.Wait(); err != nil {
				if !t.isRunning() {
					return
				}

				t.log.Warn("Failed to read client request", zap.Error(err))
				return
			}

			if t.trace {
				t.log.Debug("Received frame", zap.Uint8("type", uint8(rcv.MsgType())))
			}

			if done := t.dispatch(h.msg); done {
				return
			}
		}
	}
}

// dispatch answers one decoded request and reports whether the session is
// over.
func (t *TCPConn) dispatch(msg protocol.Message) bool {
	switch req := msg.(type) {
	case *protocol.SessionClose:
		if err := t.send(protocol.TypeOk, &protocol.Ok{Msg: "bye"}); err != nil {
			t.log.Warn("Failed to acknowledge session close", zap.Error(err))
		}

		t.log.Info("Client closed the session, exiting...")
		return true

	case *protocol.StmtExecute:
		result, err := t.responder.Execute(req)
		t.sendResult(result, err)

	case *protocol.Find:
		result, err := t.responder.Find(req.Collection, req.RawCriteria())
		t.sendResult(result, err)

	default:
		t.log.Warn("No dispatch for message", zap.Uint8("type", uint8(msg.Type())))
		return true
	}

	return false
}

// sendResult streams one result set to the client: columns, rows, then the
// end-of-data and statement-ok markers. A failed responder sends an error
// message instead.
func (t *TCPConn) sendResult(result *Result, err error) {
	if err != nil {
		var srvErr *protocol.ServerError
		if !errors.As(err, &srvErr) {
			srvErr = &protocol.ServerError{
				Code:     1000,
				Severity: protocol.SeverityError,
				State:    protocol.SQLState{'H', 'Y', '0', '0', '0'},
				Msg:      err.Error(),
			}
		}

		if serr := t.send(protocol.TypeError, srvErr); serr != nil {
			t.log.Warn("Failed to send error reply", zap.Error(serr))
		}

		return
	}

	for i := range result.Columns {
		if err := t.send(protocol.TypeColumnMeta, &result.Columns[i]); err != nil {
			t.log.Warn("Failed to send column meta", zap.Error(err))
			return
		}
	}

	for i := range result.Rows {
		if err := t.send(protocol.TypeRow, &result.Rows[i]); err != nil {
			t.log.Warn("Failed to send row", zap.Error(err))
			return
		}
	}

	if err := t.send(protocol.TypeFetchDone, &protocol.FetchDone{}); err != nil {
		t.log.Warn("Failed to send fetch done", zap.Error(err))
		return
	}

	if err := t.send(protocol.TypeStmtOk, &protocol.StmtOk{}); err != nil {
		t.log.Warn("Failed to send statement ok", zap.Error(err))
	}
}

func (t *TCPConn) send(msgType protocol.MsgType, msg protocol.Marshaler) error {
	snd, err := t.eng.Send(msgType, msg)
	if err != nil {
		return fmt.Errorf("failed to stage message type %d: %w", msgType, err)
	}

	return snd.Wait()
}

// isRunning returns true if Close has not been called
func (t *TCPConn) isRunning() bool {
	select {
	case <-t.ctx.Done():
		// if we can read on this channel then it's been closed
		return false

	default:
		return true
	}
}

// requestHandler consumes exactly one client request per receive cycle.
type requestHandler struct {
	msg protocol.Message
}

func (h *requestHandler) Accept(t protocol.MsgType) protocol.Classification {
	switch t {
	case protocol.TypeStmtExecute, protocol.TypeFind, protocol.TypeSessionClose:
		return protocol.Expected
	default:
		return protocol.Unexpected
	}
}

func (h *requestHandler) HandleMsg(m protocol.Message) error {
	h.msg = m
	return nil
}

func (h *requestHandler) Next(protocol.MsgType) bool {
	return false
}
