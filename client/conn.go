package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/xwire/expr"
	"github.com/luma/xwire/protocol"
)

// Notice is a server notice surfaced to the application. The payload stays
// opaque at this layer; its interpretation depends on Type.
type Notice struct {
	Type    uint32
	Scope   protocol.NoticeScope
	Payload []byte
}

// Conn is a client connection to a server: a TCP stream with a client-side
// protocol engine on top of it.
//
// A Conn is not safe for concurrent use. The engine underneath allows one
// send and one receive cycle at a time and relies on the caller for
// exclusion.
type Conn struct {
	conn net.Conn
	eng  *protocol.Engine

	noticeChan chan *Notice
	closeOnce  sync.Once

	log *zap.Logger
}

func New(log *zap.Logger) *Conn {
	return &Conn{
		log:        log,
		noticeChan: make(chan *Notice, 255),
	}
}

func (c *Conn) Connect(ctx context.Context, addr string) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	c.conn = conn
	c.eng = protocol.NewClient(conn)

	c.log.Info("Connected", zap.String("addr", addr))

	return nil
}

// Close closes the connection. Any in-flight operation fails with an I/O
// error on its next poll. The notice channel stays open: an exchange racing
// with Close may still deliver a buffered notice to it.
func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			err = multierr.Append(err, c.conn.Close())
		}
	})

	return err
}

// NoticeChan delivers the notices received during this connection's
// exchanges. Notices are dropped when the channel is full. The channel is
// never closed; stop reading from it once the connection is closed.
func (c *Conn) NoticeChan() <-chan *Notice {
	return c.noticeChan
}

// Execute runs a statement with the given arguments and feeds the result
// set to prc. A server-reported error comes back as a
// *protocol.ServerError.
func (c *Conn) Execute(ctx context.Context, stmt string, args []expr.Any, prc protocol.RowProcessor) error {
	msg := &protocol.StmtExecute{Stmt: stmt, Args: args}
	return c.exchange(ctx, protocol.TypeStmtExecute, msg, protocol.NewStmtResultHandler(prc))
}

// Find fetches the documents of a collection matching criteria and feeds
// them to prc. A nil criteria matches everything.
func (c *Conn) Find(ctx context.Context, collection expr.DBObj, criteria expr.Expr, prc protocol.RowProcessor) error {
	msg := &protocol.Find{Collection: collection, Criteria: criteria}
	return c.exchange(ctx, protocol.TypeFind, msg, protocol.NewStmtResultHandler(prc))
}

// Quit tells the server the session is over and waits for its
// acknowledgement.
func (c *Conn) Quit(ctx context.Context) error {
	return c.exchange(ctx, protocol.TypeSessionClose, &protocol.SessionClose{}, &protocol.OkHandler{})
}

// exchange performs one request/reply cycle: send the message, then drive
// the receive operation to its end with h bound to it. A context deadline
// is applied to the stream; cancellation without a deadline requires
// closing the connection.
func (c *Conn) exchange(ctx context.Context, t protocol.MsgType, msg protocol.Marshaler, h protocol.Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return err
		}

		defer c.conn.SetDeadline(time.Time{})
	}

	snd, err := c.eng.Send(t, msg)
	if err != nil {
		return err
	}

	if err := snd.Wait(); err != nil {
		return fmt.Errorf("failed to send message type %d: %w", t, err)
	}

	sink := &replySink{conn: c}
	rcv := c.eng.Receive(h, sink)

	for {
		if err := rcv.Wait(); err != nil {
			return err
		}

		if rcv.Done() {
			break
		}

		// The cycle stopped on an unconsumed message; re-arm with the same
		// handler.
		rcv = c.eng.Receive(h, sink)
	}

	if sink.srvErr != nil {
		return sink.srvErr
	}

	return nil
}

// replySink routes server errors into the exchange result and notices onto
// the connection's notice channel.
type replySink struct {
	conn   *Conn
	srvErr *protocol.ServerError
}

func (s *replySink) Error(code uint32, severity protocol.Severity, state protocol.SQLState, msg string) {
	s.srvErr = &protocol.ServerError{
		Code:     code,
		Severity: severity,
		State:    state,
		Msg:      msg,
	}
}

func (s *replySink) Notice(noticeType uint32, scope protocol.NoticeScope, payload []byte) {
	notice := &Notice{Type: noticeType, Scope: scope, Payload: payload}

	select {
	case s.conn.noticeChan <- notice:
	default:
		s.conn.log.Warn("Dropping notice, channel is full",
			zap.Uint32("noticeType", noticeType))
	}
}
