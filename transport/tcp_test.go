package transport_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/xwire/client"
	"github.com/luma/xwire/expr"
	"github.com/luma/xwire/protocol"
	"github.com/luma/xwire/transport"
)

// rowRecorder captures a streamed result set.
type rowRecorder struct {
	columns []string
	rows    [][]string
	done    int
}

func (r *rowRecorder) Column(meta *protocol.ColumnMeta) {
	r.columns = append(r.columns, meta.Name)
}

func (r *rowRecorder) Row(row *protocol.Row) {
	fields := make([]string, 0, len(row.Fields))
	for _, f := range row.Fields {
		fields = append(fields, string(f))
	}

	r.rows = append(r.rows, fields)
}

func (r *rowRecorder) Done() {
	r.done++
}

// failResponder reports a server error for every request.
type failResponder struct{}

func (failResponder) Execute(*protocol.StmtExecute) (*transport.Result, error) {
	return nil, &protocol.ServerError{
		Code:     1064,
		Severity: protocol.SeverityError,
		State:    protocol.SQLState{'4', '2', '0', '0', '0'},
		Msg:      "no such statement",
	}
}

func (failResponder) Find(expr.DBObj, []byte) (*transport.Result, error) {
	return nil, fmt.Errorf("no such collection")
}

var _ = Describe("transport / TCP", func() {
	makeServer := func(port int, responder transport.Responder) *transport.TCP {
		log, err := zap.NewDevelopment()
		Expect(err).To(Succeed())

		tcp := transport.NewTCP(transport.Options{
			Log:          log,
			NumListeners: 1,
			Port:         port,
			Reuseport:    true,
			Responder:    responder,
		})

		Expect(tcp.Start(context.Background())).To(Succeed())

		// Wait for the TCP server to be listening.
		// TODO(rolly) this is stupid, either make sure `tcp.Start()` does not
		//						 return until the server is listening or provide a test
		//						 helper that retries until a connection is achieved or a
		//						 timeout is hit.
		time.Sleep(100 * time.Millisecond)

		return tcp
	}

	makeClient := func(port int) *client.Conn {
		conn := client.New(zap.NewNop())
		Expect(conn.Connect(context.Background(), fmt.Sprintf("127.0.0.1:%d", port))).To(Succeed())
		return conn
	}

	It("listens on the desired port", func() {
		tcp := makeServer(16382, transport.EchoResponder{})

		defer func() {
			Expect(tcp.Close()).To(Succeed())
		}()

		conn, err := net.Dial("tcp", "127.0.0.1:16382")
		Expect(err).To(Succeed())
		conn.Close()
	})

	It("answers a statement with an echoed result set", func() {
		tcp := makeServer(16383, transport.EchoResponder{})
		conn := makeClient(16383)

		defer func() {
			conn.Close()
			Expect(tcp.Close()).To(Succeed())
		}()

		rows := &rowRecorder{}
		args := []expr.Any{expr.Int(42), expr.String("x")}

		err := conn.Execute(context.Background(), "select 1", args, rows)
		Expect(err).To(Succeed())

		Expect(rows.columns).To(Equal([]string{"stmt", "args"}))
		Expect(rows.rows).To(HaveLen(1))
		Expect(rows.rows[0][0]).To(Equal("select 1"))
		Expect(rows.rows[0][1]).To(MatchJSON(`[42, "x"]`))
		Expect(rows.done).To(Equal(1))

		// The session greeting rode along with the first reply.
		var notice *client.Notice
		Eventually(conn.NoticeChan()).Should(Receive(&notice))
		Expect(notice.Type).To(Equal(uint32(1)))
		Expect(string(notice.Payload)).To(Equal("session started"))
	})

	It("answers a find with the echoed collection", func() {
		tcp := makeServer(16384, transport.EchoResponder{})
		conn := makeClient(16384)

		defer func() {
			conn.Close()
			Expect(tcp.Close()).To(Succeed())
		}()

		rows := &rowRecorder{}
		err := conn.Find(context.Background(), expr.DBObj{Schema: "app", Name: "users"}, nil, rows)
		Expect(err).To(Succeed())

		Expect(rows.columns).To(Equal([]string{"collection", "criteria_bytes"}))
		Expect(rows.rows).To(Equal([][]string{{"app.users", "0"}}))
	})

	It("surfaces responder failures as server errors", func() {
		tcp := makeServer(16385, failResponder{})
		conn := makeClient(16385)

		defer func() {
			conn.Close()
			Expect(tcp.Close()).To(Succeed())
		}()

		err := conn.Execute(context.Background(), "select 1", nil, &rowRecorder{})

		var srvErr *protocol.ServerError
		Expect(errors.As(err, &srvErr)).To(BeTrue())
		Expect(srvErr.Code).To(Equal(uint32(1064)))
		Expect(srvErr.State.String()).To(Equal("42000"))
	})

	It("acknowledges a session close", func() {
		tcp := makeServer(16386, transport.EchoResponder{})
		conn := makeClient(16386)

		defer func() {
			conn.Close()
			Expect(tcp.Close()).To(Succeed())
		}()

		Expect(conn.Quit(context.Background())).To(Succeed())
	})
})
