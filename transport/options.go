package transport

import (
	"go.uber.org/zap"

	"github.com/luma/xwire/expr"
	"github.com/luma/xwire/protocol"
)

// Result is the canned reply a Responder produces for one request: column
// metadata followed by rows. The listener appends the end-of-data and
// statement-ok messages itself.
type Result struct {
	Columns []protocol.ColumnMeta
	Rows    []protocol.Row
}

// Responder produces the reply for each decoded request. Returning a
// *protocol.ServerError sends it to the client as an error message; any
// other error is reported as a generic server error.
type Responder interface {
	Execute(stmt *protocol.StmtExecute) (*Result, error)
	Find(collection expr.DBObj, rawCriteria []byte) (*Result, error)
}

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on
	Port int

	// Reuseport controls setting SO_REUSEPORT
	// TODO(rolly) this https://blog.cloudflare.com/graceful-upgrades-in-go/
	// TODO(rolly) Reuseport should default to true
	Reuseport bool

	// Trace will log every frame's type and size. This is only useful in
	// local debugging
	Trace bool

	// MaxFrameSize bounds message payloads in both directions. Zero means
	// the protocol maximum.
	MaxFrameSize uint32

	NumListeners int

	Responder Responder

	Log *zap.Logger
}
