package transport

import (
	"fmt"
	"strconv"

	"github.com/luma/xwire/expr"
	"github.com/luma/xwire/protocol"
)

// EchoResponder is the built-in Responder: it reflects each request back as
// a one-row result set. Statement arguments are decoded and rendered as a
// JSON array, which makes it a convenient peer for poking at the wire
// format.
type EchoResponder struct{}

func (EchoResponder) Execute(stmt *protocol.StmtExecute) (*Result, error) {
	args := "[]"

	if stmt.NumArgs() > 0 {
		sink := expr.NewJSONSink()

		list := sink.List()
		list.ListBegin()

		if err := stmt.EachArg(listElems{list}); err != nil {
			return nil, fmt.Errorf("failed to decode statement arguments: %w", err)
		}

		list.ListEnd()

		if err := sink.Err(); err != nil {
			return nil, fmt.Errorf("failed to render statement arguments: %w", err)
		}

		args = string(sink.Bytes())
	}

	return &Result{
		Columns: []protocol.ColumnMeta{
			{Name: "stmt", Table: "echo"},
			{Name: "args", Table: "echo"},
		},
		Rows: []protocol.Row{
			{Fields: [][]byte{[]byte(stmt.Stmt), []byte(args)}},
		},
	}, nil
}

func (EchoResponder) Find(collection expr.DBObj, rawCriteria []byte) (*Result, error) {
	return &Result{
		Columns: []protocol.ColumnMeta{
			{Name: "collection", Table: "echo"},
			{Name: "criteria_bytes", Table: "echo"},
		},
		Rows: []protocol.Row{
			{Fields: [][]byte{
				[]byte(collection.Schema + "." + collection.Name),
				[]byte(strconv.Itoa(len(rawCriteria))),
			}},
		},
	}, nil
}

// listElems routes each decoded argument into an already-open list. Exactly
// one of the three callbacks fires per argument.
type listElems struct {
	list expr.AnyListProcessor
}

func (e listElems) Scalar() expr.ScalarProcessor {
	return expr.SafeAny(e.list.ListElem()).Scalar()
}

func (e listElems) List() expr.AnyListProcessor {
	return expr.SafeAny(e.list.ListElem()).List()
}

func (e listElems) Doc() expr.AnyDocProcessor {
	return expr.SafeAny(e.list.ListElem()).Doc()
}
