package protocol

import "fmt"

// OkHandler consumes exchanges whose whole reply is a single Ok message.
type OkHandler struct {
	Reply Ok
}

func (h *OkHandler) Accept(t MsgType) Classification {
	if t == TypeOk {
		return Expected
	}

	return Unexpected
}

func (h *OkHandler) HandleMsg(m Message) error {
	ok, valid := m.(*Ok)
	if !valid {
		return fmt.Errorf("reply type %d: %w", m.Type(), ErrUnexpectedMessage)
	}

	h.Reply = *ok
	return nil
}

func (h *OkHandler) Next(MsgType) bool {
	return false
}

// RowProcessor is the thin consumer a result exchange feeds: column
// metadata first, then rows, then end-of-data. Converting raw fields into
// user-facing values belongs to the result layer above this engine.
type RowProcessor interface {
	Column(meta *ColumnMeta)
	Row(row *Row)
	Done()
}

// StmtResultHandler consumes a statement reply: any number of ColumnMeta
// messages, then any number of Row messages, then FetchDone and StmtOk.
// It keeps the receive cycle open until StmtOk.
type StmtResultHandler struct {
	prc RowProcessor
}

func NewStmtResultHandler(prc RowProcessor) *StmtResultHandler {
	return &StmtResultHandler{prc: prc}
}

func (h *StmtResultHandler) Accept(t MsgType) Classification {
	switch t {
	case TypeColumnMeta, TypeRow, TypeFetchDone, TypeStmtOk:
		return Expected
	default:
		return Unexpected
	}
}

func (h *StmtResultHandler) HandleMsg(m Message) error {
	switch msg := m.(type) {
	case *ColumnMeta:
		h.prc.Column(msg)
	case *Row:
		h.prc.Row(msg)
	case *FetchDone:
		h.prc.Done()
	case *StmtOk:
		// Nothing to report; the exchange is over.
	default:
		return fmt.Errorf("reply type %d: %w", m.Type(), ErrUnexpectedMessage)
	}

	return nil
}

func (h *StmtResultHandler) Next(t MsgType) bool {
	return t != TypeStmtOk
}
