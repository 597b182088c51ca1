package expr

// Null-safe forwarding decorators.
//
// Each Safe* function wraps a possibly-nil processor. Every call on the
// wrapper forwards argument-for-argument when a processor is present and is
// a silent no-op otherwise. Sub-processors returned by forwarded calls are
// wrapped in turn, so a producer can drive a whole declined subtree through
// the wrapper without a single nil check.

// SafeScalar wraps p; nil becomes a no-op ScalarProcessor.
func SafeScalar(p ScalarProcessor) ScalarProcessor {
	return safeScalar{p}
}

type safeScalar struct {
	p ScalarProcessor
}

func (s safeScalar) Null() {
	if s.p != nil {
		s.p.Null()
	}
}

func (s safeScalar) Str(val []byte) {
	if s.p != nil {
		s.p.Str(val)
	}
}

func (s safeScalar) StrCS(cs CharsetID, val []byte) {
	if s.p != nil {
		s.p.StrCS(cs, val)
	}
}

func (s safeScalar) Int(v int64) {
	if s.p != nil {
		s.p.Int(v)
	}
}

func (s safeScalar) Uint(v uint64) {
	if s.p != nil {
		s.p.Uint(v)
	}
}

func (s safeScalar) Float(v float32) {
	if s.p != nil {
		s.p.Float(v)
	}
}

func (s safeScalar) Double(v float64) {
	if s.p != nil {
		s.p.Double(v)
	}
}

func (s safeScalar) Bool(v bool) {
	if s.p != nil {
		s.p.Bool(v)
	}
}

func (s safeScalar) Octets(data []byte) {
	if s.p != nil {
		s.p.Octets(data)
	}
}

// SafeAny wraps p; nil becomes an AnyProcessor that declines every shape
// into further no-ops.
func SafeAny(p AnyProcessor) AnyProcessor {
	return safeAny{p}
}

type safeAny struct {
	p AnyProcessor
}

func (s safeAny) Scalar() ScalarProcessor {
	if s.p == nil {
		return SafeScalar(nil)
	}

	return SafeScalar(s.p.Scalar())
}

func (s safeAny) List() AnyListProcessor {
	if s.p == nil {
		return SafeAnyList(nil)
	}

	return SafeAnyList(s.p.List())
}

func (s safeAny) Doc() AnyDocProcessor {
	if s.p == nil {
		return SafeAnyDoc(nil)
	}

	return SafeAnyDoc(s.p.Doc())
}

func SafeAnyList(p AnyListProcessor) AnyListProcessor {
	return safeAnyList{p}
}

type safeAnyList struct {
	p AnyListProcessor
}

func (s safeAnyList) ListBegin() {
	if s.p != nil {
		s.p.ListBegin()
	}
}

func (s safeAnyList) ListElem() AnyProcessor {
	if s.p == nil {
		return SafeAny(nil)
	}

	return SafeAny(s.p.ListElem())
}

func (s safeAnyList) ListEnd() {
	if s.p != nil {
		s.p.ListEnd()
	}
}

func SafeAnyDoc(p AnyDocProcessor) AnyDocProcessor {
	return safeAnyDoc{p}
}

type safeAnyDoc struct {
	p AnyDocProcessor
}

func (s safeAnyDoc) DocBegin() {
	if s.p != nil {
		s.p.DocBegin()
	}
}

func (s safeAnyDoc) Field(name string) AnyProcessor {
	if s.p == nil {
		return SafeAny(nil)
	}

	return SafeAny(s.p.Field(name))
}

func (s safeAnyDoc) DocEnd() {
	if s.p != nil {
		s.p.DocEnd()
	}
}

// SafeExpr wraps p; nil becomes an ExprProcessor that declines every shape.
func SafeExpr(p ExprProcessor) ExprProcessor {
	return safeExpr{p}
}

type safeExpr struct {
	p ExprProcessor
}

func (s safeExpr) Scalar() ExprScalarProcessor {
	if s.p == nil {
		return SafeExprScalar(nil)
	}

	return SafeExprScalar(s.p.Scalar())
}

func (s safeExpr) List() ExprListProcessor {
	if s.p == nil {
		return SafeExprList(nil)
	}

	return SafeExprList(s.p.List())
}

func (s safeExpr) Doc() ExprDocProcessor {
	if s.p == nil {
		return SafeExprDoc(nil)
	}

	return SafeExprDoc(s.p.Doc())
}

func SafeExprList(p ExprListProcessor) ExprListProcessor {
	return safeExprList{p}
}

type safeExprList struct {
	p ExprListProcessor
}

func (s safeExprList) ListBegin() {
	if s.p != nil {
		s.p.ListBegin()
	}
}

func (s safeExprList) ListElem() ExprProcessor {
	if s.p == nil {
		return SafeExpr(nil)
	}

	return SafeExpr(s.p.ListElem())
}

func (s safeExprList) ListEnd() {
	if s.p != nil {
		s.p.ListEnd()
	}
}

func SafeExprDoc(p ExprDocProcessor) ExprDocProcessor {
	return safeExprDoc{p}
}

type safeExprDoc struct {
	p ExprDocProcessor
}

func (s safeExprDoc) DocBegin() {
	if s.p != nil {
		s.p.DocBegin()
	}
}

func (s safeExprDoc) Field(name string) ExprProcessor {
	if s.p == nil {
		return SafeExpr(nil)
	}

	return SafeExpr(s.p.Field(name))
}

func (s safeExprDoc) DocEnd() {
	if s.p != nil {
		s.p.DocEnd()
	}
}

func SafeExprScalar(p ExprScalarProcessor) ExprScalarProcessor {
	return safeExprScalar{p}
}

type safeExprScalar struct {
	p ExprScalarProcessor
}

func (s safeExprScalar) Val() ScalarProcessor {
	if s.p == nil {
		return SafeScalar(nil)
	}

	return SafeScalar(s.p.Val())
}

func (s safeExprScalar) Op(name string) ArgsProcessor {
	if s.p == nil {
		return SafeExprList(nil)
	}

	return SafeExprList(s.p.Op(name))
}

func (s safeExprScalar) Call(fn DBObj) ArgsProcessor {
	if s.p == nil {
		return SafeExprList(nil)
	}

	return SafeExprList(s.p.Call(fn))
}

func (s safeExprScalar) Var(name string) {
	if s.p != nil {
		s.p.Var(name)
	}
}

func (s safeExprScalar) ColRef(name string, obj *DBObj) {
	if s.p != nil {
		s.p.ColRef(name, obj)
	}
}

func (s safeExprScalar) ColRefPath(name string, obj *DBObj, path DocPath) {
	if s.p != nil {
		s.p.ColRefPath(name, obj, path)
	}
}

func (s safeExprScalar) DocRef(path DocPath) {
	if s.p != nil {
		s.p.DocRef(path)
	}
}

func (s safeExprScalar) Placeholder() {
	if s.p != nil {
		s.p.Placeholder()
	}
}

func (s safeExprScalar) PlaceholderName(name string) {
	if s.p != nil {
		s.p.PlaceholderName(name)
	}
}

func (s safeExprScalar) PlaceholderPos(pos uint32) {
	if s.p != nil {
		s.p.PlaceholderPos(pos)
	}
}
