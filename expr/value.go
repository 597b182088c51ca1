package expr

// Concrete producers.
//
// The engine itself never retains value trees: these types exist so callers
// have something to hand to StmtExecute and friends, and they drive the
// processor callbacks the moment a message is serialized.

// Value is a literal scalar usable both as an Any and as an Expr.
type Value struct {
	drive func(p ScalarProcessor)
}

func Null() Value {
	return Value{drive: func(p ScalarProcessor) { p.Null() }}
}

func String(s string) Value {
	return Value{drive: func(p ScalarProcessor) { p.Str([]byte(s)) }}
}

func StringCS(cs CharsetID, s string) Value {
	return Value{drive: func(p ScalarProcessor) { p.StrCS(cs, []byte(s)) }}
}

func Int(v int64) Value {
	return Value{drive: func(p ScalarProcessor) { p.Int(v) }}
}

func Uint(v uint64) Value {
	return Value{drive: func(p ScalarProcessor) { p.Uint(v) }}
}

func Float(v float32) Value {
	return Value{drive: func(p ScalarProcessor) { p.Float(v) }}
}

func Double(v float64) Value {
	return Value{drive: func(p ScalarProcessor) { p.Double(v) }}
}

func Bool(v bool) Value {
	return Value{drive: func(p ScalarProcessor) { p.Bool(v) }}
}

func Octets(data []byte) Value {
	return Value{drive: func(p ScalarProcessor) { p.Octets(data) }}
}

func (v Value) ProcessAny(p AnyProcessor) {
	v.drive(SafeAny(p).Scalar())
}

func (v Value) ProcessExpr(p ExprProcessor) {
	v.drive(SafeExpr(p).Scalar().Val())
}

// List is an array-shaped Any value.
type List []Any

func (l List) ProcessAny(p AnyProcessor) {
	lp := SafeAny(p).List()
	lp.ListBegin()
	for _, el := range l {
		el.ProcessAny(lp.ListElem())
	}
	lp.ListEnd()
}

// Field is one document field. Documents are ordered, so fields live in a
// slice rather than a map.
type Field struct {
	Name  string
	Value Any
}

// Doc is a document-shaped Any value.
type Doc []Field

func (d Doc) ProcessAny(p AnyProcessor) {
	dp := SafeAny(p).Doc()
	dp.DocBegin()
	for _, f := range d {
		f.Value.ProcessAny(dp.Field(f.Name))
	}
	dp.DocEnd()
}

// Op applies the named operator to args.
func Op(name string, args ...Expr) Expr {
	return opExpr{name: name, args: args}
}

type opExpr struct {
	name string
	args []Expr
}

func (e opExpr) ProcessExpr(p ExprProcessor) {
	ap := SafeExpr(p).Scalar().Op(e.name)
	driveArgs(ap, e.args)
}

// Call invokes the named database function with args.
func Call(fn DBObj, args ...Expr) Expr {
	return callExpr{fn: fn, args: args}
}

type callExpr struct {
	fn   DBObj
	args []Expr
}

func (e callExpr) ProcessExpr(p ExprProcessor) {
	ap := SafeExpr(p).Scalar().Call(e.fn)
	driveArgs(ap, e.args)
}

func driveArgs(ap ArgsProcessor, args []Expr) {
	ap.ListBegin()
	for _, a := range args {
		a.ProcessExpr(ap.ListElem())
	}
	ap.ListEnd()
}

// Var references the named session variable.
func Var(name string) Expr {
	return varExpr(name)
}

type varExpr string

func (e varExpr) ProcessExpr(p ExprProcessor) {
	SafeExpr(p).Scalar().Var(string(e))
}

// ColRef references a column or field of obj; obj may be nil when the
// owning object is implied by context.
func ColRef(name string, obj *DBObj) Expr {
	return colRefExpr{name: name, obj: obj}
}

type colRefExpr struct {
	name string
	obj  *DBObj
}

func (e colRefExpr) ProcessExpr(p ExprProcessor) {
	SafeExpr(p).Scalar().ColRef(e.name, e.obj)
}

// ColRefPath references a document path inside the named column.
func ColRefPath(name string, obj *DBObj, path DocPath) Expr {
	return colRefPathExpr{name: name, obj: obj, path: path}
}

type colRefPathExpr struct {
	name string
	obj  *DBObj
	path DocPath
}

func (e colRefPathExpr) ProcessExpr(p ExprProcessor) {
	SafeExpr(p).Scalar().ColRefPath(e.name, e.obj, e.path)
}

// DocRef references a document path rooted at the current document.
func DocRef(path DocPath) Expr {
	return docRefExpr{path: path}
}

type docRefExpr struct {
	path DocPath
}

func (e docRefExpr) ProcessExpr(p ExprProcessor) {
	SafeExpr(p).Scalar().DocRef(e.path)
}

// Placeholder is an anonymous placeholder.
func Placeholder() Expr {
	return placeholderExpr{}
}

type placeholderExpr struct{}

func (placeholderExpr) ProcessExpr(p ExprProcessor) {
	SafeExpr(p).Scalar().Placeholder()
}

// PlaceholderName is a named placeholder.
func PlaceholderName(name string) Expr {
	return placeholderNameExpr(name)
}

type placeholderNameExpr string

func (e placeholderNameExpr) ProcessExpr(p ExprProcessor) {
	SafeExpr(p).Scalar().PlaceholderName(string(e))
}

// PlaceholderPos is a positional placeholder.
func PlaceholderPos(pos uint32) Expr {
	return placeholderPosExpr(pos)
}

type placeholderPosExpr uint32

func (e placeholderPosExpr) ProcessExpr(p ExprProcessor) {
	SafeExpr(p).Scalar().PlaceholderPos(uint32(e))
}

// ExprList is an array-shaped expression.
type ExprList []Expr

func (l ExprList) ProcessExpr(p ExprProcessor) {
	lp := SafeExpr(p).List()
	lp.ListBegin()
	for _, el := range l {
		el.ProcessExpr(lp.ListElem())
	}
	lp.ListEnd()
}

// ExprField is one field of a document-shaped expression.
type ExprField struct {
	Name  string
	Value Expr
}

// ExprDoc is a document-shaped expression.
type ExprDoc []ExprField

func (d ExprDoc) ProcessExpr(p ExprProcessor) {
	dp := SafeExpr(p).Doc()
	dp.DocBegin()
	for _, f := range d {
		f.Value.ProcessExpr(dp.Field(f.Name))
	}
	dp.DocEnd()
}

var (
	_ Any  = Value{}
	_ Any  = List(nil)
	_ Any  = Doc(nil)
	_ Expr = Value{}
	_ Expr = ExprList(nil)
	_ Expr = ExprDoc(nil)
)
