package expr

// CharsetID identifies the character set of a string value. The protocol
// uses 64 bit collation ids.
type CharsetID uint64

// DBObj references a database object (a table, collection or stored
// function), optionally qualified by its schema.
type DBObj struct {
	Name   string
	Schema string
}

// ScalarProcessor receives exactly one plain scalar value.
type ScalarProcessor interface {
	Null()
	Str(val []byte)
	StrCS(cs CharsetID, val []byte)
	Int(v int64)
	Uint(v uint64)
	Float(v float32)
	Double(v float64)
	Bool(v bool)
	Octets(data []byte)
}

// Any is a value that can describe itself to an AnyProcessor.
type Any interface {
	ProcessAny(p AnyProcessor)
}

// AnyProcessor consumes one Any value. The producer calls exactly one of
// the three shape callbacks; returning nil from any of them declines that
// shape (the producer still walks it, see the package doc).
type AnyProcessor interface {
	Scalar() ScalarProcessor
	List() AnyListProcessor
	Doc() AnyDocProcessor
}

// AnyListProcessor consumes the elements of an array of Any values, in
// order, bracketed by ListBegin and ListEnd.
type AnyListProcessor interface {
	ListBegin()
	ListElem() AnyProcessor
	ListEnd()
}

// AnyDocProcessor consumes the fields of a document of Any values, in the
// order the producer reports them.
type AnyDocProcessor interface {
	DocBegin()
	Field(name string) AnyProcessor
	DocEnd()
}

// Expr is an expression that can describe itself to an ExprProcessor.
type Expr interface {
	ProcessExpr(p ExprProcessor)
}

// ExprProcessor consumes one expression. Shaped exactly like AnyProcessor
// but the scalar slot holds a full expression.
type ExprProcessor interface {
	Scalar() ExprScalarProcessor
	List() ExprListProcessor
	Doc() ExprDocProcessor
}

type ExprListProcessor interface {
	ListBegin()
	ListElem() ExprProcessor
	ListEnd()
}

type ExprDocProcessor interface {
	DocBegin()
	Field(name string) ExprProcessor
	DocEnd()
}

// ArgsProcessor consumes the ordered argument list of an operator or
// function call. The producer reports every argument, left to right, before
// returning control.
type ArgsProcessor = ExprListProcessor

// ExprScalarProcessor receives one base expression. The producer calls
// exactly one of these callbacks.
//
// Val, Op and Call hand back a sub-consumer (nil declines): Val for the
// literal's scalar value, Op and Call for the argument list.
type ExprScalarProcessor interface {
	Val() ScalarProcessor
	Op(name string) ArgsProcessor
	Call(fn DBObj) ArgsProcessor

	Var(name string)
	ColRef(name string, obj *DBObj)
	ColRefPath(name string, obj *DBObj, path DocPath)
	DocRef(path DocPath)

	Placeholder()
	PlaceholderName(name string)
	PlaceholderPos(pos uint32)
}
