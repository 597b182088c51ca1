package expr

// This package defines the push-style data model that xwire uses to encode
// structured values and query expressions into protocol messages without
// building an intermediate tree.
//
// A producer describes a value by driving ordered callbacks on a consumer:
//
// - `Any` - a plain value: a scalar, an array of Any values, or a document
//           mapping field names to Any values.
// - `Expr` - shaped like Any, but its scalars are full expressions: literals,
//            variables, column references, operator applications, function
//            calls and placeholders, nesting arbitrarily.
//
// Exactly one top-level shape is reported per value. Arrays and documents
// recurse: the consumer hands back a sub-consumer for each element or field.
// A consumer declines a branch by returning nil; the producer must still
// walk the declined branch syntactically (so sibling callbacks stay in
// order) but no encoding work happens for it.
//
// Producers never write nil checks for that. They wrap the consumer in the
// Safe* decorators, which turn every call on an absent consumer into a
// silent no-op and wrap returned sub-consumers in turn. That single policy
// point is what makes declining cheap.
//
// Document paths (`DocPath`) address a nested field or element inside a
// document: an ordered sequence of member, wildcard and array-index steps
// read left to right from the document root.
