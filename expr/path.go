package expr

// PathKind is the kind of one document path step.
type PathKind int

const (
	Member             PathKind = 1 // .name
	MemberWildcard     PathKind = 2 // .*
	ArrayIndex         PathKind = 3 // [k]
	ArrayIndexWildcard PathKind = 4 // [*]
	DoubleWildcard     PathKind = 5 // .**
)

// DocPath describes a document path: an ordered sequence of steps modelling
// a single traversal from a document root, read left to right.
//
// Name(i) is meaningful only for Member steps and Index(i) only for
// ArrayIndex steps.
type DocPath interface {
	Len() int
	Kind(i int) PathKind
	Name(i int) string
	Index(i int) uint32
}

type pathStep struct {
	kind  PathKind
	name  string
	index uint32
}

// Path is a concrete DocPath built step by step.
//
//   ```
//   expr.NewPath().Member("address").ArrayIndex(0).Member("city")
//   ```
type Path struct {
	steps []pathStep
}

func NewPath() *Path {
	return &Path{}
}

func (p *Path) Member(name string) *Path {
	p.steps = append(p.steps, pathStep{kind: Member, name: name})
	return p
}

func (p *Path) MemberWildcard() *Path {
	p.steps = append(p.steps, pathStep{kind: MemberWildcard})
	return p
}

func (p *Path) ArrayIndex(i uint32) *Path {
	p.steps = append(p.steps, pathStep{kind: ArrayIndex, index: i})
	return p
}

func (p *Path) ArrayIndexWildcard() *Path {
	p.steps = append(p.steps, pathStep{kind: ArrayIndexWildcard})
	return p
}

func (p *Path) DoubleWildcard() *Path {
	p.steps = append(p.steps, pathStep{kind: DoubleWildcard})
	return p
}

func (p *Path) Len() int {
	return len(p.steps)
}

func (p *Path) Kind(i int) PathKind {
	return p.steps[i].kind
}

func (p *Path) Name(i int) string {
	return p.steps[i].name
}

func (p *Path) Index(i int) uint32 {
	return p.steps[i].index
}

var _ DocPath = (*Path)(nil)
