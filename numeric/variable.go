package numeric

import "fmt"

// VariableName is an opaque, totally ordered, hashable identifier. It is
// stable across cloning: copying a value that embeds a VariableName never
// changes what it names.
type VariableName struct {
	id   uint64
	name string
}

// Kind tags the semantic type of a Variable.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindArray
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindRef:
		return "ref"
	default:
		return "?"
	}
}

// Variable pairs a VariableName with its semantic type.
type Variable struct {
	Name VariableName
	Kind Kind
}

func (v VariableName) String() string {
	if v.name != "" {
		return v.name
	}
	return fmt.Sprintf("v%d", v.id)
}

// Less gives VariableName a total order, keyed first on the display name
// and then on the allocation id to break ties among identically-named
// variables minted by different allocators.
func (v VariableName) Less(o VariableName) bool {
	if v.name != o.name {
		return v.name < o.name
	}
	return v.id < o.id
}

func (v VariableName) Equal(o VariableName) bool {
	return v.id == o.id && v.name == o.name
}

// Hash combines the id and name components with the boost hash_combine
// mixing step, since either alone can collide across VariableNames minted
// by different allocators (see numeric.ProxyNameAllocator).
func (v VariableName) Hash() uint32 {
	var seed uint32
	for _, part := range [...]uint32{uint32(v.id), uint32(v.id >> 32), fnvString(v.name)} {
		seed = part + 0x9e3779b9 + (seed << 6) + (seed >> 2)
	}
	return seed
}

func fnvString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// VarFactory mints stable VariableNames for program variables, needed to
// construct test programs and the demo CLI.
type VarFactory struct {
	next uint64
}

func NewVarFactory() *VarFactory { return &VarFactory{} }

func (f *VarFactory) Fresh(name string) VariableName {
	f.next++
	return VariableName{id: f.next, name: name}
}

// ProxyNameAllocator mints fresh proxy variable names in the underlying
// base domain's namespace, one per term the term-equivalence domain wants
// to track. Allocators are monotone counters: cheap to copy, and two
// allocators are combined by taking the max of their counters, so that the
// combined allocator's next() is guaranteed disjoint from both inputs.
type ProxyNameAllocator struct {
	counter uint64
	prefix  string
}

// NewProxyNameAllocator creates an allocator that counts from zero with the
// prefix "p". Every such allocator mints the same name sequence, so names
// from two independently created allocators can coincide; CombineAllocators
// yields an allocator disjoint from both.
func NewProxyNameAllocator() ProxyNameAllocator {
	return ProxyNameAllocator{prefix: "p"}
}

// Next mints a fresh proxy VariableName.
func (a *ProxyNameAllocator) Next() VariableName {
	a.counter++
	return VariableName{id: a.counter, name: fmt.Sprintf("%s#%d", a.prefix, a.counter)}
}

// CombineAllocators returns a new allocator guaranteed disjoint from both
// a and b: every name it mints has an id strictly greater than either
// input's high-water mark, so it can never coincide with a name already
// held by a state built from a or b.
func CombineAllocators(a, b ProxyNameAllocator) ProxyNameAllocator {
	c := a.counter
	if b.counter > c {
		c = b.counter
	}
	return ProxyNameAllocator{counter: c, prefix: "q"}
}
