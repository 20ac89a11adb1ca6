package numeric

import "github.com/benbjohnson/immutable"

// Hashable marks a type whose values can key an immutable.Map: the term
// table's per-term parent sets are keyed by term.Id through the adapter
// below.
type Hashable interface {
	Hash() uint32
}

// HashableEq is Hashable plus the equality immutable.Hasher pairs it with.
type HashableEq[T any] interface {
	Hashable
	Equal(T) bool
}

type hashableHasher[T HashableEq[T]] struct{}

func (hashableHasher[T]) Equal(a, b T) bool { return a.Equal(b) }
func (hashableHasher[T]) Hash(a T) uint32   { return a.Hash() }

// HashableHasher adapts any HashableEq type to an immutable.Hasher, so
// callers building an immutable.Map over term.Id or a similar key type
// don't each write their own adapter struct.
func HashableHasher[T HashableEq[T]]() immutable.Hasher[T] { return hashableHasher[T]{} }
