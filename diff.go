package signalvec

// Kind identifies the variant of a Diff.
type Kind uint8

const (
	KindReplace Kind = iota
	KindInsertAt
	KindUpdateAt
	KindRemoveAt
	KindMove
	KindPush
	KindPop
	KindClear
)

var kindNames = [...]string{"replace", "insert_at", "update_at", "remove_at", "move", "push", "pop", "clear"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

//go-sumtype:decl Diff

// Diff describes one atomic change to an ordered collection of T.
type Diff[T any] interface {
	Kind() Kind
	isDiff(*T)
}

// Changes is a recorded stream of diffs, oldest first.
type Changes[T any] []Diff[T]

// Replace replaces the whole collection.
type Replace[T any] struct {
	Values []T
}

// InsertAt inserts Value before position Index. Index may equal the length.
type InsertAt[T any] struct {
	Index int
	Value T
}

// UpdateAt replaces the element at Index in place.
type UpdateAt[T any] struct {
	Index int
	Value T
}

type RemoveAt[T any] struct {
	Index int
}

// Move relocates the element at OldIndex. NewIndex is expressed as if the
// element had already been removed.
type Move[T any] struct {
	OldIndex int
	NewIndex int
}

type Push[T any] struct {
	Value T
}

type Pop[T any] struct{}

type Clear[T any] struct{}

func (Replace[T]) Kind() Kind  { return KindReplace }
func (InsertAt[T]) Kind() Kind { return KindInsertAt }
func (UpdateAt[T]) Kind() Kind { return KindUpdateAt }
func (RemoveAt[T]) Kind() Kind { return KindRemoveAt }
func (Move[T]) Kind() Kind     { return KindMove }
func (Push[T]) Kind() Kind     { return KindPush }
func (Pop[T]) Kind() Kind      { return KindPop }
func (Clear[T]) Kind() Kind    { return KindClear }

// isDiff(*T) ties every variant to its element type.
func (Replace[T]) isDiff(*T)  {}
func (InsertAt[T]) isDiff(*T) {}
func (UpdateAt[T]) isDiff(*T) {}
func (RemoveAt[T]) isDiff(*T) {}
func (Move[T]) isDiff(*T)     {}
func (Push[T]) isDiff(*T)     {}
func (Pop[T]) isDiff(*T)      {}
func (Clear[T]) isDiff(*T)    {}
