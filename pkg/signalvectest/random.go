package signalvectest

import (
	"github.com/snowcat-chat/signalvec"
)

// Rand is the subset of *rand.Rand used to generate diffs.
type Rand interface {
	Intn(n int) int
}

// Generator produces the values of random diffs.
type Generator[T any] struct {
	New func() T
	// Update derives the value of an UpdateAt from the current one. No
	// UpdateAt is generated when it is nil.
	Update func(old T) T
}

// RandomDiff returns a diff which is valid against values.
func RandomDiff[T any](r Rand, values []T, gen Generator[T]) signalvec.Diff[T] {
	value := gen.New
	n := len(values)
	if n == 0 {
		switch r.Intn(4) {
		case 0:
			replacement := make([]T, r.Intn(6))
			for i := range replacement {
				replacement[i] = value()
			}
			return signalvec.Replace[T]{Values: replacement}
		case 1:
			return signalvec.InsertAt[T]{Index: 0, Value: value()}
		case 2:
			return signalvec.Clear[T]{}
		default:
			return signalvec.Push[T]{Value: value()}
		}
	}

	switch r.Intn(20) {
	case 0:
		replacement := make([]T, r.Intn(6))
		for i := range replacement {
			replacement[i] = value()
		}
		return signalvec.Replace[T]{Values: replacement}
	case 1:
		return signalvec.Clear[T]{}
	case 2, 3, 4, 5:
		return signalvec.InsertAt[T]{Index: r.Intn(n + 1), Value: value()}
	case 6, 7:
		index := r.Intn(n)
		if gen.Update == nil {
			return signalvec.RemoveAt[T]{Index: index}
		}
		return signalvec.UpdateAt[T]{Index: index, Value: gen.Update(values[index])}
	case 8, 9, 10:
		return signalvec.RemoveAt[T]{Index: r.Intn(n)}
	case 11, 12, 13:
		return signalvec.Move[T]{OldIndex: r.Intn(n), NewIndex: r.Intn(n)}
	case 14, 15, 16:
		return signalvec.Push[T]{Value: value()}
	default:
		return signalvec.Pop[T]{}
	}
}

// RandomChanges generates count diffs starting from an empty collection.
func RandomChanges[T any](r Rand, count int, gen Generator[T]) signalvec.Changes[T] {
	var (
		values  []T
		changes signalvec.Changes[T]
	)
	for i := 0; i < count; i++ {
		diff := RandomDiff(r, values, gen)
		values = signalvec.Apply(values, diff)
		changes = append(changes, diff)
	}
	return changes
}

// Mutate performs diff on vec through its mutation methods.
func Mutate[T any](vec *signalvec.MutableVec[T], diff signalvec.Diff[T]) {
	switch diff := diff.(type) {
	case signalvec.Replace[T]:
		vec.Replace(diff.Values)
	case signalvec.InsertAt[T]:
		vec.InsertAt(diff.Index, diff.Value)
	case signalvec.UpdateAt[T]:
		vec.SetAt(diff.Index, diff.Value)
	case signalvec.RemoveAt[T]:
		vec.RemoveAt(diff.Index)
	case signalvec.Move[T]:
		vec.Move(diff.OldIndex, diff.NewIndex)
	case signalvec.Push[T]:
		vec.Push(diff.Value)
	case signalvec.Pop[T]:
		vec.Pop()
	case signalvec.Clear[T]:
		vec.Clear()
	}
}
