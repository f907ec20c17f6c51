package signalvec

import (
	"fmt"

	"github.com/juju/errors"
)

// Apply applies a single diff to a slice and returns the resulting slice.
// The input slice may be modified in place. Note that this function panics
// if the diff does not fit the slice (e.g. an index out of bounds); a diff
// stream is only valid for the state it was produced against.
func Apply[T any](values []T, diff Diff[T]) []T {
	switch diff := diff.(type) {
	case Replace[T]:
		values = append(values[:0], diff.Values...)
	case InsertAt[T]:
		checkIndex("insert", diff.Index, len(values)+1)
		values = insertAt(values, diff.Index, diff.Value)
	case UpdateAt[T]:
		checkIndex("update", diff.Index, len(values))
		values[diff.Index] = diff.Value
	case RemoveAt[T]:
		checkIndex("remove", diff.Index, len(values))
		values, _ = removeAt(values, diff.Index)
	case Move[T]:
		checkIndex("move", diff.OldIndex, len(values))
		checkIndex("move", diff.NewIndex, len(values))
		var value T
		values, value = removeAt(values, diff.OldIndex)
		values = insertAt(values, diff.NewIndex, value)
	case Push[T]:
		values = append(values, diff.Value)
	case Pop[T]:
		checkIndex("pop", 0, len(values))
		values, _ = removeAt(values, len(values)-1)
	case Clear[T]:
		values = values[:0]
	default:
		panic(errors.Errorf("unknown diff: %#v", diff))
	}

	return values
}

// ApplyAll applies every diff in order, starting from values.
func ApplyAll[T any](values []T, diffs ...Diff[T]) []T {
	for _, diff := range diffs {
		values = Apply(values, diff)
	}
	return values
}

// Apply applies the recorded changes to values.
func (changes Changes[T]) Apply(values []T) []T {
	return ApplyAll(values, changes...)
}

func insertAt[T any](values []T, index int, value T) []T {
	var zero T
	values = append(values, zero)
	copy(values[index+1:], values[index:])
	values[index] = value
	return values
}

func removeAt[T any](values []T, index int) ([]T, T) {
	value := values[index]
	copy(values[index:], values[index+1:])

	var zero T
	values[len(values)-1] = zero
	return values[:len(values)-1], value
}

func checkIndex(op string, index, length int) {
	if index < 0 || index >= length {
		panic(errors.Errorf("signalvec: %s index %d out of range [0, %d)", op, index, length))
	}
}

func (d Replace[T]) String() string  { return fmt.Sprintf("Replace{%d values}", len(d.Values)) }
func (d InsertAt[T]) String() string { return fmt.Sprintf("InsertAt{%d, %v}", d.Index, d.Value) }
func (d UpdateAt[T]) String() string { return fmt.Sprintf("UpdateAt{%d, %v}", d.Index, d.Value) }
func (d RemoveAt[T]) String() string { return fmt.Sprintf("RemoveAt{%d}", d.Index) }
func (d Move[T]) String() string     { return fmt.Sprintf("Move{%d -> %d}", d.OldIndex, d.NewIndex) }
func (d Push[T]) String() string     { return fmt.Sprintf("Push{%v}", d.Value) }
func (Pop[T]) String() string        { return "Pop{}" }
func (Clear[T]) String() string      { return "Clear{}" }
