package signalvec

import (
	"io"

	"github.com/juju/errors"
)

// Writer is an interface for writing values. This can be used for supporting a custom serialization format.
type Writer interface {
	WriteUint8(v uint8) error
	WriteUint(v int) error
	WriteValue(v interface{}) error
}

// Reader is an interface for reading values. ReadValue decodes the next value into dst.
// Implementations return io.EOF when the stream ends before a diff begins.
type Reader interface {
	ReadUint8() (uint8, error)
	ReadUint() (int, error)
	ReadValue(dst interface{}) error
}

// Note: The codes are part of the wire format; append new ones at the end.

const (
	codeReplace uint8 = iota
	codeInsertAt
	codeUpdateAt
	codeRemoveAt
	codeMove
	codePush
	codePop
	codeClear
)

const maxPrealloc = 1024

// ReadFrom reads a single diff.
func ReadFrom[T any](r Reader) (Diff[T], error) {
	code, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	switch code {
	case codeReplace:
		n, err := readUint(r)
		if err != nil {
			return nil, err
		}
		// The count comes from the input, so it only bounds the preallocation.
		values := make([]T, 0, min(n, maxPrealloc))
		for i := 0; i < n; i++ {
			var value T
			if err := r.ReadValue(&value); err != nil {
				return nil, errors.Annotatef(unexpectedEOF(err), "reading replace value %d of %d", i, n)
			}
			values = append(values, value)
		}
		return Replace[T]{Values: values}, nil
	case codeInsertAt:
		idx, err := readUint(r)
		if err != nil {
			return nil, err
		}
		var value T
		if err := r.ReadValue(&value); err != nil {
			return nil, unexpectedEOF(err)
		}
		return InsertAt[T]{Index: idx, Value: value}, nil
	case codeUpdateAt:
		idx, err := readUint(r)
		if err != nil {
			return nil, err
		}
		var value T
		if err := r.ReadValue(&value); err != nil {
			return nil, unexpectedEOF(err)
		}
		return UpdateAt[T]{Index: idx, Value: value}, nil
	case codeRemoveAt:
		idx, err := readUint(r)
		if err != nil {
			return nil, err
		}
		return RemoveAt[T]{Index: idx}, nil
	case codeMove:
		oldIdx, err := readUint(r)
		if err != nil {
			return nil, err
		}
		newIdx, err := readUint(r)
		if err != nil {
			return nil, err
		}
		return Move[T]{OldIndex: oldIdx, NewIndex: newIdx}, nil
	case codePush:
		var value T
		if err := r.ReadValue(&value); err != nil {
			return nil, unexpectedEOF(err)
		}
		return Push[T]{Value: value}, nil
	case codePop:
		return Pop[T]{}, nil
	case codeClear:
		return Clear[T]{}, nil
	default:
		return nil, errors.NotValidf("diff code %d", code)
	}
}

// WriteTo writes a single diff to a writer.
func WriteTo[T any](w Writer, diff Diff[T]) error {
	switch diff := diff.(type) {
	case Replace[T]:
		err := w.WriteUint8(codeReplace)
		if err != nil {
			return err
		}
		err = w.WriteUint(len(diff.Values))
		if err != nil {
			return err
		}
		for _, value := range diff.Values {
			err = w.WriteValue(value)
			if err != nil {
				return err
			}
		}
		return nil
	case InsertAt[T]:
		err := w.WriteUint8(codeInsertAt)
		if err != nil {
			return err
		}
		err = w.WriteUint(diff.Index)
		if err != nil {
			return err
		}
		return w.WriteValue(diff.Value)
	case UpdateAt[T]:
		err := w.WriteUint8(codeUpdateAt)
		if err != nil {
			return err
		}
		err = w.WriteUint(diff.Index)
		if err != nil {
			return err
		}
		return w.WriteValue(diff.Value)
	case RemoveAt[T]:
		err := w.WriteUint8(codeRemoveAt)
		if err != nil {
			return err
		}
		return w.WriteUint(diff.Index)
	case Move[T]:
		err := w.WriteUint8(codeMove)
		if err != nil {
			return err
		}
		err = w.WriteUint(diff.OldIndex)
		if err != nil {
			return err
		}
		return w.WriteUint(diff.NewIndex)
	case Push[T]:
		err := w.WriteUint8(codePush)
		if err != nil {
			return err
		}
		return w.WriteValue(diff.Value)
	case Pop[T]:
		return w.WriteUint8(codePop)
	case Clear[T]:
		return w.WriteUint8(codeClear)
	}

	panic(errors.Errorf("unknown diff: %#v", diff))
}

// WriteTo writes the changes to a writer.
func (changes Changes[T]) WriteTo(w Writer) error {
	for _, diff := range changes {
		err := WriteTo[T](w, diff)
		if err != nil {
			return err
		}
	}

	return nil
}

// ReadFrom appends diffs read from r until the reader is exhausted.
func (changes *Changes[T]) ReadFrom(r Reader) error {
	for {
		diff, err := ReadFrom[T](r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		*changes = append(*changes, diff)
	}
}

// readUint reads an operand of a diff which has already begun.
func readUint(r Reader) (int, error) {
	v, err := r.ReadUint()
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	if v < 0 {
		return 0, errors.NotValidf("negative operand %d", v)
	}
	return v, nil
}

// unexpectedEOF turns an EOF in the middle of a diff into an error.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
