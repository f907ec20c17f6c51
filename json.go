package signalvec

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/juju/errors"
)

type jsonWriter struct {
	result []byte
}

func (w *jsonWriter) WriteUint8(v uint8) error {
	return w.WriteValue(v)
}

func (w *jsonWriter) WriteUint(v int) error {
	return w.WriteValue(v)
}

func (w *jsonWriter) WriteValue(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.next()
	w.result = append(w.result, b...)
	return nil
}

func (w *jsonWriter) next() {
	if len(w.result) == 0 {
		w.result = append(w.result, '[')
	} else {
		w.result = append(w.result, ',')
	}
}

func (w *jsonWriter) finalize() []byte {
	if len(w.result) == 0 {
		return []byte{'[', ']'}
	}

	w.result = append(w.result, ']')
	return w.result
}

type jsonReader struct {
	dec *json.Decoder
}

func (r *jsonReader) tryEOF() error {
	if !r.dec.More() {
		t, err := r.dec.Token()
		if err != nil {
			return err
		}
		if t != json.Delim(']') {
			return errors.NotValidf("token %v at end of changes", t)
		}

		return io.EOF
	}

	return nil
}

func (r *jsonReader) ReadUint8() (uint8, error) {
	var v uint8
	err := r.ReadValue(&v)
	return v, err
}

func (r *jsonReader) ReadUint() (int, error) {
	var v int
	if err := r.ReadValue(&v); err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errors.NotValidf("negative index %d", v)
	}
	return v, nil
}

func (r *jsonReader) ReadValue(dst interface{}) error {
	err := r.tryEOF()
	if err != nil {
		return err
	}
	return r.dec.Decode(dst)
}

func (r *jsonReader) expectArray() error {
	t, err := r.dec.Token()
	if err != nil {
		return err
	}

	if t != json.Delim('[') {
		return errors.NotValidf("changes starting with %v", t)
	}

	return nil
}

// MarshalJSON encodes the changes as one flat array of codes and operands.
func (changes Changes[T]) MarshalJSON() ([]byte, error) {
	w := jsonWriter{}
	err := changes.WriteTo(&w)
	if err != nil {
		return nil, err
	}
	return w.finalize(), nil
}

func (changes *Changes[T]) UnmarshalJSON(data []byte) error {
	r := jsonReader{
		dec: json.NewDecoder(bytes.NewReader(data)),
	}

	err := r.expectArray()
	if err != nil {
		return errors.Annotate(err, "decoding changes")
	}

	*changes = (*changes)[:0]
	return errors.Annotate(changes.ReadFrom(&r), "decoding changes")
}
