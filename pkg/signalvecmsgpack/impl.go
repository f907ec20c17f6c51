package signalvecmsgpack

import (
	"math"

	"github.com/juju/errors"
	"github.com/snowcat-chat/signalvec"
	"github.com/vmihailenco/msgpack/v4"
)

// MsgpackChanges is an alias for signalvec.Changes which implements CustomEncoder/CustomDecoder.
// The stream is written as an array header holding the number of diffs, followed by the diffs,
// so it can be embedded inside a larger msgpack structure.
type MsgpackChanges[T any] signalvec.Changes[T]

var _ msgpack.CustomEncoder = (*MsgpackChanges[int])(nil)
var _ msgpack.CustomDecoder = (*MsgpackChanges[int])(nil)

// Marshal encodes a diff stream using Msgpack.
func Marshal[T any](changes signalvec.Changes[T]) ([]byte, error) {
	mpchanges := MsgpackChanges[T](changes)
	return msgpack.Marshal(&mpchanges)
}

// Unmarshal decodes a diff stream using Msgpack.
func Unmarshal[T any](data []byte) (signalvec.Changes[T], error) {
	var mpchanges MsgpackChanges[T]
	err := msgpack.Unmarshal(data, &mpchanges)
	if err != nil {
		return nil, err
	}
	return signalvec.Changes[T](mpchanges), nil
}

type writer struct {
	*msgpack.Encoder
}

func (w writer) WriteUint8(v uint8) error {
	return w.EncodeUint8(v)
}

func (w writer) WriteUint(v int) error {
	return w.EncodeUint(uint64(v))
}

func (w writer) WriteValue(v interface{}) error {
	return w.Encode(v)
}

func (changes *MsgpackChanges[T]) EncodeMsgpack(enc *msgpack.Encoder) error {
	err := enc.EncodeArrayLen(len(*changes))
	if err != nil {
		return err
	}
	return signalvec.Changes[T](*changes).WriteTo(writer{enc})
}

type reader struct {
	*msgpack.Decoder
}

func (r reader) ReadUint8() (uint8, error) {
	val, err := r.DecodeUint64()
	if err != nil {
		return 0, err
	}
	if val > math.MaxUint8 {
		return 0, errors.NotValidf("diff code %d", val)
	}
	return uint8(val), nil
}

func (r reader) ReadUint() (int, error) {
	val, err := r.DecodeUint64()
	if err != nil {
		return 0, err
	}
	if val > math.MaxInt {
		return 0, errors.NotValidf("index %d", val)
	}
	return int(val), nil
}

func (r reader) ReadValue(dst interface{}) error {
	return r.Decode(dst)
}

func (changes *MsgpackChanges[T]) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return errors.Annotate(err, "decoding changes")
	}

	r := reader{dec}
	for i := 0; i < n; i++ {
		diff, err := signalvec.ReadFrom[T](r)
		if err != nil {
			return errors.Annotatef(err, "decoding diff %d of %d", i, n)
		}
		*changes = append(*changes, diff)
	}
	return nil
}
