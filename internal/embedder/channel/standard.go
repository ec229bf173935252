package channel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	errspkg "github.com/seleneworks/lumen/internal/embedder/errors"
)

// StandardMethodCodec frames method calls in the engine's compact binary
// encoding: a method call is two concatenated values (method name string,
// arguments), a success envelope is a zero byte followed by the result
// value, an error envelope is a one byte followed by code, message, and
// details values.
type StandardMethodCodec struct{}

const (
	tagNull byte = iota
	tagTrue
	tagFalse
	tagInt32
	tagInt64
	tagLargeInt // reserved, not produced
	tagFloat64
	tagString
	tagUint8List
	tagInt32List
	tagInt64List
	tagFloat64List
	tagList
	tagMap
)

func (StandardMethodCodec) EncodeMethodCall(call MethodCall) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, call.Method); err != nil {
		return nil, err
	}
	if err := writeValue(&buf, call.Args); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (StandardMethodCodec) DecodeMethodCall(payload []byte) (MethodCall, error) {
	r := &reader{data: payload}
	method, err := r.readValue()
	if err != nil {
		return MethodCall{}, fmt.Errorf("standard method call: %w", err)
	}
	name, ok := method.(string)
	if !ok {
		return MethodCall{}, errspkg.ErrMethodCallMalformed
	}
	args, err := r.readValue()
	if err != nil {
		return MethodCall{}, fmt.Errorf("standard method call args: %w", err)
	}
	return MethodCall{Method: name, Args: args}, nil
}

func (StandardMethodCodec) EncodeSuccessEnvelope(result any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(0)
	if err := writeValue(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (StandardMethodCodec) EncodeErrorEnvelope(code, message string, details any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(1)
	if err := writeValue(&buf, code); err != nil {
		return nil, err
	}
	if err := writeValue(&buf, message); err != nil {
		return nil, err
	}
	if err := writeValue(&buf, details); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (StandardMethodCodec) DecodeEnvelope(payload []byte) (any, *EnvelopeError, error) {
	if len(payload) == 0 {
		return nil, nil, errspkg.ErrEnvelopeTruncated
	}
	// Alignment is counted from the start of the payload, discriminator
	// byte included, on both the encode and decode side.
	r := &reader{data: payload, pos: 1}
	switch payload[0] {
	case 0:
		result, err := r.readValue()
		if err != nil {
			return nil, nil, err
		}
		return result, nil, nil
	case 1:
		code, err := r.readValue()
		if err != nil {
			return nil, nil, err
		}
		message, err := r.readValue()
		if err != nil {
			return nil, nil, err
		}
		details, err := r.readValue()
		if err != nil {
			return nil, nil, err
		}
		codeStr, _ := code.(string)
		messageStr, _ := message.(string)
		return nil, &EnvelopeError{Code: codeStr, Message: messageStr, Details: details}, nil
	}
	return nil, nil, fmt.Errorf("standard envelope: unknown discriminator %d", payload[0])
}

func writeSize(buf *bytes.Buffer, n int) {
	switch {
	case n < 254:
		buf.WriteByte(byte(n))
	case n <= math.MaxUint16:
		buf.WriteByte(254)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(n))
		buf.Write(b[:])
	default:
		buf.WriteByte(255)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(n))
		buf.Write(b[:])
	}
}

func writeAlignment(buf *bytes.Buffer, alignment int) {
	for buf.Len()%alignment != 0 {
		buf.WriteByte(0)
	}
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteByte(tagNull)
	case bool:
		if val {
			buf.WriteByte(tagTrue)
		} else {
			buf.WriteByte(tagFalse)
		}
	case int32:
		buf.WriteByte(tagInt32)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(val))
		buf.Write(b[:])
	case int:
		if val >= math.MinInt32 && val <= math.MaxInt32 {
			return writeValue(buf, int32(val))
		}
		return writeValue(buf, int64(val))
	case int64:
		buf.WriteByte(tagInt64)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(val))
		buf.Write(b[:])
	case float64:
		buf.WriteByte(tagFloat64)
		writeAlignment(buf, 8)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(val))
		buf.Write(b[:])
	case string:
		buf.WriteByte(tagString)
		writeSize(buf, len(val))
		buf.WriteString(val)
	case []byte:
		buf.WriteByte(tagUint8List)
		writeSize(buf, len(val))
		buf.Write(val)
	case []int32:
		buf.WriteByte(tagInt32List)
		writeSize(buf, len(val))
		writeAlignment(buf, 4)
		for _, n := range val {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(n))
			buf.Write(b[:])
		}
	case []int64:
		buf.WriteByte(tagInt64List)
		writeSize(buf, len(val))
		writeAlignment(buf, 8)
		for _, n := range val {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], uint64(n))
			buf.Write(b[:])
		}
	case []float64:
		buf.WriteByte(tagFloat64List)
		writeSize(buf, len(val))
		writeAlignment(buf, 8)
		for _, f := range val {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
			buf.Write(b[:])
		}
	case []any:
		buf.WriteByte(tagList)
		writeSize(buf, len(val))
		for _, item := range val {
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
	case map[any]any:
		buf.WriteByte(tagMap)
		writeSize(buf, len(val))
		for k, item := range val {
			if err := writeValue(buf, k); err != nil {
				return err
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
	case map[string]any:
		buf.WriteByte(tagMap)
		writeSize(buf, len(val))
		for k, item := range val {
			if err := writeValue(buf, k); err != nil {
				return err
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("standard codec: unsupported value type %T", v)
	}
	return nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errspkg.ErrEnvelopeTruncated
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errspkg.ErrEnvelopeTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

// readCollectionSize rejects element counts the remaining payload cannot
// possibly hold, so a forged size header never drives a huge allocation.
func (r *reader) readCollectionSize(elemBytes int) (int, error) {
	size, err := r.readSize()
	if err != nil {
		return 0, err
	}
	if size < 0 || size > r.remaining()/elemBytes {
		return 0, errspkg.ErrEnvelopeTruncated
	}
	return size, nil
}

func (r *reader) readSize() (int, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 254:
		raw, err := r.readBytes(2)
		if err != nil {
			return 0, err
		}
		return int(binary.LittleEndian.Uint16(raw)), nil
	case 255:
		raw, err := r.readBytes(4)
		if err != nil {
			return 0, err
		}
		return int(binary.LittleEndian.Uint32(raw)), nil
	}
	return int(b), nil
}

func (r *reader) readAlignment(alignment int) error {
	for r.pos%alignment != 0 {
		if _, err := r.readByte(); err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) readValue() (any, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNull:
		return nil, nil
	case tagTrue:
		return true, nil
	case tagFalse:
		return false, nil
	case tagInt32:
		raw, err := r.readBytes(4)
		if err != nil {
			return nil, err
		}
		return int32(binary.LittleEndian.Uint32(raw)), nil
	case tagInt64:
		raw, err := r.readBytes(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(raw)), nil
	case tagFloat64:
		if err := r.readAlignment(8); err != nil {
			return nil, err
		}
		raw, err := r.readBytes(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
	case tagString:
		size, err := r.readSize()
		if err != nil {
			return nil, err
		}
		raw, err := r.readBytes(size)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	case tagUint8List:
		size, err := r.readSize()
		if err != nil {
			return nil, err
		}
		raw, err := r.readBytes(size)
		if err != nil {
			return nil, err
		}
		out := make([]byte, size)
		copy(out, raw)
		return out, nil
	case tagInt32List:
		size, err := r.readCollectionSize(4)
		if err != nil {
			return nil, err
		}
		if err := r.readAlignment(4); err != nil {
			return nil, err
		}
		out := make([]int32, size)
		for i := range out {
			raw, err := r.readBytes(4)
			if err != nil {
				return nil, err
			}
			out[i] = int32(binary.LittleEndian.Uint32(raw))
		}
		return out, nil
	case tagInt64List:
		size, err := r.readCollectionSize(8)
		if err != nil {
			return nil, err
		}
		if err := r.readAlignment(8); err != nil {
			return nil, err
		}
		out := make([]int64, size)
		for i := range out {
			raw, err := r.readBytes(8)
			if err != nil {
				return nil, err
			}
			out[i] = int64(binary.LittleEndian.Uint64(raw))
		}
		return out, nil
	case tagFloat64List:
		size, err := r.readCollectionSize(8)
		if err != nil {
			return nil, err
		}
		if err := r.readAlignment(8); err != nil {
			return nil, err
		}
		out := make([]float64, size)
		for i := range out {
			raw, err := r.readBytes(8)
			if err != nil {
				return nil, err
			}
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw))
		}
		return out, nil
	case tagList:
		size, err := r.readCollectionSize(1)
		if err != nil {
			return nil, err
		}
		out := make([]any, size)
		for i := range out {
			item, err := r.readValue()
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	case tagMap:
		size, err := r.readCollectionSize(2)
		if err != nil {
			return nil, err
		}
		out := make(map[any]any, size)
		for i := 0; i < size; i++ {
			k, err := r.readValue()
			if err != nil {
				return nil, err
			}
			switch k.(type) {
			case nil, bool, int32, int64, float64, string:
			default:
				return nil, fmt.Errorf("standard codec: unhashable map key type %T", k)
			}
			v, err := r.readValue()
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("standard codec: unknown value tag %d", tag)
}
