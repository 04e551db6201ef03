// Package gguf reads the GGUF model checkpoint format: a fixed header,
// a key/value metadata block, and a tensor directory followed by tensor
// data. Two entry points are provided. Open fully decodes the metadata
// and tensor directory for inspection. Extract makes a single linear
// pass over the metadata block only, capturing selected string values
// and skipping everything else byte-exactly.
package gguf

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const magicGGUF = "GGUF"

// ValueType is the wire type tag of one metadata value.
type ValueType uint32

const (
	TypeUint8   ValueType = 0
	TypeInt8    ValueType = 1
	TypeUint16  ValueType = 2
	TypeInt16   ValueType = 3
	TypeUint32  ValueType = 4
	TypeInt32   ValueType = 5
	TypeFloat32 ValueType = 6
	TypeBool    ValueType = 7
	TypeString  ValueType = 8
	TypeArray   ValueType = 9
	TypeUint64  ValueType = 10
	TypeInt64   ValueType = 11
	TypeFloat64 ValueType = 12
)

var valueTypeNames = map[ValueType]string{
	TypeUint8:   "u8",
	TypeInt8:    "i8",
	TypeUint16:  "u16",
	TypeInt16:   "i16",
	TypeUint32:  "u32",
	TypeInt32:   "i32",
	TypeFloat32: "f32",
	TypeBool:    "bool",
	TypeString:  "string",
	TypeArray:   "array",
	TypeUint64:  "u64",
	TypeInt64:   "i64",
	TypeFloat64: "f64",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// ArrayValue holds a decoded array value and its element type.
type ArrayValue struct {
	ElemType ValueType
	Values   []any
}

// Value is one decoded metadata value.
type Value struct {
	Type  ValueType
	Value any
}

type Header struct {
	Version     uint32
	TensorCount uint64
	KVCount     uint64
}

// TensorInfo describes one entry of the tensor directory. Tensor data
// itself is never read by this package.
type TensorInfo struct {
	Name   string
	Dims   []uint64
	Type   uint32
	Offset uint64
}

// File is a fully decoded GGUF header: all metadata plus the tensor
// directory.
type File struct {
	Path    string
	Header  Header
	KV      map[string]Value
	Tensors []TensorInfo
}

// Open decodes the metadata block and tensor directory of the file at
// path. The canonical type-tag encoding is used (tag 9 = array).
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()

	// Prefer mmap; fall back to streaming reads when unavailable.
	if data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED); err == nil {
		defer func() { _ = unix.Munmap(data) }()
		return parse(path, newReader(bytes.NewReader(data), size))
	}
	return parse(path, newReader(f, size))
}

func parse(path string, r *reader) (*File, error) {
	magic, err := r.readN(4)
	if err != nil {
		return nil, err
	}
	if string(magic) != magicGGUF {
		return nil, fmt.Errorf("gguf: invalid magic %q", string(magic))
	}

	version, err := r.readU32()
	if err != nil {
		return nil, err
	}
	tensorCount, err := r.readU64()
	if err != nil {
		return nil, err
	}
	kvCount, err := r.readU64()
	if err != nil {
		return nil, err
	}

	kv, err := parseKV(r, kvCount)
	if err != nil {
		return nil, err
	}
	tensors, err := parseTensors(r, tensorCount)
	if err != nil {
		return nil, err
	}

	return &File{
		Path:    path,
		Header:  Header{Version: version, TensorCount: tensorCount, KVCount: kvCount},
		KV:      kv,
		Tensors: tensors,
	}, nil
}

func parseKV(r *reader, count uint64) (map[string]Value, error) {
	kv := make(map[string]Value, count)
	for i := uint64(0); i < count; i++ {
		key, err := r.readString()
		if err != nil {
			return nil, fmt.Errorf("read key %d: %w", i, err)
		}
		tagU32, err := r.readU32()
		if err != nil {
			return nil, fmt.Errorf("read type of %s: %w", key, err)
		}
		tag := ValueType(tagU32)
		val, err := readValue(r, tag)
		if err != nil {
			return nil, fmt.Errorf("read value of %s: %w", key, err)
		}
		kv[key] = Value{Type: tag, Value: val}
	}
	return kv, nil
}

func parseTensors(r *reader, count uint64) ([]TensorInfo, error) {
	tensors := make([]TensorInfo, 0, count)
	for i := uint64(0); i < count; i++ {
		name, err := r.readString()
		if err != nil {
			return nil, fmt.Errorf("read tensor name %d: %w", i, err)
		}
		nDim, err := r.readU32()
		if err != nil {
			return nil, fmt.Errorf("read tensor rank %s: %w", name, err)
		}
		dims := make([]uint64, nDim)
		for d := range dims {
			if dims[d], err = r.readU64(); err != nil {
				return nil, fmt.Errorf("read tensor dim %s[%d]: %w", name, d, err)
			}
		}
		ttype, err := r.readU32()
		if err != nil {
			return nil, fmt.Errorf("read tensor type %s: %w", name, err)
		}
		offset, err := r.readU64()
		if err != nil {
			return nil, fmt.Errorf("read tensor offset %s: %w", name, err)
		}
		tensors = append(tensors, TensorInfo{Name: name, Dims: dims, Type: ttype, Offset: offset})
	}
	return tensors, nil
}

func readValue(r *reader, tag ValueType) (any, error) {
	return readValueDepth(r, tag, 0)
}

func readValueDepth(r *reader, tag ValueType, depth int) (any, error) {
	switch tag {
	case TypeUint8:
		return r.readU8()
	case TypeInt8:
		return r.readI8()
	case TypeUint16:
		return r.readU16()
	case TypeInt16:
		return r.readI16()
	case TypeUint32:
		return r.readU32()
	case TypeInt32:
		return r.readI32()
	case TypeUint64:
		return r.readU64()
	case TypeInt64:
		return r.readI64()
	case TypeFloat32:
		return r.readF32()
	case TypeFloat64:
		return r.readF64()
	case TypeBool:
		v, err := r.readU8()
		if err != nil {
			return false, err
		}
		return v != 0, nil
	case TypeString:
		return r.readString()
	case TypeArray:
		if depth >= DefaultMaxDepth {
			return nil, fmt.Errorf("%w: depth %d", ErrDepthExceeded, depth)
		}
		elemU32, err := r.readU32()
		if err != nil {
			return nil, err
		}
		count, err := r.readU64()
		if err != nil {
			return nil, err
		}
		elem := ValueType(elemU32)
		// The count is untrusted; grow rather than preallocating it.
		values := make([]any, 0, min(count, 1024))
		for i := uint64(0); i < count; i++ {
			v, err := readValueDepth(r, elem, depth+1)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return ArrayValue{ElemType: elem, Values: values}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, uint32(tag))
	}
}
