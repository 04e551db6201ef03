package gguf

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTag reports a type tag with no entry in the table in
	// use. Treating an unknown tag as zero-width would silently
	// desynchronize the cursor, so it is always a hard error.
	ErrUnknownTag = errors.New("gguf: unknown value type tag")

	// ErrDepthExceeded reports array nesting deeper than the configured
	// guard. Real files nest one or two levels; anything deeper is
	// either corrupt or adversarial.
	ErrDepthExceeded = errors.New("gguf: array nesting too deep")
)

// DefaultMaxDepth bounds recursion into nested arrays during a skip.
const DefaultMaxDepth = 64

// TagTable maps type tags to their wire width. Tags absent from every
// field are unknown. A value is skipped by fixed width, as a
// length-prefixed string, or as an array of recursively skipped
// elements, depending on which slot its tag occupies.
type TagTable struct {
	// Widths holds the byte width of every fixed-size scalar tag.
	Widths map[ValueType]uint64
	// StringTag is the tag skipped as an 8-byte length plus payload.
	StringTag ValueType
	// ArrayTag is the tag skipped as elem-tag + count + elements.
	ArrayTag ValueType
	// Flagged lists tags whose presence is reported to the caller.
	// Used to surface files where the legacy/canonical mapping split
	// actually matters.
	Flagged []ValueType
}

// LegacyTable maps tag 12 to the array container and tag 9 to a plain
// 8-byte scalar, matching files from producers that encode arrays
// under tag 12. The conventional GGUF encoding has these the other way
// around (9=array, 12=f64), so under this table both tags are flagged
// whenever they occur — a file written by a conventional producer
// would be miscounted here, and the caller must be able to tell.
func LegacyTable() TagTable {
	return TagTable{
		Widths: map[ValueType]uint64{
			TypeUint8:   1,
			TypeInt8:    1,
			TypeUint16:  2,
			TypeInt16:   2,
			TypeUint32:  4,
			TypeInt32:   4,
			TypeFloat32: 4,
			TypeBool:    1,
			TypeArray:   8, // conventional array tag, skipped as a scalar here
			TypeUint64:  8,
			TypeInt64:   8,
		},
		StringTag: TypeString,
		ArrayTag:  TypeFloat64, // tag 12
		Flagged:   []ValueType{TypeArray, TypeFloat64},
	}
}

// CanonicalTable follows the GGUF specification: tag 9 is the array
// container and tag 12 is a 64-bit float.
func CanonicalTable() TagTable {
	return TagTable{
		Widths: map[ValueType]uint64{
			TypeUint8:   1,
			TypeInt8:    1,
			TypeUint16:  2,
			TypeInt16:   2,
			TypeUint32:  4,
			TypeInt32:   4,
			TypeFloat32: 4,
			TypeBool:    1,
			TypeUint64:  8,
			TypeInt64:   8,
			TypeFloat64: 8,
		},
		StringTag: TypeString,
		ArrayTag:  TypeArray,
	}
}

func (t TagTable) flagged(tag ValueType) bool {
	for _, f := range t.Flagged {
		if f == tag {
			return true
		}
	}
	return false
}

// skipper advances a reader past values it has no interest in while
// recording which flagged tags it met along the way.
type skipper struct {
	r        *reader
	table    TagTable
	maxDepth int
	seen     map[ValueType]int
}

func newSkipper(r *reader, table TagTable, maxDepth int) *skipper {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &skipper{
		r:        r,
		table:    table,
		maxDepth: maxDepth,
		seen:     make(map[ValueType]int),
	}
}

// skipValue consumes exactly the bytes belonging to one value of the
// given tag. On return the cursor sits one byte past the value; any
// error leaves the cursor unusable.
func (s *skipper) skipValue(tag ValueType) error {
	return s.skipDepth(tag, 0)
}

func (s *skipper) skipDepth(tag ValueType, depth int) error {
	if s.table.flagged(tag) {
		s.seen[tag]++
	}

	switch {
	case tag == s.table.StringTag:
		n, err := s.r.readU64()
		if err != nil {
			return err
		}
		return s.r.skip(n)

	case tag == s.table.ArrayTag:
		if depth >= s.maxDepth {
			return fmt.Errorf("%w: depth %d", ErrDepthExceeded, depth)
		}
		elemU32, err := s.r.readU32()
		if err != nil {
			return err
		}
		count, err := s.r.readU64()
		if err != nil {
			return err
		}
		elem := ValueType(elemU32)
		for i := uint64(0); i < count; i++ {
			if err := s.skipDepth(elem, depth+1); err != nil {
				return err
			}
		}
		return nil

	default:
		width, ok := s.table.Widths[tag]
		if !ok {
			return fmt.Errorf("%w: %d at offset %d", ErrUnknownTag, uint32(tag), s.r.off)
		}
		return s.r.skip(width)
	}
}
