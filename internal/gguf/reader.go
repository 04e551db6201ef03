package gguf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrTruncated reports a read that would run past the end of the file.
// Once the cursor is desynchronized nothing after it can be trusted, so
// every truncation is fatal for the whole pass.
var ErrTruncated = errors.New("gguf: truncated input")

// reader is a forward-only cursor over the file bytes. It never seeks
// backward; off tracks how many bytes have been consumed.
type reader struct {
	r    *bufio.Reader
	off  int64
	size int64
}

func newReader(rd io.Reader, size int64) *reader {
	return &reader{
		r:    bufio.NewReader(rd),
		size: size,
	}
}

func (r *reader) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("gguf: invalid read length %d", n)
	}
	if r.size > 0 && r.off+int64(n) > r.size {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, n, r.off, r.size-r.off)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: at offset %d", ErrTruncated, r.off)
		}
		return nil, err
	}
	r.off += int64(n)
	return buf, nil
}

// skip consumes and discards exactly n bytes.
func (r *reader) skip(n uint64) error {
	if r.size > 0 && r.off+int64(n) > r.size {
		return fmt.Errorf("%w: skip %d bytes at offset %d, have %d",
			ErrTruncated, n, r.off, r.size-r.off)
	}
	discarded, err := r.r.Discard(int(n))
	r.off += int64(discarded)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: at offset %d", ErrTruncated, r.off)
		}
		return err
	}
	return nil
}

func (r *reader) readU8() (uint8, error) {
	b, err := r.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readI8() (int8, error) {
	v, err := r.readU8()
	return int8(v), err
}

func (r *reader) readU16() (uint16, error) {
	b, err := r.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) readI16() (int16, error) {
	v, err := r.readU16()
	return int16(v), err
}

func (r *reader) readU32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) readI32() (int32, error) {
	v, err := r.readU32()
	return int32(v), err
}

func (r *reader) readU64() (uint64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) readI64() (int64, error) {
	v, err := r.readU64()
	return int64(v), err
}

func (r *reader) readF32() (float32, error) {
	u, err := r.readU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (r *reader) readF64() (float64, error) {
	u, err := r.readU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// readString consumes an 8-byte length followed by that many raw bytes.
// Invalid UTF-8 is replaced with U+FFFD rather than failing: keys and
// values in the wild occasionally carry mojibake, and a failed decode
// must not desynchronize the cursor. Exactly 8+L bytes are consumed
// either way.
func (r *reader) readString() (string, error) {
	n, err := r.readU64()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if r.size > 0 && n > uint64(r.size) {
		return "", fmt.Errorf("%w: string length %d exceeds file size %d", ErrTruncated, n, r.size)
	}
	b, err := r.readN(int(n))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}
