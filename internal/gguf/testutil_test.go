package gguf

import (
	"bytes"
	"encoding/binary"
)

// fileBuilder assembles synthetic GGUF byte streams for tests.
type fileBuilder struct {
	buf bytes.Buffer
}

func newFileBuilder() *fileBuilder {
	b := &fileBuilder{}
	b.raw([]byte(magicGGUF))
	b.u32(3) // version
	return b
}

func (b *fileBuilder) raw(p []byte) *fileBuilder {
	b.buf.Write(p)
	return b
}

func (b *fileBuilder) u32(v uint32) *fileBuilder {
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], v)
	b.buf.Write(p[:])
	return b
}

func (b *fileBuilder) u64(v uint64) *fileBuilder {
	var p [8]byte
	binary.LittleEndian.PutUint64(p[:], v)
	b.buf.Write(p[:])
	return b
}

// str writes a length-prefixed string.
func (b *fileBuilder) str(s string) *fileBuilder {
	b.u64(uint64(len(s)))
	b.buf.Write([]byte(s))
	return b
}

// header finishes the preamble: tensor count then KV count.
func (b *fileBuilder) header(tensors, kvs uint64) *fileBuilder {
	b.u64(tensors)
	b.u64(kvs)
	return b
}

// kvString writes one string-typed metadata entry.
func (b *fileBuilder) kvString(key, val string) *fileBuilder {
	b.str(key)
	b.u32(uint32(TypeString))
	b.str(val)
	return b
}

// kv writes a key and type tag; the caller appends the value bytes.
func (b *fileBuilder) kv(key string, tag ValueType) *fileBuilder {
	b.str(key)
	b.u32(uint32(tag))
	return b
}

func (b *fileBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func (b *fileBuilder) reader() *reader {
	data := b.bytes()
	return newReader(bytes.NewReader(data), int64(len(data)))
}

// rawReader wraps arbitrary bytes in a reader.
func rawReader(data []byte) *reader {
	return newReader(bytes.NewReader(data), int64(len(data)))
}
