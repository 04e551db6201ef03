package gguf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestGGUF(t *testing.T, b *fileBuilder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gguf")
	require.NoError(t, os.WriteFile(path, b.bytes(), 0o644))
	return path
}

func TestOpenDecodesKVAndTensors(t *testing.T) {
	t.Parallel()

	b := newFileBuilder().header(1, 4)
	b.kvString("general.architecture", "llama")
	b.kv("llama.block_count", TypeUint32).u32(32)
	b.kv("llama.rope.freq_base", TypeFloat32).u32(0x47c35000) // 100000.0
	b.kv("tokenizer.ggml.tokens", TypeArray).
		u32(uint32(TypeString)).u64(3).str("<s>").str("</s>").str("a")

	// One tensor directory entry.
	b.str("token_embd.weight")
	b.u32(2).u64(4096).u64(32000)
	b.u32(0) // f32
	b.u64(0)

	f, err := Open(writeTestGGUF(t, b))
	require.NoError(t, err)

	assert.Equal(t, uint32(3), f.Header.Version)
	assert.Equal(t, uint64(1), f.Header.TensorCount)
	assert.Equal(t, uint64(4), f.Header.KVCount)

	arch, ok := GetString(f.KV, "general.architecture")
	require.True(t, ok)
	assert.Equal(t, "llama", arch)

	blocks, ok := GetUint64(f.KV, "llama.block_count")
	require.True(t, ok)
	assert.Equal(t, uint64(32), blocks)

	base, ok := GetFloat64(f.KV, "llama.rope.freq_base")
	require.True(t, ok)
	assert.InDelta(t, 100000.0, base, 0.01)

	tokens, ok := GetArray[string](f.KV, "tokenizer.ggml.tokens")
	require.True(t, ok)
	assert.Equal(t, []string{"<s>", "</s>", "a"}, tokens)

	require.Len(t, f.Tensors, 1)
	assert.Equal(t, "token_embd.weight", f.Tensors[0].Name)
	assert.Equal(t, []uint64{4096, 32000}, f.Tensors[0].Dims)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.gguf")
	require.NoError(t, os.WriteFile(path, []byte("NOPE\x00\x00\x00\x00"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic")
}

func TestOpenTruncatedHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "short.gguf")
	require.NoError(t, os.WriteFile(path, []byte("GGUF\x03\x00"), 0o644))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestOpenRejectsRunawayArrayNesting(t *testing.T) {
	t.Parallel()

	b := newFileBuilder().header(0, 1)
	b.kv("tokenizer.ggml.deep", TypeArray)
	for i := 0; i < DefaultMaxDepth+1; i++ {
		b.u32(uint32(TypeArray)).u64(1)
	}
	b.u32(uint32(TypeUint8)).u64(0)

	_, err := Open(writeTestGGUF(t, b))
	require.ErrorIs(t, err, ErrDepthExceeded)
}

func TestValueTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "string", TypeString.String())
	assert.Equal(t, "array", TypeArray.String())
	assert.Equal(t, "f64", TypeFloat64.String())
	assert.Equal(t, "type(42)", ValueType(42).String())
}
