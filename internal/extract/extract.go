// Package extract runs a metadata extraction pass over a GGUF
// checkpoint and renders the captured fields as text or JSON.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/sys/unix"

	"github.com/samcharles93/ggufmeta/internal/gguf"
)

// Separator joins rendered blocks in the text output.
const Separator = "\n---\n"

// Options configures one extraction run. The zero value uses the
// default markers and the legacy tag table.
type Options struct {
	// Markers are the key substrings to capture. Empty means
	// gguf.DefaultMarkers.
	Markers []string
	// Table selects the tag table: "legacy" (default) or "canonical".
	Table string
	// MaxDepth bounds array nesting while skipping; 0 means the
	// package default.
	MaxDepth int
}

// Result is a completed extraction for one file.
type Result struct {
	Path    string       `json:"path"`
	KVCount uint64       `json:"kv_count"`
	Entries []gguf.Entry `json:"entries"`
	// Flagged describes tag occurrences that are ambiguous between
	// the legacy and canonical encodings, one human-readable note per
	// tag. Empty for files the two mappings agree on.
	Flagged []string `json:"flagged,omitempty"`
}

// TableByName resolves a tag table selector from configuration.
func TableByName(name string) (gguf.TagTable, error) {
	switch name {
	case "", "legacy":
		return gguf.LegacyTable(), nil
	case "canonical":
		return gguf.CanonicalTable(), nil
	default:
		return gguf.TagTable{}, fmt.Errorf("unknown tag table %q (want legacy or canonical)", name)
	}
}

// Run opens the checkpoint at path, walks its metadata block and
// returns the captured entries. The file is mapped read-only where
// possible and released before returning; truncated or malformed input
// fails the whole run with no partial result.
func Run(path string, opts Options) (*Result, error) {
	table, err := TableByName(opts.Table)
	if err != nil {
		return nil, err
	}

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

	gopts := gguf.ExtractOptions{
		Markers:  opts.Markers,
		Table:    &table,
		MaxDepth: opts.MaxDepth,
	}

	var ex *gguf.Extraction
	if data, merr := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED); merr == nil {
		ex, err = gguf.Extract(bytes.NewReader(data), size, gopts)
		_ = unix.Munmap(data)
	} else {
		ex, err = gguf.Extract(f, size, gopts)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	return &Result{
		Path:    path,
		KVCount: ex.KVCount,
		Entries: ex.Entries,
		Flagged: describeFlags(ex.FlaggedTags),
	}, nil
}

func describeFlags(flags map[gguf.ValueType]int) []string {
	if len(flags) == 0 {
		return nil
	}
	out := make([]string, 0, len(flags))
	// Stable order: tag 9 before tag 12.
	for _, tag := range []gguf.ValueType{gguf.TypeArray, gguf.TypeFloat64} {
		if n, ok := flags[tag]; ok {
			out = append(out, fmt.Sprintf(
				"tag %d seen %d time(s); legacy and canonical encodings disagree on it", uint32(tag), n))
		}
	}
	return out
}

// Count reports how many fields were captured.
func (r *Result) Count() int {
	return len(r.Entries)
}

// Text renders the entries as "[key]\nvalue" blocks joined by
// Separator, in file order.
func (r *Result) Text() string {
	blocks := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		blocks[i] = "[" + e.Key + "]\n" + e.Value
	}
	return strings.Join(blocks, Separator)
}

// JSON renders the whole result as JSON.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteText writes the text rendering to w.
func (r *Result) WriteText(w io.Writer) error {
	_, err := io.WriteString(w, r.Text())
	return err
}

// WriteFile writes the text rendering to path as UTF-8.
func (r *Result) WriteFile(path string) error {
	return os.WriteFile(path, []byte(r.Text()), 0o644)
}
