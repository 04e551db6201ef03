package gguf

import (
	"fmt"
	"io"
	"strings"
)

// DefaultMarkers selects the chat template and the tokenizer model
// identifier, the two fields needed to drive a model's prompt format.
var DefaultMarkers = []string{"chat_template", "tokenizer.ggml.model"}

// Entry is one captured metadata field, in file order.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Extraction is the result of one metadata pass.
type Extraction struct {
	// KVCount is the declared number of metadata entries in the file,
	// all of which were visited.
	KVCount uint64
	// Entries holds the captured fields in file order, never
	// reordered or deduplicated.
	Entries []Entry
	// FlaggedTags counts occurrences of tags the table marks as
	// ambiguous between the legacy and canonical encodings. Non-empty
	// means the byte accounting of this pass may disagree with a
	// conventional reader.
	FlaggedTags map[ValueType]int
}

// ExtractOptions configures a metadata pass. The zero value selects
// the default markers, the legacy tag table and the default depth
// guard.
type ExtractOptions struct {
	// Markers are substrings matched against each key; a string-typed
	// entry whose key contains any of them is captured.
	Markers []string
	// Table maps type tags to skip behaviour. Nil means LegacyTable.
	Table *TagTable
	// MaxDepth bounds array nesting; 0 means DefaultMaxDepth.
	MaxDepth int
}

// Extract walks the metadata block of a GGUF stream and captures every
// string value whose key matches one of the markers. All other values
// are skipped byte-exactly; the tensor directory and tensor data are
// never read. Any truncation aborts the pass with no partial result.
func Extract(rd io.Reader, size int64, opts ExtractOptions) (*Extraction, error) {
	markers := opts.Markers
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	table := LegacyTable()
	if opts.Table != nil {
		table = *opts.Table
	}

	r := newReader(rd, size)

	// Magic and version are consumed, not validated: the extraction
	// works on anything laid out like a GGUF header.
	if err := r.skip(8); err != nil {
		return nil, fmt.Errorf("read preamble: %w", err)
	}
	if _, err := r.readU64(); err != nil {
		return nil, fmt.Errorf("read tensor count: %w", err)
	}
	nk, err := r.readU64()
	if err != nil {
		return nil, fmt.Errorf("read metadata count: %w", err)
	}

	sk := newSkipper(r, table, opts.MaxDepth)
	out := &Extraction{KVCount: nk}

	for i := uint64(0); i < nk; i++ {
		key, err := r.readString()
		if err != nil {
			return nil, fmt.Errorf("read key %d: %w", i, err)
		}
		tagU32, err := r.readU32()
		if err != nil {
			return nil, fmt.Errorf("read type of %s: %w", key, err)
		}
		tag := ValueType(tagU32)

		if tag == table.StringTag && matchesAny(key, markers) {
			val, err := r.readString()
			if err != nil {
				return nil, fmt.Errorf("read value of %s: %w", key, err)
			}
			out.Entries = append(out.Entries, Entry{Key: key, Value: val})
			continue
		}
		if err := sk.skipValue(tag); err != nil {
			return nil, fmt.Errorf("skip value of %s: %w", key, err)
		}
	}

	if len(sk.seen) > 0 {
		out.FlaggedTags = sk.seen
	}
	return out, nil
}

func matchesAny(key string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(key, m) {
			return true
		}
	}
	return false
}
