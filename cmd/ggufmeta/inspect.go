package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ggufmeta/internal/gguf"
)

func inspectCmd() *cli.Command {
	var (
		showKV      bool
		tensorLimit int64
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Fully decode and print a checkpoint's metadata",
		Flags: []cli.Flag{
			modelFlag(),
			&cli.BoolFlag{
				Name:        "kv",
				Usage:       "show all metadata key/values",
				Destination: &showKV,
			},
			&cli.Int64Flag{
				Name:        "tensors",
				Usage:       "number of tensors to list (0 to skip, -1 for all)",
				Value:       20,
				Destination: &tensorLimit,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			f, err := gguf.Open(modelPath)
			if err != nil {
				return err
			}

			fmt.Printf("File: %s\n", modelPath)
			fmt.Printf("GGUF v%d | tensors=%d | kv=%d\n",
				f.Header.Version, f.Header.TensorCount, f.Header.KVCount)

			printKey(f, "general.name")
			printKey(f, "general.architecture")
			printKey(f, "general.file_type")
			printKey(f, "general.context_length")
			printKey(f, "tokenizer.ggml.model")
			printKey(f, "tokenizer.ggml.bos_token_id")
			printKey(f, "tokenizer.ggml.eos_token_id")
			if tpl, ok := gguf.GetString(f.KV, "tokenizer.chat_template"); ok {
				fmt.Printf("  %-36s present (%d chars)\n", "tokenizer.chat_template:", len(tpl))
			}

			if showKV {
				fmt.Println()
				fmt.Println("All metadata:")
				keys := make([]string, 0, len(f.KV))
				for k := range f.KV {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("  %s = %s\n", k, formatValue(f.KV[k]))
				}
			}

			n := int(tensorLimit)
			if n != 0 {
				fmt.Println()
				fmt.Println("Tensors:")
				count := len(f.Tensors)
				if n < 0 || n > count {
					n = count
				}
				for i := 0; i < n; i++ {
					t := f.Tensors[i]
					fmt.Printf("  %-40s type=%d dims=%s off=%d\n",
						t.Name, t.Type, formatDims(t.Dims), t.Offset)
				}
				if n < count {
					fmt.Printf("  ... (%d more)\n", count-n)
				}
			}
			return nil
		},
	}
}

func printKey(f *gguf.File, key string) {
	if v, ok := f.KV[key]; ok {
		fmt.Printf("  %-36s %s\n", key+":", formatValue(v))
	}
}

func formatValue(v gguf.Value) string {
	switch val := v.Value.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case gguf.ArrayValue:
		return fmt.Sprintf("array(%s) len=%d", val.ElemType.String(), len(val.Values))
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatDims(dims []uint64) string {
	if len(dims) == 0 {
		return "[]"
	}
	parts := make([]string, len(dims))
	for i, v := range dims {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, "x") + "]"
}
