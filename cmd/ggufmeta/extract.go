package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ggufmeta/internal/extract"
)

func extractCmd() *cli.Command {
	var (
		outputPath string
		format     string
	)

	flags := []cli.Flag{modelFlag()}
	flags = append(flags, extractionFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "write result to this file instead of stdout",
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "output format (text, json)",
			Value:       "text",
			Destination: &format,
		},
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Extract chat template and tokenizer metadata from a checkpoint",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			applyExtractionConfig(c, LoadConfig())
			log := buildLogger()

			res, err := extract.Run(modelPath, extract.Options{
				Markers:  markers,
				Table:    tagTable,
				MaxDepth: int(maxDepth),
			})
			if err != nil {
				return err
			}

			for _, note := range res.Flagged {
				log.Warn("ambiguous type tag in metadata", "note", note)
			}

			var rendered []byte
			switch format {
			case "text":
				rendered = []byte(res.Text())
			case "json":
				if rendered, err = res.JSON(); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, rendered, 0o644); err != nil {
					return err
				}
			} else {
				fmt.Println(string(rendered))
			}

			log.Info("extraction complete",
				"model", modelPath, "entries", res.Count(), "kv", res.KVCount)
			return nil
		},
	}
}
