package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ggufmeta/internal/logger"
)

var (
	modelPath string
	markers   []string
	tagTable  string
	maxDepth  int64
	logLevel  string
	logFormat string
)

func modelFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "model",
		Aliases:     []string{"m"},
		Usage:       "path to .gguf checkpoint",
		Destination: &modelPath,
		Required:    true,
	}
}

func extractionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "marker",
			Usage:       "key substring to capture (repeatable; default chat_template, tokenizer.ggml.model)",
			Destination: &markers,
		},
		&cli.StringFlag{
			Name:        "table",
			Usage:       "type-tag table (legacy, canonical)",
			Value:       "legacy",
			Destination: &tagTable,
		},
		&cli.Int64Flag{
			Name:        "max-depth",
			Usage:       "array nesting limit while skipping values",
			Destination: &maxDepth,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
	}
}

func buildLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.Text(os.Stderr, level)
	default:
		return logger.Pretty(os.Stderr, level)
	}
}
