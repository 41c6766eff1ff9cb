package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/gnemet/DeckPress/internal/config"
	"github.com/gnemet/DeckPress/internal/export"
	"github.com/spf13/pflag"
)

const (
	exitOK    = 0
	exitInput = 1
	exitSetup = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("deckpress", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	in := flags.String("in", "", "input .pptx file (required)")
	flags.String("out", "", "output images directory (required)")
	flags.String("md", "", "output Markdown path (required)")
	flags.String("json", "", "output JSON manifest path (required)")
	flags.String("html", "", "optional HTML rendition path")
	flags.String("asset-prefix", "", "public path prefix for images (default /slides/images/)")
	flags.String("config", "", "config file (default config.yaml)")

	if err := flags.Parse(args); err != nil {
		return exitSetup
	}

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: failed to load configuration: %v\n", err)
		return exitSetup
	}

	required := []struct{ name, val string }{
		{"--in", *in},
		{"--out", cfg.Export.ImagesDir},
		{"--md", cfg.Export.MarkdownPath},
		{"--json", cfg.Export.JSONPath},
	}
	var missing []string
	for _, r := range required {
		if r.val == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(stderr, "ERROR: missing required arguments: %v\n", missing)
		flags.Usage()
		return exitSetup
	}

	if _, err := os.Stat(*in); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(stderr, "ERROR: input file not found")
		return exitInput
	}

	logger := log.New(stderr, "", 0)
	exporter := export.New(export.Options{
		AssetPrefix:   cfg.Export.AssetPrefix,
		MaxGroupDepth: cfg.Export.MaxGroupDepth,
		PartCacheSize: cfg.Export.PartCacheSize,
	}, logger)

	_, err = exporter.Export(*in, export.Outputs{
		ImagesDir:    cfg.Export.ImagesDir,
		MarkdownPath: cfg.Export.MarkdownPath,
		JSONPath:     cfg.Export.JSONPath,
		HTMLPath:     cfg.Export.HTMLPath,
	})
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitInput
	}

	fmt.Fprintln(stdout, "OK")
	return exitOK
}
