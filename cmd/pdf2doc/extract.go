// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2doc/internal/convert"
	"github.com/pdiddy/pdf2doc/internal/export"
	"github.com/pdiddy/pdf2doc/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Dump the page records extracted from a PDF",
	Long: `Extract runs only the extraction stage and prints the resulting page
records (page number, text, tables) as YAML or JSON. The xlsx format writes
a workbook with a page summary sheet and one sheet per detected table.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("format", "yaml", "output format: yaml, json, or xlsx")
	extractCmd.Flags().StringP("output", "o", "", "output file (default stdout; xlsx defaults to <name>.xlsx)")
	extractCmd.Flags().StringSlice("strategies", nil, "override extraction strategies, in order")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	names, _ := cmd.Flags().GetStringSlice("strategies")

	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = cfg.Extraction.Strategies
	}
	strategies, err := extract.FromNames(names)
	if err != nil {
		return err
	}

	in := args[0]
	if err := convert.ValidateFile(in, cfg.Limits.MaxFileSize); err != nil {
		return err
	}

	res, err := extract.NewChain(logger, strategies...).Extract(cmd.Context(), in)
	if err != nil {
		return err
	}
	doc := export.Document{Source: filepath.Base(in), Strategy: res.Strategy, Pages: res.Pages}

	if output == "" && format == export.FormatXLSX {
		base := filepath.Base(in)
		output = strings.TrimSuffix(base, filepath.Ext(base)) + ".xlsx"
	}

	if output == "" {
		return export.Write(cmd.OutOrStdout(), format, doc)
	}
	if err := writeFile(output, func(w io.Writer) error {
		return export.Write(w, format, doc)
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d pages to %s\n", len(res.Pages), output)
	return nil
}

// writeFile writes path through a temporary file in the same directory and
// renames it into place once write and Close both succeed. On any error
// path is left untouched.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
