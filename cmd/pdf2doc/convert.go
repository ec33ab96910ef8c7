// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2doc/internal/convert"
	"github.com/pdiddy/pdf2doc/internal/httputil"
	"github.com/pdiddy/pdf2doc/internal/stats"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdf...]",
	Short: "Convert PDF files to Word .doc files",
	Long: `Convert extracts each PDF's text and tables and writes a .doc file with
the same base name. Outputs go next to each input unless --out-dir is set;
existing outputs are skipped unless --force is given.

With --output a single input is written to exactly that path. With --url the
PDF is downloaded first (retrying when the server rate-limits).`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output path (single input only)")
	convertCmd.Flags().String("out-dir", "", "directory for converted documents")
	convertCmd.Flags().Bool("force", false, "reconvert even if the output exists")
	convertCmd.Flags().String("url", "", "download the PDF from this URL and convert it")
	convertCmd.Flags().String("user", "", "user the conversions are counted against")
	convertCmd.Flags().Duration("download-timeout", 2*time.Minute, "HTTP timeout for --url")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	outDir, _ := cmd.Flags().GetString("out-dir")
	force, _ := cmd.Flags().GetBool("force")
	rawURL, _ := cmd.Flags().GetString("url")
	user, _ := cmd.Flags().GetString("user")
	timeout, _ := cmd.Flags().GetDuration("download-timeout")

	ctx := stats.WithUser(cmd.Context(), user)

	if rawURL != "" {
		tmp, err := os.MkdirTemp("", "pdf2doc-dl-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		client := &http.Client{Timeout: timeout}
		path, err := httputil.Download(ctx, client, rawURL, tmp, cfg.Limits.MaxFileSize)
		if err != nil {
			return err
		}
		if output == "" && outDir == "" {
			outDir = "."
		}
		args = append(args, path)
	}

	if len(args) == 0 {
		return errors.New("no input: pass PDF paths or --url")
	}
	if output != "" && len(args) != 1 {
		return errors.New("--output needs exactly one input")
	}

	rec := stats.NewMemory()
	p, _, err := newPipeline(cfg, logger, rec)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output != "" {
		if err := convert.ValidateFile(args[0], cfg.Limits.MaxFileSize); err != nil {
			return err
		}
		res, err := p.Convert(ctx, args[0], output)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "converted: %s -> %s (%d pages, %d tables, %s)\n",
			filepath.Base(args[0]), res.OutputPath, res.Pages, res.Tables, res.Format)
		return nil
	}

	opts := convert.Options{OutDir: outDir, Force: force, MaxSize: cfg.Limits.MaxFileSize}
	result := convert.ConvertBatch(ctx, p, args, opts, out)

	total := rec.Total()
	fmt.Fprintf(out, "Processed %d bytes, produced %d bytes across %d pages\n",
		total.BytesProcessed, total.BytesProduced, total.Pages)
	if result.HasFailures() {
		return fmt.Errorf("%d of %d files failed", result.Failed, result.Total())
	}
	return nil
}
