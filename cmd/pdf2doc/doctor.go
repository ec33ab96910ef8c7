// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2doc/internal/extract"
	"github.com/pdiddy/pdf2doc/internal/office"
	"github.com/pdiddy/pdf2doc/pkg/types"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check extraction strategies and the office converter",
	Long: `Doctor reports the configured extraction strategies and whether a
LibreOffice binary is available for legacy .doc output. A missing converter
is not an error: conversions then write .docx content under the .doc name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(w io.Writer, c types.Config) error {
	strategies, err := extract.FromNames(c.Extraction.Strategies)
	if err != nil {
		fmt.Fprintf(w, "extraction: FAIL (%v)\n", err)
		return err
	}
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	fmt.Fprintf(w, "extraction: ok (%s)\n", strings.Join(names, " -> "))

	if c.Office.Disabled {
		fmt.Fprintln(w, "converter:  disabled (output is .docx content named .doc)")
	} else if conv, err := office.Detect(c.Office.Binaries, c.Office.Timeout); err != nil {
		fmt.Fprintf(w, "converter:  unavailable (%v); output is .docx content named .doc\n", err)
	} else {
		fmt.Fprintf(w, "converter:  ok (%s, timeout %v)\n", conv.Name(), c.Office.Timeout)
	}

	fmt.Fprintf(w, "max size:   %d bytes\n", c.Limits.MaxFileSize)
	return nil
}
