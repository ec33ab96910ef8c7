// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2doc/internal/server"
)

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Describe what a conversion preserves and its limits",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "pdf2doc %s\n\nFeatures:\n", version)
		for _, f := range server.Features {
			fmt.Fprintf(w, "  - %s\n", f)
		}
		fmt.Fprintf(w, "\nLimits:\n  - input: .pdf, up to %d MiB\n  - output: .doc\n", cfg.Limits.MaxFileSize>>20)
		fmt.Fprintln(w, "  - scanned or image-only pages carry no text and are not converted")
	},
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}
