// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf2doc CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2doc/internal/logging"
	"github.com/pdiddy/pdf2doc/internal/secrets"
	"github.com/pdiddy/pdf2doc/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration, loaded before any command runs.
	cfg types.Config
	// logger is built from cfg.Log.
	logger zerolog.Logger
	// configErr is set when an existing config file cannot be read.
	configErr error
)

// rootCmd is the base command for the pdf2doc CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf2doc",
	Short: "Convert PDF documents to Word .doc files",
	Long: `pdf2doc extracts text and tables from PDF files and rebuilds them as
Word documents. Text is taken with tabula, falling back to a plain-text
reader when the primary library cannot parse a file. When LibreOffice is
installed the result is converted to the legacy .doc format; otherwise the
.docx content is written under the .doc name.

Run "pdf2doc serve" to accept uploads over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		logger = logging.New(c.Log.Level, c.Log.Format, cmd.ErrOrStderr())

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		if c.Server.APIToken == "" {
			c.Server.APIToken = s[secrets.KeyAPIToken]
		}
		cfg = c

		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf2doc.yaml or ~/.config/pdf2doc/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf2doc")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf2doc"))
		}
	}

	viper.SetEnvPrefix("PDF2DOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = fmt.Errorf("reading config: %w", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
