// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2doc/internal/convert"
	"github.com/pdiddy/pdf2doc/internal/extract"
	"github.com/pdiddy/pdf2doc/internal/office"
	"github.com/pdiddy/pdf2doc/internal/stats"
	"github.com/pdiddy/pdf2doc/pkg/types"
)

// setDefaults registers every config key so env overrides apply even when
// no config file sets them.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("extraction.strategies", d.Extraction.Strategies)
	v.SetDefault("office.binaries", d.Office.Binaries)
	v.SetDefault("office.timeout", d.Office.Timeout)
	v.SetDefault("office.probe_interval", d.Office.ProbeInterval)
	v.SetDefault("office.disabled", d.Office.Disabled)
	v.SetDefault("limits.max_file_size", d.Limits.MaxFileSize)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.api_token", d.Server.APIToken)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig decodes viper state into a Config.
func loadConfig() (types.Config, error) {
	if configErr != nil {
		return types.Config{}, configErr
	}
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if len(c.Extraction.Strategies) == 0 {
		return types.Config{}, fmt.Errorf("extraction.strategies must name at least one strategy")
	}
	return c, nil
}

// newProber returns the converter probe, or nil when conversion is disabled.
func newProber(c types.Config) *office.Prober {
	if c.Office.Disabled {
		return nil
	}
	return office.NewProber(c.Office.Binaries, c.Office.Timeout, c.Office.ProbeInterval)
}

// newPipeline wires the extraction chain, converter probe, and recorder
// from configuration.
func newPipeline(c types.Config, log zerolog.Logger, rec stats.Recorder) (*convert.Pipeline, *office.Prober, error) {
	strategies, err := extract.FromNames(c.Extraction.Strategies)
	if err != nil {
		return nil, nil, err
	}
	chain := extract.NewChain(log, strategies...)

	opts := []convert.Option{convert.WithLogger(log), convert.WithRecorder(rec)}
	prober := newProber(c)
	if prober != nil {
		opts = append(opts, convert.WithConverters(prober))
	}
	return convert.NewPipeline(chain, opts...), prober, nil
}

// converterName reports the office converter currently detected, or "".
func converterName(p *office.Prober) string {
	if p == nil {
		return ""
	}
	conv, err := p.Converter()
	if err != nil {
		return ""
	}
	return conv.Name()
}
