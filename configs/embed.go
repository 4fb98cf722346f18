// Package configs provides the embedded configuration template for lexkb.
//
// The template is embedded at build time with //go:embed so it ships
// inside the binary regardless of how lexkb is installed. It is written
// to disk by 'lexkb init' and documents every supported key.
//
// Configuration hierarchy (see internal/config.Load):
//  1. Hardcoded defaults (internal/config.NewConfig)
//  2. Config file (lexkb.yaml, or --config)
//  3. Environment variables (LEXKB_*)
package configs

import _ "embed"

// ConfigTemplate is the annotated default configuration written by
// 'lexkb init'.
//
//go:embed lexkb.example.yaml
var ConfigTemplate string
