package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/r3e-network/neo-solidity-sub001/internal/compiler"
)

// fileConfig is the shape of an optional yulc.yaml: every field mirrors a
// flag, letting a project pin its compiler options without repeating them
// on every invocation. Flags explicitly set on the command line always
// override the file.
type fileConfig struct {
	OptimizationLevel *int    `yaml:"optimization_level"`
	TargetVersion     *string `yaml:"target_version"`
	OutputFormat      *string `yaml:"output_format"`
	IncludeSourceMap  *bool   `yaml:"include_source_map"`
	IncludeDebugInfo  *bool   `yaml:"include_debug_info"`
	ContractName      *string `yaml:"contract_name"`
	ABIExportPrefix   *string `yaml:"abi_export_prefix"`
}

// loadConfig reads path if it exists; a missing file is not an error, since
// the config is optional and every option already has a flag default.
func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyConfig merges cfg into opt wherever the corresponding flag was left
// at its unchanged default, i.e. wasn't passed on the command line.
func applyConfig(opt *compiler.Options, cfg *fileConfig, changed func(name string) bool) {
	if cfg.OptimizationLevel != nil && !changed("optimization-level") {
		opt.OptimizationLevel = *cfg.OptimizationLevel
	}
	if cfg.TargetVersion != nil && !changed("target-version") {
		opt.TargetVersion = *cfg.TargetVersion
	}
	if cfg.OutputFormat != nil && !changed("output-format") {
		opt.OutputFormat = compiler.OutputFormat(*cfg.OutputFormat)
	}
	if cfg.IncludeSourceMap != nil && !changed("source-map") {
		opt.IncludeSourceMap = *cfg.IncludeSourceMap
	}
	if cfg.IncludeDebugInfo != nil && !changed("debug-info") {
		opt.IncludeDebugInfo = *cfg.IncludeDebugInfo
	}
	if cfg.ContractName != nil && !changed("contract-name") {
		opt.ContractName = *cfg.ContractName
	}
	if cfg.ABIExportPrefix != nil && !changed("abi-export-prefix") {
		opt.ABIExportPrefix = *cfg.ABIExportPrefix
	}
}
