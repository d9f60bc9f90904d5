// Command yulc compiles a Yul object into TargetVM bytecode plus a
// contract manifest, driving the pure internal/compiler pipeline with
// file I/O, diagnostics rendering, and an optional watch mode.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/r3e-network/neo-solidity-sub001/internal/artifact"
	"github.com/r3e-network/neo-solidity-sub001/internal/compiler"
	"github.com/r3e-network/neo-solidity-sub001/internal/diagnostics"
)

const (
	exitSuccess      = 0
	exitLexError     = 1
	exitParseError   = 2
	exitSemaError    = 3
	exitCodegenError = 4
	exitIOError      = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		configPath   string
		outputDir    string
		sourceURL    string
		watch        bool
		debug        bool
		noColorFlag  bool
		opt          = compiler.DefaultOptions()
		outputFormat string
	)

	root := &cobra.Command{
		Use:           "yulc <source.yul>",
		Short:         "Compile a Yul object to TargetVM bytecode and a contract manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
	}

	flags := root.Flags()
	flags.IntVarP(&opt.OptimizationLevel, "optimization-level", "O", opt.OptimizationLevel, "optimization level 0-3")
	flags.StringVar(&opt.TargetVersion, "target-version", opt.TargetVersion, "target VM version, \"3.0\"..\"3.5\"")
	flags.StringVarP(&outputFormat, "output-format", "f", string(opt.OutputFormat), "binary|hex|assembly|json")
	flags.BoolVar(&opt.IncludeSourceMap, "source-map", opt.IncludeSourceMap, "emit a source map alongside the artifact")
	flags.BoolVar(&opt.IncludeDebugInfo, "debug-info", opt.IncludeDebugInfo, "emit a JSON debug blob alongside the artifact")
	flags.StringVar(&opt.ContractName, "contract-name", opt.ContractName, "name written into the manifest")
	flags.StringVar(&opt.ABIExportPrefix, "abi-export-prefix", opt.ABIExportPrefix, "identifier prefix marking exported functions")
	flags.StringVar(&sourceURL, "source-url", "", "source/URL field recorded in the .nef header")
	flags.StringVarP(&outputDir, "output-dir", "o", "", "directory to write .nef/.manifest.json into (default: print to stdout)")
	flags.StringVar(&configPath, "config", "yulc.yaml", "optional config file merged under unset flags")
	flags.BoolVar(&watch, "watch", false, "recompile whenever the source file changes")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.BoolVar(&noColorFlag, "no-color", false, "disable colored diagnostics")

	exitCode := exitSuccess

	root.RunE = func(cmd *cobra.Command, cliArgs []string) error {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyConfig(&opt, cfg, flags.Changed)
		if flags.Changed("output-format") {
			opt.OutputFormat = compiler.OutputFormat(outputFormat)
		}

		path := cliArgs[0]
		color := colorEnabled(noColorFlag)

		compileOnce := func() int {
			code := compileFile(path, opt, outputDir, sourceURL, logger, color)
			exitCode = code
			return code
		}

		if watch {
			if err := watchAndCompile(path, logger, compileOnce); err != nil {
				return err
			}
			return nil
		}

		compileOnce()
		return nil
	}

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "yulc:", err)
		if exitCode == exitSuccess {
			exitCode = exitIOError
		}
	}
	return exitCode
}

// compileFile reads path, runs the pipeline, and either writes the
// resulting artifact under outputDir or prints its rendered form to
// stdout. It returns the process exit code for this single compile.
func compileFile(path string, opt compiler.Options, outputDir, sourceURL string, logger *slog.Logger, color bool) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "yulc: reading source:", err)
		return exitIOError
	}

	res, diags := compiler.Compile(string(source), opt)
	if len(diags) > 0 {
		for i := range diags {
			diags[i].File = path
		}
		printDiagnostics(os.Stderr, diags, color)
		return exitCodeForDiagnostics(diags)
	}
	if len(res.Warnings) > 0 {
		warnings := make([]diagnostics.Diagnostic, len(res.Warnings))
		copy(warnings, res.Warnings)
		for i := range warnings {
			warnings[i].File = path
		}
		printDiagnostics(os.Stderr, warnings, color)
	}

	if outputDir == "" {
		os.Stdout.Write(res.Rendered)
		return exitSuccess
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "yulc: creating output directory:", err)
		return exitIOError
	}

	nefMeta := &artifact.NEF{
		CompilerID: "yulc-" + compiler.Version,
		Source:     sourceURL,
		Bytecode:   res.Artifact.Bytecode,
	}
	if err := artifact.WriteFiles(outputDir, opt.ContractName, res.Artifact, nefMeta); err != nil {
		fmt.Fprintln(os.Stderr, "yulc: writing artifact:", err)
		return exitIOError
	}
	logger.Info("compiled", "contract", opt.ContractName, "dir", outputDir)
	return exitSuccess
}

// exitCodeForDiagnostics maps the first diagnostic's kind to the driver's
// exit code; every diagnostic returned by a single Compile call carries
// the same kind, since the pipeline short-circuits at the first failing
// stage.
func exitCodeForDiagnostics(diags []diagnostics.Diagnostic) int {
	switch diags[0].Kind {
	case diagnostics.KindLexical:
		return exitLexError
	case diagnostics.KindSyntax:
		return exitParseError
	case diagnostics.KindSemantic:
		return exitSemaError
	case diagnostics.KindCodegen, diagnostics.KindAssembler:
		return exitCodegenError
	default:
		return exitIOError
	}
}
