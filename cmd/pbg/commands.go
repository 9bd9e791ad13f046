package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sanonone/pbg/internal/config"
	"github.com/sanonone/pbg/pkg/engine"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	dataDir    string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "pbg",
		Short: "Query program behaviour graphs built from debug info and memory traces",
		Long: `pbg loads relation triples and cache-miss traces into a persistent
property graph and runs the type, variable and miss hotspot analyses on it.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	importCmd = &cobra.Command{
		Use:   "import",
		Short: "Load triples and miss traces into the graph log",
		RunE:  runImport, // Defined in cmd_import.go
	}

	addCmd = &cobra.Command{
		Use:   "add <subject> <predicate> <object>",
		Short: "Add a single relation to the graph log",
		Args:  cobra.ExactArgs(3),
		RunE:  runAdd, // Defined in cmd_import.go
	}

	exportCmd = &cobra.Command{
		Use:   "export [subject...]",
		Short: "Write the graph, or the edges leaving the given vertices, as DOT or Datalog",
		RunE:  runExport, // Defined in cmd_export.go
	}

	varsCmd = &cobra.Command{
		Use:   "vars [function]",
		Short: "Print the variables of a function with their types and source lines",
		Args:  cobra.ExactArgs(1),
		RunE:  runVars, // Defined in cmd_query.go
	}

	hotspotCmd = &cobra.Command{
		Use:   "hotspot",
		Short: "Print the source line with the most cache misses",
		Args:  cobra.NoArgs,
		RunE:  runHotspot,
	}

	typeCmd = &cobra.Command{
		Use:   "type [type-id...]",
		Short: "Render type-id vertices as C type strings",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runType,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve queries and reports over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analyses as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Graph data directory (overrides data_dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log_level)")

	importCmd.Flags().StringSlice("triples", nil, "Triples files (subject<TAB>predicate<TAB>object), .gz accepted")
	importCmd.Flags().StringSlice("misses", nil, "Cache-miss CSV files (addr,target), .gz accepted")
	importCmd.Flags().Bool("no-header", false, "Miss files have no header line")
	importCmd.Flags().Bool("freeze", true, "Freeze the graph after importing")

	addCmd.Flags().Bool("freeze", false, "Freeze the graph after adding")

	exportCmd.Flags().StringP("format", "f", "dot", "Output format: dot or datalog")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	serveCmd.Flags().String("http-addr", "", "HTTP listen address (overrides http_addr)")

	rootCmd.AddCommand(importCmd, addCmd, exportCmd, varsCmd, hotspotCmd, typeCmd, serveCmd, mcpCmd)
}

// setup loads the configuration, applies flag overrides and installs the
// logger. Logs always go to stderr so that stdout only carries reports.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func openEngine() (*engine.Engine, error) {
	eng, err := engine.Open(cfg.EngineOptions(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open graph in %s: %w", cfg.DataDir, err)
	}
	return eng, nil
}
