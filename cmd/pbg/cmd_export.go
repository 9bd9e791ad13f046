package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sanonone/pbg/pkg/export"
	"github.com/spf13/cobra"
)

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	var write func(io.Writer, export.Graph, export.Options) error
	switch format {
	case "dot":
		write = export.WriteDOT
	case "datalog":
		write = export.WriteDatalog
	default:
		return fmt.Errorf("unknown export format %q (want dot or datalog)", format)
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := write(w, eng.Store(), export.Options{Subjects: args}); err != nil {
		return err
	}
	logger.Debug("Graph exported", "format", format, "subjects", len(args), "output", output)
	return nil
}
