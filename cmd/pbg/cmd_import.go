package main

import (
	"fmt"
	"io"

	"github.com/sanonone/pbg/internal/importer"
	"github.com/spf13/cobra"
)

func runImport(cmd *cobra.Command, args []string) error {
	triples, _ := cmd.Flags().GetStringSlice("triples")
	misses, _ := cmd.Flags().GetStringSlice("misses")
	noHeader, _ := cmd.Flags().GetBool("no-header")
	freeze, _ := cmd.Flags().GetBool("freeze")

	if len(triples) == 0 && len(misses) == 0 && !freeze {
		return fmt.Errorf("nothing to import: pass --triples and/or --misses")
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	hot := cfg.HotspotOptions()

	for _, path := range triples {
		if err := importFile(path, func(r io.Reader) (importer.Stats, error) {
			return importer.ImportTriples(r, eng, importer.TripleOptions{
				PropertyPredicates: cfg.Import.PropertyPredicates,
				IndexedPredicates:  cfg.Import.IndexedPredicates,
			})
		}); err != nil {
			return err
		}
	}

	for _, path := range misses {
		if err := importFile(path, func(r io.Reader) (importer.Stats, error) {
			return importer.ImportMisses(r, eng, importer.MissOptions{
				Header: !noHeader,
				Label:  hot.MissLabel,
			})
		}); err != nil {
			return err
		}
	}

	if err := eng.Flush(); err != nil {
		return err
	}
	if freeze {
		if err := eng.Freeze(); err != nil {
			return err
		}
	}

	stats := eng.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%d vertices, %d edges, %d properties\n", stats.Vertices, stats.Edges, stats.Properties)
	return nil
}

func importFile(path string, load func(io.Reader) (importer.Stats, error)) error {
	rc, err := importer.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	stats, err := load(rc)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	logger.Info("Imported file",
		"path", path,
		"lines", stats.Lines,
		"relations", stats.Relations,
		"properties", stats.Properties,
		"skipped", stats.Skipped,
	)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	freeze, _ := cmd.Flags().GetBool("freeze")

	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.AddRelation(args[0], args[1], args[2]); err != nil {
		return fmt.Errorf("add %s %s %s: %w", args[0], args[1], args[2], err)
	}
	if freeze {
		return eng.Freeze()
	}
	return eng.Flush()
}
