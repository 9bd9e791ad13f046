package main

import (
	"fmt"

	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/hotspot"
	"github.com/spf13/cobra"
)

func runVars(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	sess := eng.NewSession()
	resolver := debuginfo.NewTypeResolver(cfg.ResolverOptions()...)
	if _, err := resolver.VariableReport(cmd.Context(), sess, args[0]); err != nil {
		return err
	}
	_, err = sess.Output().WriteTo(cmd.OutOrStdout())
	return err
}

func runHotspot(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	sess := eng.NewSession()
	if _, err := hotspot.NewAnalyzer(cfg.HotspotOptions()).Report(cmd.Context(), sess); err != nil {
		return err
	}
	_, err = sess.Output().WriteTo(cmd.OutOrStdout())
	return err
}

func runType(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	sess := eng.NewSession()
	resolver := debuginfo.NewTypeResolver(cfg.ResolverOptions()...)
	for _, typeID := range args {
		name, err := resolver.Resolve(sess, typeID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", typeID, name)
	}
	return nil
}
