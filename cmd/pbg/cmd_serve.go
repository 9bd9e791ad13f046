package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	pbgmcp "github.com/sanonone/pbg/internal/mcp"
	"github.com/sanonone/pbg/internal/server"
	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/hotspot"
	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("http-addr"); addr != "" {
		cfg.HTTPAddr = addr
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if !eng.Store().Frozen() {
		logger.Warn("Graph is not frozen, queries will be rejected until it is imported with --freeze")
	}

	srv, err := server.NewServer(eng, cfg, logger)
	if err != nil {
		return err
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-shutdownChan:
		srv.Shutdown()
		return <-errCh
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	s := pbgmcp.NewMCPServer(eng,
		debuginfo.NewTypeResolver(cfg.ResolverOptions()...),
		hotspot.NewAnalyzer(cfg.HotspotOptions()),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server running on stdio", "version", pbgmcp.Version)
	if err := s.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
