package main

import (
	"context"
	"flag"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/peterkuimelis/pillz/internal/config"
	pillzmcp "github.com/peterkuimelis/pillz/internal/mcp"
	pnet "github.com/peterkuimelis/pillz/internal/net"
	"github.com/peterkuimelis/pillz/internal/solver"
	"github.com/peterkuimelis/pillz/internal/store"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	port := flag.String("port", "9999", "TCP port for human player connection, empty to disable")
	flag.Parse()

	// stdout carries the MCP protocol.
	if err := cfg.SetupLogging(os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}

	cat, err := cfg.OpenCatalog()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	opts := []pnet.SessionOption{
		pnet.WithSolver(solver.New(solver.WithWorkers(cfg.Workers), solver.WithMetrics(solver.NewMetricsCollector()))),
		pnet.WithDefaults(cfg.Life, cfg.Pillz),
	}
	if cfg.DB != "" {
		st, err := store.Open(context.Background(), cfg.DB)
		if err != nil {
			config.Exitf("Error: %v", err)
		}
		defer st.Close()
		opts = append(opts, pnet.WithHistory(st))
	}

	game := pillzmcp.NewGameSession(cat, pnet.NewSession(cat, opts...), *port)
	defer game.Close()

	s := server.NewMCPServer("pillz", "1.0.0", server.WithToolCapabilities(false))
	pillzmcp.RegisterTools(s, game)

	zlog.Info().Str("port", *port).Msg("pillz MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		config.Exitf("Error: %v", err)
	}
}
