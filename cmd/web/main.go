package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/peterkuimelis/pillz/internal/config"
	pnet "github.com/peterkuimelis/pillz/internal/net"
	"github.com/peterkuimelis/pillz/internal/solver"
	"github.com/peterkuimelis/pillz/internal/store"
	"github.com/peterkuimelis/pillz/internal/web"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	port := flag.Int("port", 8080, "HTTP port to listen on")
	advice := flag.Bool("advice", true, "run the advisor after setups and moves")
	flag.Parse()

	if err := cfg.SetupLogging(os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cat, err := cfg.OpenCatalog()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	opts := []pnet.SessionOption{
		pnet.WithSolver(solver.New(solver.WithWorkers(cfg.Workers), solver.WithMetrics(solver.NewMetricsCollector()))),
		pnet.WithAutoAdvice(*advice),
		pnet.WithDefaults(cfg.Life, cfg.Pillz),
	}
	if cfg.DB != "" {
		st, err := store.Open(ctx, cfg.DB)
		if err != nil {
			config.Exitf("Error: %v", err)
		}
		defer st.Close()
		opts = append(opts, pnet.WithHistory(st))
	}

	srv := web.NewServer(pnet.NewSession(cat, opts...), cat,
		web.WithHandsFile(cfg.Hands),
		web.WithSetupAdvice(*advice),
	)

	addr := fmt.Sprintf(":%d", *port)
	zlog.Info().Msgf("pillz web endpoint on http://localhost:%d", *port)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
