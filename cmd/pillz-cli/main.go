package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/peterkuimelis/pillz/internal/config"
	"github.com/peterkuimelis/pillz/internal/game"
	pillzlog "github.com/peterkuimelis/pillz/internal/log"
	pnet "github.com/peterkuimelis/pillz/internal/net"
	"github.com/peterkuimelis/pillz/internal/replay"
	"github.com/peterkuimelis/pillz/internal/solver"
	"github.com/peterkuimelis/pillz/internal/store"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	if err := cfg.SetupLogging(os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "play":
		err = runPlay(ctx, cfg, args, false)
	case "host":
		err = runPlay(ctx, cfg, args, true)
	case "join":
		err = runJoin(ctx, cfg, args)
	case "solve":
		err = runSolve(cfg, args)
	case "replay":
		err = runReplay(ctx, cfg, args)
	case "history":
		err = runHistory(ctx, cfg, args)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		config.Exitf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  pillz play    [setup flags] [--advice]")
	fmt.Println("  pillz host    [setup flags] [--port P]")
	fmt.Println("  pillz join    [--addr ADDR]")
	fmt.Println("  pillz solve   [setup flags] [--moves \"0 2; 1 0 true\"] [--tree] [--verbose]")
	fmt.Println("  pillz replay  [--verbose] FILE | --export FILE")
	fmt.Println("  pillz history [--limit N]")
	fmt.Println()
	fmt.Println("Setup flags:")
	fmt.Println("  --cards \"A, B, C, D, E, F, G, H\"  player hand then opponent hand")
	fmt.Println("  --hand N --vs M                   hands from the hands file")
	fmt.Println("  --clans Junkz,Roots [--seed S]    random single-clan hands")
	fmt.Println("  --flip --life L --pillz P")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  play     Play both sides locally with the advisor")
	fmt.Println("  host     Start a game server and play the player side")
	fmt.Println("  join     Connect to a game server and play the opponent side")
	fmt.Println("  solve    Run the solver on a position")
	fmt.Println("  replay   Check recorded testcases against the engine")
	fmt.Println("  history  List recorded matches")
}

// --- Setup flags ---

type setupFlags struct {
	cards string
	clans string
	seed  uint64
	hand  int
	vs    int
	flip  bool
	life  int
	pillz int
}

func (f *setupFlags) register(fs *flag.FlagSet, cfg config.Config) {
	fs.StringVar(&f.cards, "cards", "", "eight comma-separated card names")
	fs.StringVar(&f.clans, "clans", "", "two comma-separated clans for random hands")
	fs.Uint64Var(&f.seed, "seed", uint64(time.Now().UnixNano()), "seed for random hands")
	fs.IntVar(&f.hand, "hand", 0, "player hand number from the hands file")
	fs.IntVar(&f.vs, "vs", 0, "opponent hand number from the hands file")
	fs.BoolVar(&f.flip, "flip", false, "opponent selects first in even rounds")
	fs.IntVar(&f.life, "life", cfg.Life, "starting life")
	fs.IntVar(&f.pillz, "pillz", cfg.Pillz, "starting pillz")
}

// given reports whether any hand source was named.
func (f *setupFlags) given() bool {
	return f.cards != "" || f.clans != "" || f.hand > 0
}

func (f *setupFlags) setup(cfg config.Config, cat *game.Catalog) (game.Setup, error) {
	var (
		s   game.Setup
		err error
	)
	switch {
	case f.cards != "":
		s, err = game.ParseSetup(strings.Split(f.cards, ","), f.flip)
	case f.hand > 0:
		s, err = handsSetup(cfg.Hands, f.hand, f.vs, f.flip)
	case f.clans != "":
		s, err = clanSetup(cat, f.clans, f.seed)
		if f.flip {
			s.Flip = 1
		}
	default:
		err = errors.New("no hands given: use --cards, --hand or --clans")
	}
	if err != nil {
		return s, err
	}
	s.Life, s.Pillz = f.life, f.pillz
	return s, nil
}

func handsSetup(path string, hand, vs int, flip bool) (game.Setup, error) {
	if vs == 0 {
		return game.Setup{}, errors.New("--hand needs --vs")
	}
	_, player, err := game.HandByNumber(path, hand)
	if err != nil {
		return game.Setup{}, fmt.Errorf("player hand: %w", err)
	}
	_, opponent, err := game.HandByNumber(path, vs)
	if err != nil {
		return game.Setup{}, fmt.Errorf("opponent hand: %w", err)
	}
	return game.ParseSetup(append(player[:], opponent[:]...), flip)
}

func clanSetup(cat *game.Catalog, clans string, seed uint64) (game.Setup, error) {
	parts := strings.Split(clans, ",")
	if len(parts) != 2 {
		return game.Setup{}, fmt.Errorf("--clans needs two clans, got %q", clans)
	}
	var pair [2]game.Clan
	for i, p := range parts {
		c, ok := game.ClanByName(strings.TrimSpace(p))
		if !ok {
			return game.Setup{}, fmt.Errorf("%w: %q", game.ErrUnknownClan, p)
		}
		pair[i] = c
	}
	return cat.RandomSetup(pair[0], pair[1], seed)
}

func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	if cfg.DB == "" {
		return nil, nil
	}
	return store.Open(ctx, cfg.DB)
}

// --- Commands ---

func runPlay(ctx context.Context, cfg config.Config, args []string, host bool) error {
	name := "play"
	if host {
		name = "host"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var sf setupFlags
	sf.register(fs, cfg)
	port := fs.String("port", cfg.Port, "TCP port to listen on")
	advice := fs.Bool("advice", !host, "run the advisor after every move")
	fs.Parse(args)

	cat, err := cfg.OpenCatalog()
	if err != nil {
		return err
	}

	opts := []pnet.SessionOption{
		pnet.WithSolver(solver.New(solver.WithWorkers(cfg.Workers), solver.WithMetrics(solver.NewMetricsCollector()))),
		pnet.WithAutoAdvice(*advice),
		pnet.WithDefaults(cfg.Life, cfg.Pillz),
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		opts = append(opts, pnet.WithHistory(st))
	}
	sess := pnet.NewSession(cat, opts...)

	if sf.given() {
		setup, err := sf.setup(cfg, cat)
		if err != nil {
			return err
		}
		if _, err := sess.Start(ctx, setup); err != nil {
			return err
		}
	}

	srv := pnet.NewServer(sess, *port)
	if host {
		return srv.Host(ctx, os.Stdin, os.Stdout)
	}
	return srv.Local(ctx, os.Stdin, os.Stdout)
}

func runJoin(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "server address to connect to")
	fs.Parse(args)

	return pnet.Connect(ctx, *addr, os.Stdin, os.Stdout)
}

func runSolve(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	var sf setupFlags
	sf.register(fs, cfg)
	moves := fs.String("moves", "", "selections to play first, separated by ';'")
	tree := fs.Bool("tree", false, "print the result tree (last two rounds only)")
	verbose := fs.Bool("verbose", false, "log battle events of the played moves")
	fs.Parse(args)

	cat, err := cfg.OpenCatalog()
	if err != nil {
		return err
	}
	setup, err := sf.setup(cfg, cat)
	if err != nil {
		return err
	}

	var logger pillzlog.EventLogger
	if *verbose {
		logger = pillzlog.NewTextLogger(os.Stdout)
	}
	m, err := game.NewMatchFromSetup(cat, setup, logger)
	if err != nil {
		return err
	}
	if *moves != "" {
		for _, text := range strings.Split(*moves, ";") {
			sel, err := game.ParseSelection(text)
			if err != nil {
				return err
			}
			if _, err := m.Play(sel); err != nil {
				return fmt.Errorf("move %q: %w", strings.TrimSpace(text), err)
			}
		}
	}
	m.SetLogger(nil)
	if m.Status().Over() {
		fmt.Printf("match over: %s\n", m.Status())
		return nil
	}

	s := solver.New(
		solver.WithWorkers(cfg.Workers),
		solver.WithReporter(solver.NewTextReporter(os.Stdout)),
		solver.WithMetrics(solver.NewMetricsCollector()),
	)
	fmt.Printf("round %d, %s to select\n", m.Round+1, m.Turn())

	switch {
	case *tree:
		if game.Rounds-m.Round > 2 {
			return fmt.Errorf("tree: %w", pnet.ErrTooEarly)
		}
		children := s.FillTreeABAB(m)
		solver.FormatTree(os.Stdout, children)
		best, worst, pct := solver.BestMoves(children)
		fmt.Printf("best %v worst %d (%.1f%%)\n", best, worst, pct)
	case m.Round == 0:
		s.Middle(m)
	default:
		res, metrics := s.Solve(m)
		fmt.Println(res)
		zlog.Info().Int64("battles", metrics.Battles).Dur("took", metrics.Duration).Msg("solved")
		if res.Outcome.LoserIs(m.Turn()) {
			s.Middle(m)
		}
	}
	return nil
}

func runReplay(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	export := fs.String("export", "", "write finished matches from the database to FILE")
	verbose := fs.Bool("verbose", false, "log every battle event at debug level")
	fs.Parse(args)

	if *export != "" {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		if st == nil {
			return errors.New("--export needs PILLZ_DB")
		}
		defer st.Close()
		cases, err := st.ExportTestcases(ctx)
		if err != nil {
			return err
		}
		if err := replay.Write(*export, cases); err != nil {
			return err
		}
		fmt.Printf("exported %d testcases to %s\n", len(cases), *export)
		return nil
	}

	if fs.NArg() != 1 {
		return errors.New("replay needs a testcase file")
	}
	cat, err := cfg.OpenCatalog()
	if err != nil {
		return err
	}
	cases, err := replay.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	var loggerFor func(int) pillzlog.EventLogger
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		loggerFor = func(i int) pillzlog.EventLogger {
			return pillzlog.NewZeroLogger(zlog.With().Int("case", i).Logger())
		}
	}
	rep := replay.RunAll(cat, cases, loggerFor)
	for _, f := range rep.Failures {
		fmt.Printf("testcase %d: %v\n", f.Index, f.Err)
	}
	fmt.Printf("%d passed, %d failed (%d mismatches)\n", rep.Passed, len(rep.Failures), rep.Mismatches())
	if len(rep.Failures) > 0 {
		return fmt.Errorf("%d testcases failed", len(rep.Failures))
	}
	return nil
}

func runHistory(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of matches to list")
	fs.Parse(args)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New("history needs PILLZ_DB")
	}
	defer st.Close()

	matches, err := st.ListMatches(ctx, *limit)
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Printf("%s  %s  %-8s rounds %d  %s\n",
			m.CreatedAt.Format(time.DateTime), m.ID, m.Status, m.Rounds, strings.Join(m.Setup.Cards[:], ", "))
	}
	return nil
}
