// ABOUTME: Entry point for the p2pclaw cleanup CLI
// ABOUTME: Sweeps, seeds, watches and republishes papers across the research mesh

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/config"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/gateway"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/ledger"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/mesh"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/paper"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/republish"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/sweep"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
        ___             _
  _ __ |_  ) _ __   ___| | __ ___      __
 | '_ \ / /  '_ \ / __| |/ _' \ \ /\ / /
 | |_) /___| |_) | (__| | (_| |\ V  V /
 | .__/    | .__/ \___|_|\__,_| \_/\_/
 |_|       |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "sweep":
		err = runSweep(ctx)
	case "watch":
		err = runWatch(ctx)
	case "seed":
		err = runSeed(ctx)
	case "republish":
		err = runRepublish(ctx)
	case "ledger":
		err = runLedger(ctx)
	case "health":
		err = runHealth(ctx)
	case "init":
		err = runInit()
	case "version":
		fmt.Printf("p2pclaw-cleanup %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: p2pclaw-cleanup <command> [flags]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  sweep       Scan a collection and tombstone matching papers")
	fmt.Println("  watch       Stream a collection's deliveries to the terminal")
	fmt.Println("  seed        Write papers from a TOML file into the mesh")
	fmt.Println("  republish   Normalize and re-post papers through the gateway")
	fmt.Println("  ledger      Show journaled runs and purges")
	fmt.Println("  health      Check gateway reachability")
	fmt.Println("  init        Create a config file interactively")
	fmt.Println("  version     Print the version")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  P2PCLAW_CONFIG   Config file path (default: ~/.config/p2pclaw/p2pclaw.yaml)")
	fmt.Println()
	fmt.Println("Run 'p2pclaw-cleanup <command> --help' for command flags.")
}

func runSweep(ctx context.Context) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	titlePrefix := fs.String("title-prefix", "", "tombstone papers whose title contains this text")
	author := fs.String("author", "", "tombstone papers whose author contains this text")
	window := fs.Duration("window", 0, "how long to scan before stopping (e.g. 30s)")
	collection := fs.String("collection", "", "collection to scan")
	mempoolCollection := fs.String("mempool-collection", "", "companion collection to tombstone")
	dryRun := fs.Bool("dry-run", false, "log matches without writing tombstones")
	noLedger := fs.Bool("no-ledger", false, "do not journal the run")
	fs.Parse(os.Args[2:])

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}

	// Flag overrides
	if *titlePrefix != "" {
		cfg.Sweep.TitlePrefix = *titlePrefix
	}
	if *author != "" {
		cfg.Sweep.Author = *author
	}
	if *window > 0 {
		cfg.Sweep.Window = *window
	}
	if *collection != "" {
		cfg.Sweep.Collection = *collection
	}
	if *mempoolCollection != "" {
		cfg.Sweep.MempoolCollection = *mempoolCollection
	}

	match := paper.Matcher{TitlePrefix: cfg.Sweep.TitlePrefix, Author: cfg.Sweep.Author}
	if match.Empty() {
		return fmt.Errorf("no match criteria: set sweep.title_prefix or sweep.author, or pass --title-prefix/--author")
	}
	if len(cfg.Mesh.Peers) == 0 {
		return fmt.Errorf("no mesh peers configured: set mesh.peers, or run 'p2pclaw-cleanup init'")
	}

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Peers:      %d configured\n", len(cfg.Mesh.Peers))
	green.Print("    ▶ ")
	fmt.Printf("Collection: %s (mempool: %s)\n", cfg.Sweep.Collection, cfg.Sweep.MempoolCollection)
	if cfg.Sweep.TitlePrefix != "" {
		green.Print("    ▶ ")
		fmt.Printf("Title:      contains %q\n", cfg.Sweep.TitlePrefix)
	}
	if cfg.Sweep.Author != "" {
		green.Print("    ▶ ")
		fmt.Printf("Author:     contains %q\n", cfg.Sweep.Author)
	}
	green.Print("    ▶ ")
	fmt.Printf("Window:     %s\n", cfg.Sweep.Window)
	if *dryRun {
		yellow.Print("    ▶ ")
		fmt.Println("Dry run:    no tombstones will be written")
	}
	fmt.Println()

	// Journal is best-effort: a broken ledger never stops a sweep.
	var (
		led   *ledger.Ledger
		runID string
	)
	if !*noLedger && cfg.Ledger.Path != "" {
		led, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			logger.Warn("ledger unavailable, continuing without journal", "error", err)
			led = nil
		} else {
			defer led.Close()
			rec := &ledger.RunRecord{
				Window:      cfg.Sweep.Window,
				TitlePrefix: cfg.Sweep.TitlePrefix,
				Author:      cfg.Sweep.Author,
			}
			if err := led.StartRun(ctx, rec); err != nil {
				logger.Warn("could not journal run start", "error", err)
				led = nil
			} else {
				runID = rec.ID
			}
		}
	}

	client := mesh.NewClient(mesh.Config{
		Peers:            cfg.Mesh.Peers,
		HandshakeTimeout: cfg.Mesh.HandshakeTimeout,
	}, logger.With("component", "mesh"))
	if err := client.Connect(ctx); err != nil {
		// A dead mesh is not fatal: the run still waits out its window
		// and reports zero matches.
		logger.Warn("mesh connect failed, run will report zero matches", "error", err)
	}
	defer client.Close()

	var recorder sweep.Recorder
	if led != nil {
		journal := led
		recorder = sweep.RecorderFunc(func(paperID, title, author, reason string) error {
			return journal.RecordPurge(ctx, &ledger.PurgeRecord{
				RunID:   runID,
				PaperID: paperID,
				Title:   title,
				Author:  author,
				Reason:  reason,
			})
		})
	}

	sweeper := sweep.NewSweeper(sweep.SweeperConfig{
		Match:             match,
		PapersCollection:  cfg.Sweep.Collection,
		MempoolCollection: cfg.Sweep.MempoolCollection,
		DryRun:            *dryRun,
	}, client, recorder, logger.With("component", "sweep"))

	runner := sweep.NewRunner(sweep.RunConfig{
		Collection: cfg.Sweep.Collection,
		Window:     cfg.Sweep.Window,
	}, client, sweeper, clock.WallClock, logger.With("component", "sweep"))

	matched := runner.Run(ctx)

	if led != nil {
		// ctx may already be canceled when the run was interrupted; give
		// the journal its own deadline to finalize the row.
		finCtx, finCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := led.FinishRun(finCtx, runID, matched); err != nil {
			logger.Warn("could not journal run finish", "error", err)
		}
		finCancel()
	}

	fmt.Println()
	green.Print("  ✓ ")
	fmt.Printf("Sweep complete: %d matched\n", matched)
	return nil
}

func runWatch(ctx context.Context) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	collection := fs.String("collection", "", "collection to watch")
	window := fs.Duration("window", 0, "stop after this long (default: run until interrupted)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	if *collection != "" {
		cfg.Sweep.Collection = *collection
	}
	if len(cfg.Mesh.Peers) == 0 {
		return fmt.Errorf("no mesh peers configured: set mesh.peers, or run 'p2pclaw-cleanup init'")
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	client := mesh.NewClient(mesh.Config{
		Peers:            cfg.Mesh.Peers,
		HandshakeTimeout: cfg.Mesh.HandshakeTimeout,
	}, logger.With("component", "mesh"))
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to mesh: %w", err)
	}
	defer client.Close()

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	cyan.Printf("  Watching %s", cfg.Sweep.Collection)
	if *window > 0 {
		gray.Printf(" for %s", *window)
	}
	fmt.Println()
	fmt.Println()

	// Deliveries arrive from per-peer read loops; serialize the output.
	var mu sync.Mutex
	seen := 0
	err = client.Subscribe(ctx, cfg.Sweep.Collection, func(id string, fields map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		seen++

		if fields == nil {
			gray.Printf("  ~ %-20s (announce only)\n", truncate(id, 20))
			return
		}

		p := paper.FromFields(fields)
		status := p.Status
		if status == "" {
			status = "-"
		}
		statusCol := gray
		switch p.Status {
		case paper.StatusVerified:
			statusCol = green
		case paper.StatusMempool, paper.StatusUnverified:
			statusCol = yellow
		case paper.StatusPurged, paper.StatusRejected:
			statusCol = red
		}

		fmt.Print("  ")
		statusCol.Printf("%-10s", status)
		fmt.Printf(" %-20s %-44s %s\n",
			truncate(id, 20), truncate(p.Title, 44), truncate(p.Author, 24))
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", cfg.Sweep.Collection, err)
	}

	if *window > 0 {
		select {
		case <-time.After(*window):
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}

	mu.Lock()
	n := seen
	mu.Unlock()

	fmt.Println()
	green.Print("  ✓ ")
	fmt.Printf("Watched %d deliveries\n", n)
	return nil
}

// seedFile is the TOML shape consumed by the seed command.
type seedFile struct {
	Papers []seedPaper `toml:"papers"`
}

type seedPaper struct {
	ID      string `toml:"id"`
	Title   string `toml:"title"`
	Author  string `toml:"author"`
	Content string `toml:"content"`
	Status  string `toml:"status"`
	Tier    string `toml:"tier"`
}

func runSeed(ctx context.Context) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	file := fs.String("file", "", "TOML file with [[papers]] entries (required)")
	collection := fs.String("collection", "", "collection to write into")
	viaGateway := fs.Bool("gateway", false, "publish through the HTTP gateway instead of the mesh")
	fs.Parse(os.Args[2:])

	if *file == "" {
		return fmt.Errorf("--file is required")
	}
	papers, err := loadSeedFile(*file)
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)

	if *viaGateway {
		if cfg.Gateway.BaseURL == "" {
			return fmt.Errorf("gateway.base_url is not configured")
		}
		gw := gateway.New(gateway.Config{
			BaseURL: cfg.Gateway.BaseURL,
			AgentID: cfg.Gateway.AgentID,
			Timeout: cfg.Gateway.Timeout,
		}, logger.With("component", "gateway"))

		for _, p := range papers {
			res, err := gw.PublishPaper(ctx, p.Title, p.Content, p.Author)
			if err != nil {
				return fmt.Errorf("publishing %q: %w", p.Title, err)
			}
			green.Print("  ✓ ")
			fmt.Printf("Published: %s (%s)\n", truncate(p.Title, 50), res.PaperID)
		}
		return nil
	}

	if len(cfg.Mesh.Peers) == 0 {
		return fmt.Errorf("no mesh peers configured: set mesh.peers, or run 'p2pclaw-cleanup init'")
	}
	client := mesh.NewClient(mesh.Config{
		Peers:            cfg.Mesh.Peers,
		HandshakeTimeout: cfg.Mesh.HandshakeTimeout,
	}, logger.With("component", "mesh"))
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to mesh: %w", err)
	}
	defer client.Close()

	coll := *collection
	if coll == "" {
		coll = cfg.Sweep.Collection
	}

	for _, p := range papers {
		client.MergeWrite(coll, p.ID, p.Fields())
		green.Print("  ✓ ")
		fmt.Printf("Seeded: %s %s\n", truncate(p.ID, 20), truncate(p.Title, 50))
	}

	// Merge-writes are fire-and-forget; give the peer write loops a
	// moment to drain before the sockets close.
	time.Sleep(time.Second)
	return nil
}

func loadSeedFile(path string) ([]paper.Paper, error) {
	var doc seedFile
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if len(doc.Papers) == 0 {
		return nil, fmt.Errorf("seed file %s has no [[papers]] entries", path)
	}

	papers := make([]paper.Paper, 0, len(doc.Papers))
	for _, sp := range doc.Papers {
		p := paper.Paper{
			ID:      sp.ID,
			Title:   sp.Title,
			Author:  sp.Author,
			Content: sp.Content,
			Status:  sp.Status,
			Tier:    sp.Tier,
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.Status == "" {
			p.Status = paper.StatusMempool
		}
		if p.Timestamp == 0 {
			p.Timestamp = time.Now().UnixMilli()
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func runRepublish(ctx context.Context) error {
	fs := flag.NewFlagSet("republish", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	gatewayURL := fs.String("gateway", "", "gateway base URL (overrides config)")
	limit := fs.Int("limit", 0, "papers to fetch (overrides config)")
	dryRun := fs.Bool("dry-run", false, "log what would be republished without posting")
	fs.Parse(os.Args[2:])

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	if *gatewayURL != "" {
		cfg.Gateway.BaseURL = *gatewayURL
	}
	if *limit > 0 {
		cfg.Republish.Limit = *limit
	}
	if cfg.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is not configured: set it or pass --gateway")
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		AgentID: cfg.Gateway.AgentID,
		Timeout: cfg.Gateway.Timeout,
	}, logger.With("component", "gateway"))

	rep := republish.New(republish.Config{
		Limit:         cfg.Republish.Limit,
		Interval:      cfg.Republish.Interval,
		MinContentLen: cfg.Republish.MinContentLen,
		SkipIDs:       cfg.Republish.SkipIDs,
		AuthorTag:     cfg.Republish.AuthorTag,
		DryRun:        *dryRun,
	}, gw, logger.With("component", "republish"))

	stats, err := rep.Run(ctx)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	fmt.Println()
	green.Print("  ✓ ")
	fmt.Printf("Republish complete: %d seen, %d published, %d skipped, %d failed\n",
		stats.Seen, stats.Published, stats.Skipped, stats.Failed)
	return nil
}

func runLedger(ctx context.Context) error {
	// Default to listing runs
	args := os.Args[2:]
	subcmd := "runs"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		subcmd = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("ledger", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	limit := fs.Int("limit", 20, "rows to show")
	runID := fs.String("run", "", "filter purges by run id")
	fs.Parse(args)

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	if cfg.Ledger.Path == "" {
		return fmt.Errorf("ledger is disabled (ledger.path is empty)")
	}

	led, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer led.Close()

	switch subcmd {
	case "runs":
		return printRuns(ctx, led, *limit)
	case "purges":
		return printPurges(ctx, led, *runID, *limit)
	default:
		return fmt.Errorf("unknown ledger subcommand: %s (use runs, purges)", subcmd)
	}
}

func printRuns(ctx context.Context, led *ledger.Ledger, limit int) error {
	runs, err := led.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Sweep Runs")
	cyan.Println("  ----------")

	if len(runs) == 0 {
		fmt.Println("  (no runs journaled)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  RUN\tSTARTED\tWINDOW\tMATCHED\tCRITERIA\tSTATE")
	fmt.Fprintln(w, "  ---\t-------\t------\t-------\t--------\t-----")

	for _, r := range runs {
		state := "open"
		if r.FinishedAt != nil {
			state = "finished"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%s\t%s\n",
			truncate(r.ID, 12),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Window,
			r.Matched,
			truncate(describeCriteria(r.TitlePrefix, r.Author), 44),
			state)
	}
	w.Flush()
	fmt.Println()
	return nil
}

func printPurges(ctx context.Context, led *ledger.Ledger, runID string, limit int) error {
	purges, err := led.ListPurges(ctx, runID, limit)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Tombstoned Papers")
	cyan.Println("  -----------------")

	if len(purges) == 0 {
		fmt.Println("  (no purges journaled)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  PAPER\tTITLE\tAUTHOR\tREASON\tWHEN\tRUN")
	fmt.Fprintln(w, "  -----\t-----\t------\t------\t----\t---")

	for _, p := range purges {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(p.PaperID, 16),
			truncate(p.Title, 36),
			truncate(p.Author, 20),
			truncate(p.Reason, 28),
			p.Timestamp.Local().Format("2006-01-02 15:04:05"),
			truncate(p.RunID, 12))
	}
	w.Flush()
	fmt.Println()
	return nil
}

func describeCriteria(titlePrefix, author string) string {
	var parts []string
	if titlePrefix != "" {
		parts = append(parts, fmt.Sprintf("title~%q", titlePrefix))
	}
	if author != "" {
		parts = append(parts, fmt.Sprintf("author~%q", author))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func runHealth(ctx context.Context) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	gatewayURL := fs.String("gateway", "", "gateway base URL (overrides config)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	if *gatewayURL != "" {
		cfg.Gateway.BaseURL = *gatewayURL
	}
	if cfg.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is not configured: set it or pass --gateway")
	}

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
	}, slog.Default())

	if err := gw.Health(ctx); err != nil {
		return err
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("p2pclaw-cleanup configuration setup")
	fmt.Println("===================================")
	fmt.Println()

	defaultConfigPath := config.DefaultPath()
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Mesh configuration
	fmt.Println("\n--- Mesh Configuration ---")
	peersRaw := prompt(reader, "Bootstrap peers (comma-separated URLs)", "http://127.0.0.1:8765/gun")

	// Sweep configuration
	fmt.Println("\n--- Sweep Configuration ---")
	titlePrefix := prompt(reader, "Title criterion (substring, empty to skip)", "")
	author := prompt(reader, "Author criterion (substring, empty to skip)", "")
	window := prompt(reader, "Sweep window", "30s")

	// Gateway
	fmt.Println("\n--- Gateway Configuration ---")
	gatewayURL := prompt(reader, "Gateway base URL (empty to skip)", "http://127.0.0.1:8765")

	// Ledger
	fmt.Println("\n--- Ledger Configuration ---")
	ledgerPath := prompt(reader, "Run journal path (empty to disable)", config.DefaultConfig().Ledger.Path)

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (color/text/json)", "color")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# p2pclaw-cleanup configuration\n")
	cfg.WriteString("# Generated by p2pclaw-cleanup init\n\n")

	cfg.WriteString("mesh:\n")
	cfg.WriteString("  peers:\n")
	for _, p := range strings.Split(peersRaw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			cfg.WriteString(fmt.Sprintf("    - \"%s\"\n", p))
		}
	}
	cfg.WriteString("  handshake_timeout: \"10s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("sweep:\n")
	cfg.WriteString("  collection: \"papers\"\n")
	cfg.WriteString("  mempool_collection: \"mempool\"\n")
	if titlePrefix != "" {
		cfg.WriteString(fmt.Sprintf("  title_prefix: \"%s\"\n", titlePrefix))
	}
	if author != "" {
		cfg.WriteString(fmt.Sprintf("  author: \"%s\"\n", author))
	}
	cfg.WriteString(fmt.Sprintf("  window: \"%s\"\n", window))
	cfg.WriteString("\n")

	if gatewayURL != "" {
		cfg.WriteString("gateway:\n")
		cfg.WriteString(fmt.Sprintf("  base_url: \"%s\"\n", gatewayURL))
		cfg.WriteString("  timeout: \"15s\"\n")
		cfg.WriteString("\n")
	}

	cfg.WriteString("republish:\n")
	cfg.WriteString("  limit: 20\n")
	cfg.WriteString("  interval: \"1500ms\"\n")
	cfg.WriteString("  min_content_len: 200\n")
	cfg.WriteString("  skip_ids: []\n")
	cfg.WriteString("\n")

	cfg.WriteString("ledger:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", ledgerPath))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo run a sweep:")
	fmt.Printf("  p2pclaw-cleanup sweep --title-prefix \"Decentralized Peer Review\"\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
