package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/engine"
	"solana-copy-engine/internal/notify"
	"solana-copy-engine/internal/observability"
	"solana-copy-engine/internal/solana"
	"solana-copy-engine/internal/storage"
	chstore "solana-copy-engine/internal/storage/clickhouse"
	"solana-copy-engine/internal/storage/memory"
	"solana-copy-engine/internal/storage/migrations"
	pgstore "solana-copy-engine/internal/storage/postgres"
	"solana-copy-engine/internal/wallet"
)

func main() {
	// Parse flags
	wsEndpoint := flag.String("ws-endpoint", "", "Chain-data provider WebSocket endpoint")
	rpcEndpoint := flag.String("rpc-endpoint", "", "Solana RPC HTTP endpoint")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (user records and usage ledger)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for the copy-result archive (empty to disable)")
	userID := flag.String("user-id", "", "User whose session to run")
	targets := flag.String("targets", "", "Comma-separated target wallets (overrides the user record's target)")
	percent := flag.Float64("percent", 10, "Copy size as a percentage of the target's trade")
	slippageBps := flag.Uint64("slippage-bps", 500, "Slippage tolerance in basis points")
	acceleratedRelay := flag.Bool("accelerated-relay", true, "Submit copy swaps via the priority relay")
	execTimeout := flag.Duration("exec-timeout", engine.DefaultExecTimeout, "Per-swap execution timeout")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	dryRun := flag.Bool("dry-run", false, "Record copy intents without executing swaps")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	envFile := flag.String("env-file", "", "Optional .env file with PRIVATE_KEY and TELEGRAM_BOT_TOKEN")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[monitor] ", log.LstdFlags|log.Lshortfile)

	// Secrets come from the environment, never flags
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logger.Fatalf("Load env file %s: %v", *envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if *userID == "" {
		logger.Fatal("--user-id is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	metrics := observability.NewMetrics("copy_engine")

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err := run(ctx, logger, metrics, options{
		wsEndpoint:       *wsEndpoint,
		rpcEndpoint:      *rpcEndpoint,
		postgresDSN:      *postgresDSN,
		clickhouseDSN:    *clickhouseDSN,
		userID:           *userID,
		targets:          splitTargets(*targets),
		percent:          *percent,
		slippageBps:      *slippageBps,
		acceleratedRelay: *acceleratedRelay,
		execTimeout:      *execTimeout,
		useMemory:        *useMemory,
		dryRun:           *dryRun,
	})

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type options struct {
	wsEndpoint       string
	rpcEndpoint      string
	postgresDSN      string
	clickhouseDSN    string
	userID           string
	targets          []string
	percent          float64
	slippageBps      uint64
	acceleratedRelay bool
	execTimeout      time.Duration
	useMemory        bool
	dryRun           bool
}

func run(ctx context.Context, logger *log.Logger, metrics *observability.Metrics, opts options) error {
	// Wallet
	privateKey := os.Getenv("PRIVATE_KEY")
	if privateKey == "" && !opts.dryRun {
		return fmt.Errorf("PRIVATE_KEY environment variable is required (or use --dry-run)")
	}

	var walletPubkey string
	if privateKey != "" {
		kp, err := wallet.FromBase58(privateKey)
		if err != nil {
			return fmt.Errorf("import wallet: %w", err)
		}
		walletPubkey = kp.Pubkey()
		logger.Printf("Wallet imported: %s", walletPubkey)
	}

	// Stores (use interfaces)
	var userStore storage.UserStore = memory.NewUserStore()
	var resultStore storage.CopyResultStore

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		userStore = pgstore.NewUserStore(pool)
	}

	if opts.clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()
		resultStore = chstore.NewCopyResultStore(conn)
	}

	// Resolve the user record; create it on first run so the usage ledger
	// has a row to increment.
	targets, err := resolveTargets(ctx, userStore, opts.userID, opts.targets, walletPubkey)
	if err != nil {
		return err
	}
	for _, target := range targets {
		if err := wallet.ValidateAddress(target); err != nil {
			return fmt.Errorf("target %s: %w", target, err)
		}
	}
	logger.Printf("Copying targets: %v", targets)

	// Optional RPC balance check, informational only
	if opts.rpcEndpoint != "" && walletPubkey != "" {
		rpc := solana.NewHTTPClient(opts.rpcEndpoint)
		if lamports, err := rpc.GetBalance(ctx, walletPubkey); err != nil {
			logger.Printf("Balance check failed: %v", err)
		} else {
			logger.Printf("Wallet balance: %.6f SOL", domain.LamportsToSOL(lamports))
		}
	}

	// Notification sink
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		notifier = notify.NewTelegramNotifier(token)
		logger.Println("Telegram notifications enabled")
	}

	// Swap executor
	var executor engine.SwapExecutor = engine.NewDryRunExecutor(logger)
	if !opts.dryRun {
		logger.Println("WARNING: live execution not wired to a swap provider, running dry")
	}

	session := &domain.SessionContext{
		UserID:              opts.userID,
		WSEndpoint:          opts.wsEndpoint,
		WalletPubkey:        walletPubkey,
		TokenPercent:        opts.percent,
		SlippageBps:         opts.slippageBps,
		Targets:             targets,
		UseAcceleratedRelay: opts.acceleratedRelay,
	}

	dispatcher := engine.NewDispatcher(engine.DispatcherOptions{
		Executor:    executor,
		Ledger:      userStore,
		Notifier:    notifier,
		Results:     resultStore,
		Metrics:     metrics,
		ExecTimeout: opts.execTimeout,
		Logger:      logger,
	})
	defer dispatcher.Wait()

	filter := solana.TransactionFilter{
		AccountInclude: []string{solana.PumpFunProgram},
		AccountExclude: []string{solana.JupiterAggregatorV6},
	}

	stream, err := solana.Connect(ctx, opts.wsEndpoint, filter, nil)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}

	monitor := engine.NewMonitor(engine.MonitorOptions{
		Stream:     stream,
		Registry:   engine.NewRegistry(targets),
		Dispatcher: dispatcher,
		Session:    session,
		Metrics:    metrics,
		Logger:     logger,
	})

	// Connection loss ends the process: restart is an explicit external
	// action (process supervisor), never hidden reconnection.
	if err := monitor.Run(ctx); err != nil {
		notifyOperator(notifier, session.UserID,
			fmt.Sprintf("Session ended: %v. Restart the monitor to resume copying.", err))
		return err
	}
	return nil
}

// notifyOperator delivers a session-level status line with its own timeout.
func notifyOperator(notifier notify.Notifier, userID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = notifier.Notify(ctx, userID, message)
}

// resolveTargets loads or creates the user record and returns the session's
// target list. Explicit --targets wins and is persisted to the record.
func resolveTargets(ctx context.Context, store storage.UserStore, userID string, explicit []string, walletPubkey string) ([]string, error) {
	record, err := store.GetByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		if len(explicit) == 0 {
			return nil, fmt.Errorf("user %s has no record; pass --targets to create one", userID)
		}
		record = &domain.UserRecord{
			UserID:        userID,
			TargetAddress: explicit[0],
			WalletPubkey:  walletPubkey,
			QuotaLimit:    domain.DefaultQuotaLimit,
			CreatedAt:     time.Now().UnixMilli(),
		}
		if err := store.Insert(ctx, record); err != nil {
			return nil, fmt.Errorf("create user record: %w", err)
		}
		return explicit, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user record: %w", err)
	}

	if len(explicit) > 0 {
		if record.TargetAddress != explicit[0] {
			if err := store.SetTargetAddress(ctx, userID, explicit[0]); err != nil {
				return nil, fmt.Errorf("update target address: %w", err)
			}
		}
		return explicit, nil
	}
	if record.TargetAddress == "" {
		return nil, fmt.Errorf("user %s has no target address configured", userID)
	}
	return []string{record.TargetAddress}, nil
}

func splitTargets(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
