package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/syncd/pkg/admin"
	"github.com/cuemby/syncd/pkg/config"
	"github.com/cuemby/syncd/pkg/events"
	"github.com/cuemby/syncd/pkg/health"
	"github.com/cuemby/syncd/pkg/log"
	"github.com/cuemby/syncd/pkg/metrics"
	"github.com/cuemby/syncd/pkg/reconciler"
	"github.com/cuemby/syncd/pkg/scheduler"
	"github.com/cuemby/syncd/pkg/snapshot"
	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/sync"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "syncd",
	Short:   "syncd keeps customers, orders, products, prices, delivery notes, and invoices synchronized from the upstream app",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("syncd version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "syncd.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(settingsCmd)

	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncForceCmd)
	syncRunCmd.Flags().String("user", "", "Tenant user ID (required for customers/orders/ddt/invoices)")
	syncForceCmd.Flags().String("user", "", "Tenant user ID (required for customers/orders/ddt/invoices)")

	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetIntervalCmd)
	settingsCmd.AddCommand(settingsEnableCmd)
	settingsCmd.AddCommand(settingsDisableCmd)
}

// buildAdmin wires a store, a scheduler with one PipelineRunner per
// sync kind bound to the local-filesystem snapshot adapter, and the
// admin façade over both — the shared bootstrap every subcommand uses.
func buildAdmin(ctx context.Context) (*admin.Service, *store.Store, *events.Broker, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.Default()
		log.Logger.Warn().Err(err).Str("path", configPath).Msg("using default config")
	}
	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

	st, err := store.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()

	listener := reconciler.NewListener(broker)
	listener.Start()

	downloader := snapshot.NewFileDownloader(cfg.SnapshotDir)

	deps := sync.Deps{
		CleanupFile: snapshot.Cleanup,
		Now:         time.Now,
		Publish:     broker.Publish,
	}

	runners := map[types.SyncKind]scheduler.PipelineRunner{
		types.SyncCustomers: bindCustomers(deps, st, downloader),
		types.SyncOrders:    bindOrders(deps, st, downloader),
		types.SyncProducts:  bindProducts(deps, st, downloader),
		types.SyncPrices:    bindPrices(deps, st, downloader),
		types.SyncDDT:       bindDDT(deps, st, downloader),
		types.SyncInvoices:  bindInvoices(deps, st, downloader),
	}

	sched := scheduler.NewScheduler(scheduler.Config{Store: st, Runners: runners})
	svc := admin.New(sched, st)

	cleanup := func() {
		listener.Stop()
		broker.Stop()
		st.Close()
	}
	return svc, st, broker, cleanup, nil
}

func bindCustomers(deps sync.Deps, st *store.Store, dl *snapshot.FileDownloader) scheduler.PipelineRunner {
	cstore := sync.NewCustomerStore(st)
	deps.DownloadSnapshot = dl.Download(types.SyncCustomers)
	return func(ctx context.Context, userID string, progress sync.ProgressFunc, stop sync.StopFunc) *sync.Result {
		d := deps
		d.SyncSessionID = uuid.NewString()
		return sync.RunCustomers(ctx, d, cstore, snapshot.ParseCustomers, userID, progress, stop)
	}
}

func bindOrders(deps sync.Deps, st *store.Store, dl *snapshot.FileDownloader) scheduler.PipelineRunner {
	ostore := sync.NewOrderStore(st)
	deps.DownloadSnapshot = dl.Download(types.SyncOrders)
	return func(ctx context.Context, userID string, progress sync.ProgressFunc, stop sync.StopFunc) *sync.Result {
		d := deps
		d.SyncSessionID = uuid.NewString()
		return sync.RunOrders(ctx, d, ostore, snapshot.ParseOrders, userID, progress, stop)
	}
}

func bindProducts(deps sync.Deps, st *store.Store, dl *snapshot.FileDownloader) scheduler.PipelineRunner {
	pstore := sync.NewProductStore(st)
	deps.DownloadSnapshot = dl.Download(types.SyncProducts)
	return func(ctx context.Context, userID string, progress sync.ProgressFunc, stop sync.StopFunc) *sync.Result {
		d := deps
		d.SyncSessionID = uuid.NewString()
		return sync.RunProducts(ctx, d, pstore, snapshot.ParseProducts, progress, stop)
	}
}

func bindPrices(deps sync.Deps, st *store.Store, dl *snapshot.FileDownloader) scheduler.PipelineRunner {
	prstore := sync.NewPriceStore(st)
	deps.DownloadSnapshot = dl.Download(types.SyncPrices)
	return func(ctx context.Context, userID string, progress sync.ProgressFunc, stop sync.StopFunc) *sync.Result {
		d := deps
		d.SyncSessionID = uuid.NewString()
		return sync.RunPrices(ctx, d, prstore, snapshot.ParsePrices, progress, stop)
	}
}

func bindDDT(deps sync.Deps, st *store.Store, dl *snapshot.FileDownloader) scheduler.PipelineRunner {
	dstore := sync.NewDDTStore(st)
	deps.DownloadSnapshot = dl.Download(types.SyncDDT)
	return func(ctx context.Context, userID string, progress sync.ProgressFunc, stop sync.StopFunc) *sync.Result {
		d := deps
		d.SyncSessionID = uuid.NewString()
		return sync.RunDDT(ctx, d, dstore, snapshot.ParseDDT, userID, progress, stop)
	}
}

func bindInvoices(deps sync.Deps, st *store.Store, dl *snapshot.FileDownloader) scheduler.PipelineRunner {
	istore := sync.NewInvoiceStore(st)
	deps.DownloadSnapshot = dl.Download(types.SyncInvoices)
	return func(ctx context.Context, userID string, progress sync.ProgressFunc, stop sync.StopFunc) *sync.Result {
		d := deps
		d.SyncSessionID = uuid.NewString()
		return sync.RunInvoices(ctx, d, istore, snapshot.ParseInvoices, userID, progress, stop)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler and the metrics/health HTTP endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		svc, st, _, cleanup, err := buildAdmin(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.StartScheduler(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}

		cfg, _ := config.Load(configPath)
		if cfg.Postgres == "" {
			cfg = config.Default()
		}

		metrics.SetVersion(Version)
		metrics.RegisterComponent("scheduler", true, "running")

		pgChecker := health.NewPostgresChecker(st)
		pgStatus := health.NewStatus()
		pgConfig := health.DefaultConfig()
		go runHealthLoop(ctx, pgChecker, pgStatus, pgConfig)

		go func() {
			http.Handle("/metrics", metrics.Handler())
			http.Handle("/health", metrics.HealthHandler())
			http.Handle("/ready", metrics.ReadyHandler())
			http.Handle("/live", metrics.LivenessHandler())
			if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
				log.Logger.Error().Err(err).Msg("metrics server error")
			}
		}()
		fmt.Printf("syncd running. metrics at http://%s/metrics\n", cfg.MetricsAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("shutting down...")
		svc.StopScheduler()
		cancel()
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Trigger sync runs directly, outside the scheduler's interval",
}

var syncRunCmd = &cobra.Command{
	Use:   "run <kind>",
	Short: "Run one manual full sync for a kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := types.SyncKind(args[0])
		userID, _ := cmd.Flags().GetString("user")

		ctx := context.Background()
		svc, _, _, cleanup, err := buildAdmin(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := svc.RunManualFullSync(ctx, kind, userID)
		if err != nil {
			return err
		}
		printResult(kind, res)
		return nil
	},
}

var syncForceCmd = &cobra.Command{
	Use:   "force <kind>",
	Short: "Clear target data and run a full sync (admin operation)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := types.SyncKind(args[0])
		userID, _ := cmd.Flags().GetString("user")

		ctx := context.Background()
		svc, _, _, cleanup, err := buildAdmin(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := svc.RunForcedSync(ctx, kind, userID)
		if err != nil {
			return err
		}
		printResult(kind, res)
		return nil
	},
}

func printResult(kind types.SyncKind, res *sync.Result) {
	if res == nil {
		fmt.Printf("%s: no pipeline registered\n", kind)
		return
	}
	fmt.Printf("%s: success=%v inserted=%d updated=%d skipped=%d deleted=%d (%dms)\n",
		kind, res.Success, res.Inserted, res.Updated, res.Skipped, res.Deleted, res.DurationMs)
	if res.Error != "" {
		fmt.Printf("  error: %s (%s)\n", res.Error, res.ErrorKind)
	}
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and change per-kind sync settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List interval/enabled settings for every sync kind",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, _, _, cleanup, err := buildAdmin(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		settings, err := svc.GetAllSettings(ctx)
		if err != nil {
			return err
		}
		for _, kind := range types.AllSyncKinds {
			s := settings[kind]
			fmt.Printf("%-10s interval=%dm enabled=%v\n", kind, s.IntervalMinutes, s.Enabled)
		}
		return nil
	},
}

var settingsSetIntervalCmd = &cobra.Command{
	Use:   "set-interval <kind> <minutes>",
	Short: "Change a sync kind's polling interval",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var minutes int
		if _, err := fmt.Sscanf(args[1], "%d", &minutes); err != nil {
			return fmt.Errorf("invalid minutes: %s", args[1])
		}

		ctx := context.Background()
		svc, _, _, cleanup, err := buildAdmin(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.UpdateInterval(ctx, types.SyncKind(args[0]), minutes); err != nil {
			return err
		}
		fmt.Printf("%s interval set to %dm\n", args[0], minutes)
		return nil
	},
}

var settingsEnableCmd = &cobra.Command{
	Use:   "enable <kind>",
	Short: "Enable a sync kind's scheduled runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error { return setEnabled(args[0], true) },
}

var settingsDisableCmd = &cobra.Command{
	Use:   "disable <kind>",
	Short: "Disable a sync kind's scheduled runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error { return setEnabled(args[0], false) },
}

func setEnabled(kind string, enabled bool) error {
	ctx := context.Background()
	svc, _, _, cleanup, err := buildAdmin(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.SetEnabled(ctx, types.SyncKind(kind), enabled); err != nil {
		return err
	}
	fmt.Printf("%s enabled=%v\n", kind, enabled)
	return nil
}

// runHealthLoop pings Postgres on the configured interval and republishes
// the hysteresis-debounced result into the metrics health registry.
func runHealthLoop(ctx context.Context, checker *health.PostgresChecker, status *health.Status, cfg health.Config) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := checker.Check(ctx)
			status.Update(result, cfg)
			metrics.RegisterComponent("postgres", status.Healthy, result.Message)
		}
	}
}
