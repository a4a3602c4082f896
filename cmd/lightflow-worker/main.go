// Command lightflow-worker runs a worker pool process: it pops workflow,
// DAG, and task jobs off the queue and executes them against the DAG and
// task definitions registered by the workflow packages the deployment
// imports for side effects.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	stdsignal "os/signal"
	"syscall"
	"time"

	"github.com/lightflow-io/lightflow/internal/build"
	"github.com/lightflow-io/lightflow/internal/config"
	"github.com/lightflow-io/lightflow/internal/logger"
	"github.com/lightflow-io/lightflow/internal/queue"
	"github.com/lightflow-io/lightflow/internal/rconn"
	sigclass "github.com/lightflow-io/lightflow/internal/signal"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	quiet       bool
	debug       bool
	concurrency int
)

func main() {
	cmd := &cobra.Command{
		Use:     "lightflow-worker",
		Short:   "Run a workflow engine worker pool.",
		Long:    `lightflow-worker pops workflow, DAG, and task jobs off the queue and executes them.`,
		Version: fmt.Sprintf("%s (%s)", build.Version, build.AppName),
		RunE:    run,
	}

	cmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is ./lightflow.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&quiet, "quiet", "q", false, "run in quiet mode (log file only, if configured)",
	)
	cmd.PersistentFlags().BoolVar(
		&debug, "debug", false, "enable debug logging",
	)
	cmd.Flags().IntVar(
		&concurrency, "concurrency", 4, "number of worker goroutines",
	)
	_ = viper.BindPFlag("concurrency", cmd.Flags().Lookup("concurrency"))

	cmd.AddCommand(statusCommand())

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	var opts []config.ConfigLoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("lightflow-worker: load config: %w", err)
	}

	log := logger.NewLogger(loggerOptions(quiet, debug)...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	stdsignal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		if s, ok := sig.(syscall.Signal); ok {
			log.Info("received shutdown signal", "signal", sigclass.GetSignalName(s))
		}
		cancel()
	}()

	storeClient, err := rconn.Dial(ctx, &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Store.Host, cfg.Store.Port),
		DB:       cfg.Store.Database,
		Username: cfg.Store.Username,
		Password: cfg.Store.Password,
	})
	if err != nil {
		return fmt.Errorf("lightflow-worker: connect to store: %w", err)
	}
	signalClient, err := rconn.Dial(ctx, &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Signal.Host, cfg.Signal.Port),
		DB:       cfg.Signal.Database,
		Password: cfg.Signal.Password,
	})
	if err != nil {
		return fmt.Errorf("lightflow-worker: connect to signal bus: %w", err)
	}

	events := queue.NewLogSink(slog.Default())
	q := queue.New(storeClient)
	dispatcher := queue.NewTaskDispatcher(q, storeClient, queue.DefaultTaskQueue, 30*time.Second, events)
	runner := queue.NewDagRunner(q, storeClient, queue.DefaultDagQueue, 30*time.Second, events)

	wc := &queue.WorkerConfig{
		Registry:        queue.DefaultRegistry(),
		StoreClient:     storeClient,
		SignalClient:    signalClient,
		ResultClient:    storeClient,
		Dispatcher:      dispatcher,
		DagRunner:       runner,
		SignalTimeout:   cfg.Signal.PollingTime,
		DagPollInterval: cfg.Graph.DagPollingTime,
	}

	log.Info("starting worker pool", "concurrency", viper.GetInt("concurrency"))

	pool := queue.NewWorkerPool(queue.PoolConfig{
		Concurrency:   viper.GetInt("concurrency"),
		Queues:        []string{queue.DefaultWorkflowQueue, queue.DefaultDagQueue, queue.DefaultTaskQueue},
		PopTimeout:    time.Second,
		GracePeriod:   30 * time.Second,
		SignalClient:  signalClient,
		SignalTimeout: cfg.Signal.PollingTime,
	}, q, wc, nil)

	return pool.Run(ctx)
}

func loggerOptions(quiet, debug bool) []logger.Option {
	opts := []logger.Option{logger.WithFormat("text")}
	if debug {
		opts = append(opts, logger.WithDebug())
	}
	if quiet {
		opts = append(opts, logger.WithQuiet())
	}
	return opts
}
