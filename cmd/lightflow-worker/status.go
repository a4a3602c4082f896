package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lightflow-io/lightflow/internal/config"
	"github.com/lightflow-io/lightflow/internal/queue"
	"github.com/lightflow-io/lightflow/internal/rconn"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the depth of each job queue.",
		Long:  `Connects to the store and prints how many jobs are waiting on the workflow, DAG, and task queues.`,
		RunE:  runStatus,
	}
}

func runStatus(_ *cobra.Command, _ []string) error {
	var opts []config.ConfigLoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("lightflow-worker status: load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	storeClient, err := rconn.Dial(ctx, &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Store.Host, cfg.Store.Port),
		DB:       cfg.Store.Database,
		Username: cfg.Store.Username,
		Password: cfg.Store.Password,
	})
	if err != nil {
		return fmt.Errorf("lightflow-worker status: connect to store: %w", err)
	}

	q := queue.New(storeClient)
	queues := []string{queue.DefaultWorkflowQueue, queue.DefaultDagQueue, queue.DefaultTaskQueue}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Queue", "Depth"})
	for _, key := range queues {
		depth, err := q.Len(ctx, key)
		if err != nil {
			return fmt.Errorf("lightflow-worker status: queue %q: %w", key, err)
		}
		t.AppendRow(table.Row{key, depth})
	}
	fmt.Println(t.Render())
	return nil
}
