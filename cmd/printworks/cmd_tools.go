package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/journal"
	"github.com/snapkeep/printworks/internal/packaging"
	"github.com/snapkeep/printworks/internal/queue"
	"github.com/snapkeep/printworks/internal/store"
	"github.com/snapkeep/printworks/pkg/logger"
)

var failedLimitFlag int

// printworks enqueue <order-id>
var enqueueCmd = &cobra.Command{
	Use:   "enqueue <order-id>",
	Short: "Push an order onto the print queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.New(cfg.AppEnv)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
		})
		defer rdb.Close()

		q := queue.NewRedis(rdb, cfg.Queue, log)
		defer q.Close()

		if err := q.Push(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Enqueued order %s on %s\n", args[0], cfg.Queue.Key)
		return nil
	},
}

// printworks readme <order-id>
//
// Regenerates the print manifest for an order and prints it to stdout, for
// backfilling a package whose readme was lost or malformed.
var readmeCmd = &cobra.Command{
	Use:   "readme <order-id>",
	Short: "Print the manifest for an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		mongo, err := store.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer mongo.Close(context.Background())

		order, err := mongo.Orders().FindByID(ctx, args[0])
		if err != nil {
			return err
		}
		user, err := mongo.Users().FindByID(ctx, order.UserID.Hex())
		if err != nil {
			return err
		}

		fmt.Print(packaging.Manifest(user, order))
		return nil
	},
}

// printworks failed
var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List recently failed orders from the local journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.New(cfg.AppEnv)

		jnl, err := journal.Open(cfg.Journal.Path, log)
		if err != nil {
			return err
		}

		records, err := jnl.Recent(failedLimitFlag)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No failed orders recorded.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  %-24s  %s/%s  %s\n",
				r.FailedAt.Format(time.RFC3339), r.OrderID, r.Stage, r.Kind, r.Error)
		}
		return nil
	},
}

func init() {
	failedCmd.Flags().IntVarP(&failedLimitFlag, "limit", "n", 20, "Maximum records to show")
}
