package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-eventrouter/app/bus"
	"github.com/vibast-solutions/ms-go-eventrouter/app/dispatcher"
	"github.com/vibast-solutions/ms-go-eventrouter/app/events"
	"github.com/vibast-solutions/ms-go-eventrouter/app/lock"
	"github.com/vibast-solutions/ms-go-eventrouter/app/repository"
	"github.com/vibast-solutions/ms-go-eventrouter/config"
)

var consumeCmd = &cobra.Command{
	Use:   "consume [consumer_name]",
	Short: "Start the notification dispatcher",
	Long:  "Declare the event topology and consume domain events from the notification queues, dispatching emails for each.",
	Args:  cobra.ExactArgs(1),
	Run:   runConsume,
}

// init registers the consume command.
func init() {
	rootCmd.AddCommand(consumeCmd)
}

// runConsume starts one consumer per notification queue. Handling within
// a queue is serialized; queues run side by side.
func runConsume(_ *cobra.Command, args []string) {
	consumerName := args[0]

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	db := mustOpenMySQL(cfg)
	defer db.Close()

	rdb := mustConnectRedis(cfg)
	defer rdb.Close()

	topology := bus.NewTopology(rdb)
	if err := events.DeclareTopology(context.Background(), topology); err != nil {
		logrus.Fatalf("Failed to declare event topology: %v", err)
	}

	emailProvider, err := buildEmailProvider(cfg)
	if err != nil {
		logrus.Fatalf("Failed to build email provider: %v", err)
	}

	m := buildMailer(cfg, emailProvider, repository.NewDeliveryHistoryRepository(db))
	d := dispatcher.NewDispatcher(m, lock.NewRedisLocker(rdb))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logrus.Info("Received shutdown signal, stopping consumers...")
		cancel()
	}()

	var wg sync.WaitGroup
	for _, consumer := range d.Consumers(rdb, consumerName) {
		wg.Add(1)
		go func(c *bus.QueueConsumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				logrus.Errorf("Consumer error: %v", err)
			}
		}(consumer)
	}
	wg.Wait()

	logrus.Info("Consumers stopped")
}
