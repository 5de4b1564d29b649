package cmd

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-eventrouter/app/bus"
	"github.com/vibast-solutions/ms-go-eventrouter/app/events"
	"github.com/vibast-solutions/ms-go-eventrouter/config"
)

var publishCmd = &cobra.Command{
	Use:   "publish [exchange] [routing_key] [json_payload]",
	Short: "Publish an event envelope",
	Long:  "Publish a JSON payload to an exchange under a routing key, for exercising the event backbone.",
	Args:  cobra.ExactArgs(3),
	Run:   runPublish,
}

// init registers the publish command.
func init() {
	rootCmd.AddCommand(publishCmd)
}

// runPublish declares the topology and publishes one envelope.
func runPublish(_ *cobra.Command, args []string) {
	exchange, routingKey := args[0], args[1]

	var payload map[string]any
	if err := json.Unmarshal([]byte(args[2]), &payload); err != nil {
		logrus.Fatalf("Invalid JSON payload: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	rdb := mustConnectRedis(cfg)
	defer rdb.Close()

	ctx := context.Background()
	topology := bus.NewTopology(rdb)
	if err := events.DeclareTopology(ctx, topology); err != nil {
		logrus.Fatalf("Failed to declare event topology: %v", err)
	}

	publisher := bus.NewPublisher(rdb, topology)
	if err := publisher.Publish(ctx, exchange, routingKey, payload); err != nil {
		logrus.Fatalf("Publish failed: %v", err)
	}

	logrus.WithFields(logrus.Fields{"exchange": exchange, "routing_key": routingKey}).Info("Envelope published")
}
