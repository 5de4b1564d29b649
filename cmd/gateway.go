package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-eventrouter/app/gateway"
	"github.com/vibast-solutions/ms-go-eventrouter/config"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the API gateway",
	Long:  "Start the edge HTTP server that proxies client traffic to the backend services.",
	Run:   runGateway,
}

// init registers the gateway command.
func init() {
	rootCmd.AddCommand(gatewayCmd)
}

// runGateway starts the gateway edge server.
func runGateway(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	router := gateway.NewRouter(gatewayRoutes(cfg), cfg.GatewayTimeout)
	e := router.Echo()

	go func() {
		addr := net.JoinHostPort(cfg.GatewayHost, cfg.GatewayPort)
		logrus.Infof("Starting API gateway on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Gateway server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Gateway shutdown error: %v", err)
	}

	logrus.Info("Gateway stopped")
}

// gatewayRoutes builds the prefix routing table from configuration.
func gatewayRoutes(cfg *config.Config) []gateway.Route {
	return []gateway.Route{
		{Name: "user", Prefix: "/api/users", BaseURL: cfg.UserServiceURL},
		{Name: "product", Prefix: "/api/products", BaseURL: cfg.ProductServiceURL},
		{Name: "order", Prefix: "/api/orders", BaseURL: cfg.OrderServiceURL},
		{Name: "payment", Prefix: "/api/payments", BaseURL: cfg.PaymentServiceURL},
		{Name: "notification", Prefix: "/api/notifications", BaseURL: cfg.NotificationServiceURL},
	}
}
