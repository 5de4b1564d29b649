package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-eventrouter/app/controller"
	"github.com/vibast-solutions/ms-go-eventrouter/app/mailer"
	"github.com/vibast-solutions/ms-go-eventrouter/app/preparer"
	"github.com/vibast-solutions/ms-go-eventrouter/app/provider"
	"github.com/vibast-solutions/ms-go-eventrouter/app/repository"
	"github.com/vibast-solutions/ms-go-eventrouter/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notification HTTP API",
	Long:  "Start the HTTP server exposing the direct notification endpoints.",
	Run:   runServe,
}

// init registers the serve command.
func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires dependencies and starts the notification HTTP server.
func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	db := mustOpenMySQL(cfg)
	defer db.Close()

	emailProvider, err := buildEmailProvider(cfg)
	if err != nil {
		logrus.Fatalf("Failed to build email provider: %v", err)
	}

	history := repository.NewDeliveryHistoryRepository(db)
	m := buildMailer(cfg, emailProvider, history)
	notificationController := controller.NewNotificationController(m, history)

	e := setupHTTPServer(notificationController)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
		logrus.Infof("Starting notification HTTP server on %s", httpAddr)
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP shutdown error: %v", err)
	}

	logrus.Info("Server stopped")
}

// setupHTTPServer configures the Echo HTTP server and routes.
func setupHTTPServer(notificationController *controller.NotificationController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	notifications := e.Group("/api/notifications")
	notifications.POST("/email", notificationController.SendEmail)
	notifications.POST("/email/bulk", notificationController.SendBulkEmail)

	e.GET("/health", notificationController.Health)

	return e
}

// mustOpenMySQL opens and verifies the MySQL pool.
func mustOpenMySQL(cfg *config.Config) *sql.DB {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.MySQLMaxOpen)
	db.SetMaxIdleConns(cfg.MySQLMaxIdle)
	db.SetConnMaxLifetime(cfg.MySQLMaxLife)

	if err := db.Ping(); err != nil {
		logrus.Fatalf("Failed to ping database: %v", err)
	}
	return db
}

// mustConnectRedis opens and verifies the bus connection. Startup with a
// broken bus connection is fatal.
func mustConnectRedis(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	return rdb
}

// buildMailer assembles the outbound channel.
func buildMailer(cfg *config.Config, emailProvider provider.EmailProvider, history *repository.DeliveryHistoryRepository) *mailer.Mailer {
	source := cfg.SMTPFrom
	if strings.EqualFold(cfg.EmailProvider, "ses") {
		source = cfg.SESSourceEmail
	}
	emailPreparer := preparer.NewChain(preparer.NewMIMEPreparer(source))
	return mailer.NewMailer(emailPreparer, emailProvider, history)
}

func buildEmailProvider(cfg *config.Config) (provider.EmailProvider, error) {
	switch strings.ToLower(cfg.EmailProvider) {
	case "", "smtp":
		return provider.NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom), nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return provider.NewSESProvider(awsCfg, cfg.SESSourceEmail), nil
	case "noop":
		return provider.NewNoopProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported EMAIL_PROVIDER: %s", cfg.EmailProvider)
	}
}
