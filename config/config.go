package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost    string
	HTTPPort    string
	GatewayHost string
	GatewayPort string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MySQLDSN     string
	MySQLMaxOpen int
	MySQLMaxIdle int
	MySQLMaxLife time.Duration

	EmailProvider  string
	AWSRegion      string
	SESSourceEmail string
	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPassword   string
	SMTPFrom       string

	UserServiceURL         string
	ProductServiceURL      string
	OrderServiceURL        string
	PaymentServiceURL      string
	NotificationServiceURL string
	GatewayTimeout         time.Duration
}

// Load reads configuration from the environment, with .env as a fallback.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		HTTPHost:    getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:    getEnv("HTTP_PORT", "3005"),
		GatewayHost: getEnv("GATEWAY_HOST", "0.0.0.0"),
		GatewayPort: getEnv("GATEWAY_PORT", "3000"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MySQLDSN:     getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/notifications?parseTime=true"),
		MySQLMaxOpen: getEnvInt("MYSQL_MAX_OPEN", 10),
		MySQLMaxIdle: getEnvInt("MYSQL_MAX_IDLE", 5),
		MySQLMaxLife: getEnvDuration("MYSQL_MAX_LIFE", 5*time.Minute),

		EmailProvider:  getEnv("EMAIL_PROVIDER", "smtp"),
		AWSRegion:      getEnv("AWS_REGION", "eu-west-1"),
		SESSourceEmail: getEnv("SES_SOURCE_EMAIL", "noreply@ecommerce.com"),
		SMTPHost:       getEnv("SMTP_HOST", "mailhog"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASS", ""),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@ecommerce.com"),

		UserServiceURL:         getEnv("USER_SERVICE_URL", "http://user-service:3001"),
		ProductServiceURL:      getEnv("PRODUCT_SERVICE_URL", "http://product-service:3002"),
		OrderServiceURL:        getEnv("ORDER_SERVICE_URL", "http://order-service:3003"),
		PaymentServiceURL:      getEnv("PAYMENT_SERVICE_URL", "http://payment-service:3004"),
		NotificationServiceURL: getEnv("NOTIFICATION_SERVICE_URL", "http://notification-service:3005"),
		GatewayTimeout:         getEnvDuration("GATEWAY_TIMEOUT", 30*time.Second),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
