package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config armazena todas as configurações do bookstock.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados
	DBDriver    string
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis). RedisAddr vazio desliga o cache e o rate limiter.
	RedisAddr string
	CacheTTL  time.Duration

	// Segurança (JWT)
	JWTSecretKey  string
	TokenExpiry   time.Duration
	AdminEmail    string
	AdminPassword string

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Estoque
	StockLockTimeout time.Duration
	LowStockTarget   int

	// Notificações
	NotifyBackend      string
	NotifyBuffer       int
	NotifyTimeout      time.Duration
	KafkaBrokers       []string
	KafkaStockTopic    string
	RedisEventsChannel string

	// OpenTelemetry. Endpoint vazio mantém os providers no-op.
	OTelEndpoint   string
	OTelAuthHeader string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// Chaves obrigatórias ausentes ou valores inválidos são acumulados num único erro.
func LoadConfig() (*Config, error) {
	l := &loader{}

	cfg := &Config{
		Port:        l.str("PORT", "8080"),
		Environment: l.str("ENV", "development"),
		LogLevel:    l.str("LOG_LEVEL", "info"),

		DBDriver:    l.oneOf("DB_DRIVER", "postgres", "postgres", "sqlite"),
		DatabaseURL: l.required("DATABASE_URL"),
		DBTimeout:   time.Duration(l.positive("DB_TIMEOUT_SEC", 5)) * time.Second,

		RedisAddr: l.str("REDIS_ADDR", ""),
		CacheTTL:  time.Duration(l.positive("CACHE_TTL_SEC", 60)) * time.Second,

		JWTSecretKey:  l.required("JWT_SECRET_KEY"),
		TokenExpiry:   time.Duration(l.positive("JWT_EXPIRY_MIN", 60)) * time.Minute,
		AdminEmail:    l.str("ADMIN_EMAIL", ""),
		AdminPassword: l.str("ADMIN_PASSWORD", ""),

		RateLimitMaxRequests: l.positive("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      time.Duration(l.positive("RATE_LIMIT_PERIOD_MIN", 1)) * time.Minute,

		StockLockTimeout: time.Duration(l.positive("STOCK_LOCK_TIMEOUT_MS", 2000)) * time.Millisecond,
		LowStockTarget:   l.positive("LOW_STOCK_TARGET", 20),

		NotifyBackend:      l.oneOf("NOTIFY_BACKEND", "log", "log", "redis", "kafka"),
		NotifyBuffer:       l.positive("NOTIFY_BUFFER", 256),
		NotifyTimeout:      time.Duration(l.positive("NOTIFY_TIMEOUT_MS", 2000)) * time.Millisecond,
		KafkaBrokers:       splitList(l.str("KAFKA_BROKERS", "")),
		KafkaStockTopic:    l.str("KAFKA_STOCK_TOPIC", "bookstock.stock-events"),
		RedisEventsChannel: l.str("REDIS_EVENTS_CHANNEL", "bookstock.events"),

		OTelEndpoint:   l.str("OTEL_ENDPOINT", ""),
		OTelAuthHeader: l.str("OTEL_AUTH_HEADER", ""),
	}

	if cfg.NotifyBackend == "kafka" && len(cfg.KafkaBrokers) == 0 {
		l.fail("KAFKA_BROKERS é obrigatório quando NOTIFY_BACKEND=kafka")
	}
	if cfg.NotifyBackend == "redis" && cfg.RedisAddr == "" {
		l.fail("REDIS_ADDR é obrigatório quando NOTIFY_BACKEND=redis")
	}

	if len(l.errs) > 0 {
		return nil, fmt.Errorf("erro de configuração: %w", errors.Join(l.errs...))
	}
	return cfg, nil
}

// loader acumula os erros de leitura para reportar todos de uma vez.
type loader struct {
	errs []error
}

func (l *loader) fail(format string, args ...interface{}) {
	l.errs = append(l.errs, fmt.Errorf(format, args...))
}

// str lê a variável de ambiente ou retorna um valor padrão.
func (l *loader) str(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func (l *loader) required(key string) string {
	value := l.str(key, "")
	if value == "" {
		l.fail("a variável de ambiente %s deve ser definida", key)
	}
	return value
}

func (l *loader) positive(key string, defaultValue int) int {
	raw := l.str(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		l.fail("%s ('%s') deve ser um inteiro positivo", key, raw)
		return defaultValue
	}
	return value
}

func (l *loader) oneOf(key, defaultValue string, allowed ...string) string {
	value := strings.ToLower(l.str(key, defaultValue))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	l.fail("%s ('%s') deve ser um de %v", key, value, allowed)
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
