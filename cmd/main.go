// @title bookstock API
// @version 1.0
// @description Reserva de estoque e validação de pedidos da livraria.
// @BasePath /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bookstock/config"
	"bookstock/internal/api/order"
	"bookstock/internal/api/product"
	"bookstock/internal/api/router"
	"bookstock/internal/api/stock"
	"bookstock/internal/api/supplier"
	"bookstock/internal/api/user"
	"bookstock/internal/pkg/cache"
	"bookstock/internal/pkg/database"
	"bookstock/internal/pkg/lock"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/pkg/notify"
	"bookstock/internal/pkg/telemetry"
	"bookstock/internal/pkg/token"
	"bookstock/internal/repository/orderrepo"
	"bookstock/internal/repository/productrepo"
	"bookstock/internal/repository/supplierrepo"
	"bookstock/internal/repository/userrepo"
	"bookstock/internal/service/orderservice"
	"bookstock/internal/service/productservice"
	"bookstock/internal/service/stockservice"
	"bookstock/internal/service/supplierservice"
	"bookstock/internal/service/userservice"
)

func main() {
	// Sem .env seguimos só com o ambiente do sistema (ex.: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("Aviso: arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("bookstock: %v", err)
	}

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, telemetry.Config{Endpoint: cfg.OTelEndpoint, AuthHeader: cfg.OTelAuthHeader})
	if err != nil {
		log.Fatalf("bookstock: falha ao iniciar OpenTelemetry: %v", err)
	}

	appLog := logger.NewLogger(cfg.LogLevel, tel.Cores()...)
	defer appLog.Sync()
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "db_driver": cfg.DBDriver})

	// 1. Banco de Dados
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()

	if err := database.Migrate(db.DB, cfg.DBDriver); err != nil {
		appLog.Fatal("Falha ao aplicar migrações.", err)
	}
	appLog.Info("Banco de dados pronto.", nil)

	// 2. Cache (Redis opcional)
	var cacheClient cache.Client = cache.Noop{}
	var redisClient *cache.RedisClient
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Fatal("Falha ao conectar ao Redis.", err)
		}
		defer redisClient.Close()
		cacheClient = redisClient
		appLog.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
	}

	// 3. Notificações
	publisher, err := newPublisher(cfg, redisClient, tel, appLog)
	if err != nil {
		appLog.Fatal("Falha ao configurar o publicador de eventos.", err)
	}
	emitter := notify.NewEmitter(publisher, appLog, cfg.NotifyBuffer, cfg.NotifyTimeout)

	locks := lock.NewKeyed(cfg.StockLockTimeout)

	// 4. Injeção de dependências: Repository -> Service -> Handler
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	orderRepo := orderrepo.NewOrderRepository(db, cacheClient, cfg.DBTimeout, appLog)
	supplierRepo := supplierrepo.NewSupplierRepository(db, cfg.DBTimeout, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	productSvc := productservice.NewService(productRepo, supplierRepo, locks, emitter, cfg.LowStockTarget, appLog)
	orderSvc := orderservice.NewService(productRepo, orderRepo, locks, emitter, tel.TracerProvider, appLog)
	stockSvc := stockservice.NewService(productRepo, locks, emitter, tel.TracerProvider, appLog)
	supplierSvc := supplierservice.NewService(supplierRepo, productRepo, appLog)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)

	if err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		appLog.Fatal("Falha ao garantir o administrador inicial.", err)
	}

	handlers := router.Handlers{
		Product:  product.NewHandler(productSvc, appLog),
		Stock:    stock.NewHandler(stockSvc, appLog),
		Order:    order.NewHandler(orderSvc, appLog),
		Supplier: supplier.NewHandler(supplierSvc, appLog),
		User:     user.NewHandler(userSvc, appLog),
	}
	r := router.NewRouter(handlers, tokenSvc, cacheClient, appLog, router.Options{
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitPeriod:      cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor bookstock ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}
	// Pedidos já confirmados podem ter eventos na fila: drena antes de sair.
	if err := emitter.Close(shutdownCtx); err != nil {
		appLog.Error("Fila de eventos não foi drenada por completo.", err)
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Falha ao encerrar OpenTelemetry.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}

func newPublisher(cfg *config.Config, redisClient *cache.RedisClient, tel *telemetry.Telemetry, appLog logger.Logger) (notify.Publisher, error) {
	switch cfg.NotifyBackend {
	case "kafka":
		pub, err := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaStockTopic, tel.TracerProvider)
		if err != nil {
			return nil, err
		}
		appLog.Info("Eventos publicados no Kafka.", map[string]interface{}{"topic": cfg.KafkaStockTopic})
		return pub, nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("NOTIFY_BACKEND=redis exige REDIS_ADDR")
		}
		appLog.Info("Eventos publicados via Redis PUBLISH.", map[string]interface{}{"channel": cfg.RedisEventsChannel})
		return notify.NewRedisPublisher(redisClient.Redis(), cfg.RedisEventsChannel), nil
	default:
		return notify.NewLogPublisher(appLog), nil
	}
}
