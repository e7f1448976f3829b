package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"order-service/internal/config"
	"order-service/internal/controllers/http"
	"order-service/internal/infra"
	"order-service/internal/infra/breaker"
	"order-service/internal/infra/kafka"
	mmysql "order-service/internal/infra/mysql"
	"order-service/internal/infra/rabbitmq"
	"order-service/internal/infra/sqlite"
	"order-service/internal/metrics"
	"order-service/internal/notify"
	"order-service/internal/payments"
	mysqlrepo "order-service/internal/repository/mysql"
	"order-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	root := &cobra.Command{
		Use:          "order-service",
		Short:        "Order and payment reconciliation service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), batchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var warmup []uint
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ids := make([]uint64, 0, len(warmup))
			for _, id := range warmup {
				ids = append(ids, uint64(id))
			}
			return serve(cmd.Context(), cfg, ids)
		},
	}
	cmd.Flags().UintSliceVar(&warmup, "warmup-products", nil, "product ids to preload into the cache")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the orders and payments tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := mmysql.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Println("migrations applied")
			return nil
		},
	}
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "sqlite":
		db, err = sqlite.NewSQLite(cfg.Database.SQLitePath)
	default:
		db, err = mmysql.NewMySQL(cfg.MySQL, cfg.Database)
	}
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	return db, nil
}

// newPublisher returns the configured broker and a closer for it.
func newPublisher(cfg config.Broker) (notify.Publisher, io.Closer, error) {
	switch cfg.Kind {
	case "rabbitmq":
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.Exchange)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init publisher: %w", err)
		}
		return pub, pub, nil
	case "kafka":
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		return pub, pub, nil
	}
	return notify.LogPublisher{}, nil, nil
}

func newProcessor(cfg config.Payment) payments.Processor {
	if cfg.Mode == "http" {
		return payments.NewHTTPProcessor(cfg.BaseURL, cfg.SecretKey, cfg.Timeout)
	}
	log.Println("using in-process mock payment processor")
	return payments.NewMockProcessor(50 * time.Millisecond)
}

// app holds the wired engine and what must be released on exit.
type app struct {
	service  *services.OrderService
	redis    *redis.Client
	registry *prometheus.Registry
	closers  []io.Closer
	startup  sync.WaitGroup
}

// goStartup runs fn in the background; Close waits for it before
// releasing anything fn may use.
func (a *app) goStartup(fn func()) {
	a.startup.Add(1)
	go func() {
		defer a.startup.Done()
		fn()
	}()
}

func (a *app) Close() {
	a.startup.Wait()
	a.service.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func buildApp(cfg *config.Config) (*app, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: handle: %w", err)
	}
	if err := mmysql.Migrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// sqlDB goes first so it is closed last.
	a := &app{closers: []io.Closer{sqlDB}}
	publisher, closer, err := newPublisher(cfg.Broker)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	breakers := cfg.Breaker.Settings()
	var emitter notify.Emitter = notify.LogEmitter{}
	if cfg.Broker.Kind != "none" {
		emitter = notify.WithBreaker(notify.NewBrokerEmitter(publisher), breaker.New("notifications", breakers))
	}

	productClient := infra.WithProductBreaker(
		infra.NewProductClient(cfg.Services.ProductURL, cfg.Engine.CallTimeout),
		breaker.New("catalog", breakers))
	gateway := payments.NewGateway(mysqlrepo.NewPaymentRepository(db), newProcessor(cfg.Payment))

	a.service = services.NewOrderService(mysqlrepo.NewOrderRepository(db), productClient, gateway, publisher, emitter)
	a.service.SetOptions(services.Options{
		CallTimeout:     cfg.Engine.CallTimeout,
		BatchWorkers:    cfg.Engine.BatchWorkers,
		BatchTimeout:    cfg.Engine.BatchTimeout,
		ViewWorkers:     cfg.Engine.ViewWorkers,
		ProductCacheTTL: cfg.Redis.ProductTTL,
	})
	if cfg.Services.InventoryURL != "" {
		a.service.SetInventoryClient(infra.WithInventoryBreaker(
			infra.NewInventoryClient(cfg.Services.InventoryURL, cfg.Engine.CallTimeout),
			breaker.New("inventory", breakers)))
	}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.service.SetMetrics(metrics.New(a.registry))
	}

	if cfg.Redis.Enabled() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr(),
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.PoolSize / 10,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		a.closers = append(a.closers, a.redis)
		a.service.SetRedisClient(a.redis)
	}
	return a, nil
}

func serve(ctx context.Context, cfg *config.Config, warmup []uint64) error {
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	s := a.service

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(warmup) > 0 {
		a.goStartup(func() {
			if err := s.WarmupProductCache(ctx, warmup); err != nil {
				log.Printf("Failed to warm up cache: %v", err)
			} else {
				log.Println("Cache warmed up successfully")
			}
		})
	}
	if err := s.RefreshActiveOrders(ctx); err != nil {
		log.Printf("Failed to seed active orders gauge: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	http.NewHandler(s, a.redis).RegisterRoutes(r)
	if a.registry != nil {
		http.RegisterMetrics(r, cfg.Metrics.Path, a.registry)
	}

	srv := &nethttp.Server{Addr: cfg.HTTP.Addr(), Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting order service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server run: %w", err)
		}
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	return nil
}

var (
	_ notify.Publisher = (*rabbitmq.Publisher)(nil)
	_ notify.Publisher = (*kafka.Publisher)(nil)
)
