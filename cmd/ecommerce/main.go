package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cartmongo "github.com/wyfcoding/ecommerce/internal/cart/infrastructure/persistence/mongo"
	cartconsumer "github.com/wyfcoding/ecommerce/internal/cart/interfaces/consumer"
	carthttp "github.com/wyfcoding/ecommerce/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/ecommerce/internal/catalog/application"
	catalogmongo "github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/mongo"
	cataloghttp "github.com/wyfcoding/ecommerce/internal/catalog/interfaces/http"
	userapp "github.com/wyfcoding/ecommerce/internal/user/application"
	usermongo "github.com/wyfcoding/ecommerce/internal/user/infrastructure/persistence/mongo"
	userhttp "github.com/wyfcoding/ecommerce/internal/user/interfaces/http"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/mq"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "configs/ecommerce/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error(ctx, "Service exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New(cfg.ServiceName)
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	client, err := docstore.Connect(ctx, docstore.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		AppName:        cfg.Mongo.AppName,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		ConnectTimeout: time.Duration(cfg.Mongo.ConnectTimeout) * time.Second,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error(ctx, "MongoDB disconnect failed", "error", err)
		}
	}()

	store := docstore.New(client.Database(cfg.Mongo.Database),
		docstore.WithObserver(m),
		docstore.WithBreaker(docstore.BreakerConfig{
			ConsecutiveFailures: cfg.Mongo.BreakerFailures,
			OpenTimeout:         time.Duration(cfg.Mongo.BreakerTimeout) * time.Second,
		}),
	)
	if err := cartmongo.EnsureIndexes(ctx, store); err != nil {
		return fmt.Errorf("ensure cart indexes: %w", err)
	}
	if err := catalogmongo.EnsureIndexes(ctx, store); err != nil {
		return fmt.Errorf("ensure product indexes: %w", err)
	}

	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	var (
		producer   *mq.KafkaProducer
		publisher  = mq.NewPublisher(nil)
		retryTopic string
	)
	if cfg.Kafka.Enabled {
		producer = mq.NewProducer(kafkaCfg)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error(ctx, "Kafka producer close failed", "error", err)
			}
		}()
		publisher = mq.NewPublisher(producer)
		retryTopic = cfg.Kafka.CascadeRetryTopic
	}

	users := usermongo.NewUserRepository(store)
	products := catalogmongo.NewProductRepository(store)
	carts := cartmongo.NewCartRepository(store)

	cartCommands := cartapp.NewCartCommandService(carts, products, users, publisher, m, cartapp.RetryConfig{
		MaxAttempts:     cfg.Cart.MaxSaveAttempts,
		InitialInterval: cfg.Cart.RetryInitial(),
	})
	cascade := cartapp.NewCascadeCoordinator(carts, cartCommands, publisher, m, retryTopic)
	cartService := cartapp.NewCartApplicationService(cartCommands, cartapp.NewCartQueryService(carts), cascade)

	catalogService := catalogapp.NewCatalogApplicationService(
		catalogapp.NewCatalogCommandService(products, publisher, cartService),
		catalogapp.NewCatalogQueryService(products, cfg.Catalog.MaxPageSize),
	)
	userService := userapp.NewUserService(
		userapp.NewUserCommandService(users, cartService, cartService, publisher),
		userapp.NewUserQueryService(users, cfg.Catalog.MaxPageSize),
	)

	router, rdb, err := newRouter(ctx, cfg, m)
	if err != nil {
		return err
	}
	userhttp.NewUserHandler(userService).RegisterRoutes(router)
	cataloghttp.NewProductHandler(catalogService).RegisterRoutes(router)
	carthttp.NewCartHandler(cartService).RegisterRoutes(router)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(),
	))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr())
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return fmt.Errorf("listen grpc: %w", err)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.StartHTTPServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path, prometheus.DefaultGatherer)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(ctx, "HTTP server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info(ctx, "gRPC server listening", "addr", cfg.GRPC.Addr())
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		watchHealth(gctx, store, healthSrv, time.Duration(cfg.GRPC.HealthInterval)*time.Second)
		return nil
	})

	var retryConsumer *mq.KafkaConsumer
	if cfg.Kafka.Enabled {
		retryConsumer = mq.NewConsumer(kafkaCfg, cfg.Kafka.CascadeRetryTopic)
		handler := cartconsumer.NewCascadeRetryHandler(
			cascade,
			mq.NewDeadLetterQueue(producer, cfg.Kafka.DeadLetterTopic),
			cfg.Kafka.CascadeMaxAttempts,
			time.Duration(cfg.Kafka.RetryBackoff)*time.Millisecond,
		)
		g.Go(func() error {
			return retryConsumer.Run(gctx, handler.Handle)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		grpcSrv.GracefulStop()
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
			}
		}
		if retryConsumer != nil {
			if err := retryConsumer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("kafka consumer close: %w", err))
			}
		}
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				errs = append(errs, fmt.Errorf("redis close: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// newRouter 组装 gin 引擎与公共中间件；限流依赖 Redis，连接失败时不启用限流。
// 返回的 Redis 客户端在未启用限流时为 nil，由调用方负责关闭
func newRouter(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*gin.Engine, *redis.Client, error) {
	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.GinLogging(), middleware.GinRecovery(), middleware.GinMetrics(m))

	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn(ctx, "Rate limiting disabled, redis unreachable", "error", err)
		} else {
			rdb = client
			router.Use(middleware.RateLimit(ratelimit.NewRedisRateLimiter(rdb), cfg.ServiceName, cfg.RateLimit))
		}
	}

	if err := cataloghttp.RegisterValidators(); err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	return router, rdb, nil
}
