package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sushovancpp/urmart/internal/domain/address"
	"github.com/sushovancpp/urmart/internal/domain/auth"
	"github.com/sushovancpp/urmart/internal/domain/cart"
	"github.com/sushovancpp/urmart/internal/domain/coupon"
	"github.com/sushovancpp/urmart/internal/domain/order"
	"github.com/sushovancpp/urmart/internal/domain/product"
	"github.com/sushovancpp/urmart/internal/domain/review"
	"github.com/sushovancpp/urmart/internal/domain/wishlist"
	"github.com/sushovancpp/urmart/internal/events"
	"github.com/sushovancpp/urmart/internal/handler"
	"github.com/sushovancpp/urmart/internal/repository"
	"github.com/sushovancpp/urmart/pkg/health"
	"github.com/sushovancpp/urmart/pkg/httpmiddleware"
)

// Telemetry provides the OpenTelemetry providers. *app.Telemetry from
// go-faster/sdk satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	policy, err := cfg.Pricing.Policy()
	if err != nil {
		return errors.Wrap(err, "pricing policy")
	}

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, cfg.MaxConns)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.Add(health.Check{
		Name:    "postgres",
		Kind:    health.Readiness,
		Func:    health.PingCheck(pool),
		Timeout: 5 * time.Second,
	})
	healthSvc.Add(health.Check{
		Name: "goroutines",
		Kind: health.Liveness,
		Func: health.GoroutineCountCheck(10000),
	})

	// Repositories.
	products := repository.NewProductRepository(pool)
	users := repository.NewUserRepository(pool)

	var (
		catalog     product.Repository  = products
		invalidator product.Invalidator = product.NopInvalidator{}
		limiter     httpmiddleware.Limiter
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		cached := repository.NewCachedCatalog(products, rdb, cfg.Redis.TTL)
		catalog, invalidator = cached, cached
		limiter = httpmiddleware.NewRedisLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window)

		healthSvc.Add(health.Check{
			Name: "redis",
			Kind: health.Readiness,
			Func: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		lg.Info("Redis enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		mem := httpmiddleware.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
		go mem.Run(ctx)
		limiter = mem
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, lg.Named("kafka"))
		if err != nil {
			return errors.Wrap(err, "create kafka publisher")
		}
		defer func() {
			if err := kp.Close(); err != nil {
				lg.Warn("Close kafka publisher", zap.Error(err))
			}
		}()
		publisher = kp
		lg.Info("Order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// Domain services. The cart reads live stock, never the cache.
	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	orderService, err := order.NewService(
		repository.NewCheckoutStore(pool),
		repository.NewOrderRepository(pool),
		order.ServiceConfig{Policy: policy, CheckoutTimeout: cfg.Checkout.Timeout},
		order.WithPublisher(publisher),
		order.WithInvalidator(invalidator),
		order.WithTelemetry(m.MeterProvider(), m.TracerProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	h := handler.New(handler.Deps{
		Accounts:  auth.NewService(users, tokens),
		Tokens:    tokens,
		Catalog:   catalog,
		Admin:     product.NewAdminService(repository.NewProductAdminRepository(pool), invalidator),
		Carts:     cart.NewService(repository.NewCartRepository(pool), products, policy),
		Coupons:   coupon.NewRepoValidator(repository.NewCouponRepository(pool)),
		Orders:    orderService,
		Addresses: address.NewService(repository.NewAddressRepository(pool)),
		Wishlists: wishlist.NewService(repository.NewWishlistRepository(pool), catalog),
		Reviews:   review.NewService(repository.NewReviewRepository(pool), catalog, users),
	})

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", otelhttp.NewHandler(h.Routes(), "urmart-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Checkout.Timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				Limiter: limiter,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
