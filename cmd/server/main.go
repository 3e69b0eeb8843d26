package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/adiwena/netbilling/internal/adapters/genieacs"
	midtransgw "github.com/adiwena/netbilling/internal/adapters/midtrans"
	"github.com/adiwena/netbilling/internal/adapters/notify"
	"github.com/adiwena/netbilling/internal/adapters/postgres"
	"github.com/adiwena/netbilling/internal/adapters/routeros"
	"github.com/adiwena/netbilling/internal/adapters/settings"
	"github.com/adiwena/netbilling/internal/config"
	"github.com/adiwena/netbilling/internal/domain/ports"
	checkoutHandler "github.com/adiwena/netbilling/internal/handlers/checkout"
	cronHandler "github.com/adiwena/netbilling/internal/handlers/cron"
	webhookHandler "github.com/adiwena/netbilling/internal/handlers/webhook"
	"github.com/adiwena/netbilling/internal/scheduler"
	checkoutService "github.com/adiwena/netbilling/internal/services/checkout"
	invoiceService "github.com/adiwena/netbilling/internal/services/invoice"
	"github.com/adiwena/netbilling/internal/services/reconcile"
	"github.com/adiwena/netbilling/internal/services/suspension"
	"github.com/adiwena/netbilling/internal/services/sweep"
	httpclient "github.com/adiwena/netbilling/pkg/http"
	ratelimit "github.com/adiwena/netbilling/pkg/middleware"
	"github.com/adiwena/netbilling/pkg/observability"
	"github.com/adiwena/netbilling/pkg/shutdown"
	"github.com/adiwena/netbilling/pkg/zaplog"
)

func main() {
	// Initialize logger
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting netbilling service",
		zap.String("version", "0.1.0"),
	)

	ctx := context.Background()

	// Initialize database connection pool
	poolCfg := postgres.DefaultConfig(cfg.Database.ConnectionString())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbPool, err := postgres.Connect(connectCtx, poolCfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Runtime settings store
	settingsStore, err := settings.NewViperStore(cfg.SettingsFile, logger)
	if err != nil {
		logger.Fatal("Failed to load settings", zap.Error(err))
	}

	// Secrets
	secretSource := initSecretSource(ctx, cfg, logger)
	midtransKey := resolveMidtransServerKey(ctx, cfg, secretSource, logger)

	portLogger := zaplog.New(logger)

	// Repositories
	customerRepo := postgres.NewCustomerRepository(dbPool)
	packageRepo := postgres.NewPackageRepository(dbPool)
	invoiceRepo := postgres.NewInvoiceRepository(dbPool)
	paymentRepo := postgres.NewPaymentRepository(dbPool)
	transactionRepo := postgres.NewGatewayTransactionRepository(dbPool)

	// Control-plane adapters
	routerClient := routeros.NewClient(&routeros.Config{
		BaseURL:  cfg.Router.BaseURL,
		Username: cfg.Router.Username,
		Password: cfg.Router.Password,
	}, httpclient.NewClient(
		httpclient.RouterClientConfig(cfg.Router.InsecureSkipVerify),
		time.Duration(cfg.Router.Timeout)*time.Second,
	), logger)

	deviceClient := genieacs.NewClient(&genieacs.Config{
		BaseURL:  cfg.ACS.BaseURL,
		Username: cfg.ACS.Username,
		Password: cfg.ACS.Password,
	}, httpclient.NewClient(
		httpclient.ACSClientConfig(),
		time.Duration(cfg.ACS.Timeout)*time.Second,
	), logger)

	notifier := notify.NewWhatsAppNotifier(&notify.Config{
		BaseURL: cfg.Notify.BaseURL,
		APIKey:  cfg.Notify.APIKey,
		Enabled: cfg.Notify.Enabled,
	}, httpclient.NewClient(httpclient.NotifyClientConfig(), 15*time.Second), logger)

	gateway := midtransgw.NewGateway(&midtransgw.Config{
		ServerKey:  midtransKey,
		Production: cfg.Midtrans.Production,
	}, logger)

	// Services
	orchestrator := suspension.NewOrchestrator(
		routerClient, deviceClient, customerRepo, packageRepo,
		settingsStore, notifier, portLogger,
	)
	sweeper := sweep.NewSweeper(invoiceRepo, customerRepo, orchestrator, settingsStore, portLogger)
	generator := invoiceService.NewGenerator(customerRepo, packageRepo, invoiceRepo, settingsStore, notifier, portLogger)
	reconciler := reconcile.NewReconciler(
		[]ports.PaymentGateway{gateway},
		transactionRepo, invoiceRepo, paymentRepo, customerRepo,
		orchestrator, notifier, portLogger,
	)

	checkoutSvc := checkoutService.NewService(gateway, invoiceRepo, customerRepo, transactionRepo, portLogger)

	// Handlers
	cronHdlr := cronHandler.NewSweepHandler(sweeper, generator, logger, cfg.Cron.Secret)
	webhookHdlr := webhookHandler.NewHandler(reconciler, logger)
	checkoutHdlr := checkoutHandler.NewHandler(checkoutSvc, logger)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Per-IP budgets for the internet-facing routes. Webhooks allow a burst
	// for gateway retries, the cron triggers stay close to operator pace.
	webhookLimiter := ratelimit.NewRateLimiter(10, 20, logger)
	cronLimiter := ratelimit.NewRateLimiter(1, 5, logger)

	r.With(webhookLimiter.Middleware).Post("/webhooks/{gateway}", webhookHdlr.HandleNotification)
	r.With(webhookLimiter.Middleware).Post("/invoices/{id}/checkout", checkoutHdlr.InitiatePayment)
	r.Route("/cron", func(r chi.Router) {
		r.Use(cronLimiter.Middleware)
		r.Post("/overdue-sweep", cronHdlr.OverdueSweep)
		r.Post("/restoration-sweep", cronHdlr.RestorationSweep)
		r.Post("/generate-invoices", cronHdlr.GenerateInvoices)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics and health server
	healthChecker := observability.NewHealthChecker(dbPool)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	// In-process schedules
	sched := scheduler.NewScheduler(sweeper, generator, logger, cfg.Cron)
	sched.Start()

	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Teardown order is the reverse of registration: scheduler stops
	// first so no new sweeps start, the pool closes last.
	shutdownMgr := shutdown.NewManager(logger, 30*time.Second)
	shutdownMgr.RegisterNoErr("database pool", dbPool.Close)
	shutdownMgr.Register("metrics server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(metricsServer)
	})
	shutdownMgr.RegisterHTTPServer("http server", httpServer)
	shutdownMgr.RegisterNoErr("rate limiters", func() {
		webhookLimiter.Shutdown()
		cronLimiter.Shutdown()
	})
	shutdownMgr.Register("scheduler", func(ctx context.Context) error {
		select {
		case <-sched.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	shutdownMgr.WaitForShutdown()
	logger.Info("Server stopped")
}

// initLogger initializes the logger
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	if cfg.Development {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	zapCfg := zap.NewProductionConfig()
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, _ := zapCfg.Build()
	return logger
}
