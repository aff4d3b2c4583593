package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/config"
	"github.com/fekuna/omnipos-workshop-service/internal/auth"
	"github.com/fekuna/omnipos-workshop-service/pkg/database"
	"github.com/fekuna/omnipos-workshop-service/pkg/idempotency"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/middleware"
	"github.com/fekuna/omnipos-workshop-service/pkg/outbox"
	"github.com/fekuna/omnipos-workshop-service/pkg/shutdown"
	"github.com/fekuna/omnipos-workshop-service/pkg/tracing"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"

	activityRepoPkg "github.com/fekuna/omnipos-workshop-service/internal/activity/repository"
	activityUCPkg "github.com/fekuna/omnipos-workshop-service/internal/activity/usecase"

	catH "github.com/fekuna/omnipos-workshop-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-workshop-service/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-workshop-service/internal/category/usecase"

	custRepoPkg "github.com/fekuna/omnipos-workshop-service/internal/customer/repository"
	custUCPkg "github.com/fekuna/omnipos-workshop-service/internal/customer/usecase"

	invH "github.com/fekuna/omnipos-workshop-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-workshop-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-workshop-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-workshop-service/internal/inventory/usecase"

	jobH "github.com/fekuna/omnipos-workshop-service/internal/jobcard/handler"
	jobRepoPkg "github.com/fekuna/omnipos-workshop-service/internal/jobcard/repository"
	jobUCPkg "github.com/fekuna/omnipos-workshop-service/internal/jobcard/usecase"

	srH "github.com/fekuna/omnipos-workshop-service/internal/salesreturn/handler"
	srRepoPkg "github.com/fekuna/omnipos-workshop-service/internal/salesreturn/repository"
	srUCPkg "github.com/fekuna/omnipos-workshop-service/internal/salesreturn/usecase"

	trH "github.com/fekuna/omnipos-workshop-service/internal/testingrecord/handler"
	trRepoPkg "github.com/fekuna/omnipos-workshop-service/internal/testingrecord/repository"
	trUCPkg "github.com/fekuna/omnipos-workshop-service/internal/testingrecord/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	tracing.Setup()

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	// 3. Connect to Database
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to database", zap.String("driver", db.DriverName()))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			appLogger.Fatal("Could not migrate database", zap.Error(err))
		}
	}

	// 4. Initialize Repositories
	txm := txn.NewManager(db)
	activityRepo := activityRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	custRepo := custRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	jobRepo := jobRepoPkg.NewPGRepository(db)
	materialRepo := jobRepoPkg.NewMaterialPGRepository(db)
	trRepo := trRepoPkg.NewPGRepository(db)
	srRepo := srRepoPkg.NewPGRepository(db)
	outboxStore := outbox.NewSQLStore(db)

	// 5. Initialize Redis
	var idem *idempotency.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			appLogger.Warn("Could not reach Redis, idempotency keys are not enforced", zap.Error(err))
		} else {
			idem = idempotency.NewStore(rdb, cfg.Redis.IdempotencyTTL)
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Initialize UseCases
	recorder := activityUCPkg.NewRecorder(activityRepo, appLogger)
	catUC := catUCPkg.NewCategoryUseCase(txm, catRepo, appLogger)
	custUC := custUCPkg.NewCustomerUseCase(txm, custRepo, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(txm, invRepo, recorder, outboxStore, appLogger)
	trUC := trUCPkg.NewTestingRecordUseCase(txm, trRepo, jobRepo, appLogger)
	jobUC, materials := jobUCPkg.NewJobCardUseCase(jobUCPkg.Dependencies{
		TxManager:      txm,
		Cards:          jobRepo,
		Materials:      materialRepo,
		Ledger:         invUC,
		Recorder:       recorder,
		Customers:      custUC,
		TestingRecords: trUC,
		Publisher:      outboxStore,
		Logger:         appLogger,
	}, jobUCPkg.Config{
		JobNumberPrefix: cfg.Workshop.JobNumberPrefix,
		DeductionStatus: cfg.Workshop.DeductionStatus,
	})
	srUC := srUCPkg.NewSalesReturnUseCase(txm, srRepo, invUC, recorder, outboxStore, cfg.Workshop.ReturnNumberPrefix, appLogger)

	// 7. Background workers
	if len(cfg.Kafka.Brokers) > 0 {
		writer := outbox.NewKafkaWriter(cfg.Kafka.Brokers)
		defer writer.Close()
		relay := outbox.NewRelay(appLogger, outboxStore, outbox.NewDispatcher(appLogger, writer, cfg.Kafka.Topic), outbox.RelayConfig{
			RelayID:   cfg.Outbox.RelayID,
			BatchSize: cfg.Outbox.BatchSize,
			Interval:  cfg.Outbox.Interval,
			Lease:     cfg.Outbox.Lease,
		})
		go func() {
			if err := relay.Run(ctx); err != nil {
				appLogger.Error("outbox relay stopped", zap.Error(err))
			}
		}()

		var dedup invListenerPkg.Deduper
		if idem != nil {
			dedup = idem
		}
		invListener := invListenerPkg.NewInvoiceListener(
			invListenerPkg.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.InvoiceTopic, cfg.Kafka.ConsumerGroup),
			dedup, invUC, appLogger,
		)
		go invListener.Start(ctx)
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	} else {
		appLogger.Warn("No Kafka brokers configured, events stay in the outbox")
	}

	// 8. Initialize Handlers
	catHandler := catH.NewCategoryHandler(catUC, appLogger)
	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	jobHandler := jobH.NewJobCardHandler(jobUC, materials, appLogger)
	trHandler := trH.NewTestingRecordHandler(trUC, appLogger)
	srHandler := srH.NewSalesReturnHandler(srUC, appLogger)

	writes := func(scope string) func(http.Handler) http.Handler {
		if idem == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return idempotency.Middleware(idem, scope, auth.UserIDString, appLogger)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.Recoverer(appLogger))
	router.Use(tracing.Middleware("workshop-http"))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.With(auth.RequireRole(auth.RoleAdmin, auth.RoleStorekeeper)).Route("/inventory", func(r chi.Router) {
			r.Route("/categories", catHandler.Routes)
			invHandler.Routes(r)
		})

		r.Route("/job-cards", func(r chi.Router) {
			r.Get("/{id}/testing-records", trHandler.ListByJobCard)
			jobHandler.Routes(r, r.With(writes("job-cards")))
		})

		r.Route("/testing-records", func(r chi.Router) {
			trHandler.Routes(r, r.With(writes("testing-records")))
		})

		r.With(auth.RequireRole(auth.RoleAdmin)).Route("/sales-returns", func(r chi.Router) {
			srHandler.Routes(r, r.With(writes("sales-returns")))
		})
	})

	httpServer := &http.Server{
		Addr:         listenAddr(cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 9. Start gRPC ops server
	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware.UnaryLogger(appLogger)),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("grpc server stopped", zap.Error(err))
		}
	}()
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.Driver == "sqlite" {
		return database.NewSQLite(ctx, cfg.Database.SQLitePath)
	}
	return database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
