package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/config"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/database"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/logger"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/repository"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/service"
)

const serviceName = "permission-service"

// App holds all application components
type App struct {
	Config            *config.Config
	Logger            *zap.Logger
	Database          *database.Database
	PermissionService *service.PermissionService
	AccessChecker     service.AccessChecker
	Hierarchy         *service.HierarchyService
	Exporter          *service.ExportService
	CacheService      service.CacheService
}

// InitializeApp initializes all application components
func InitializeApp() (*App, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run migrations
	if err := db.AutoMigrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("database connection established")

	// Initialize repositories
	permissionRepo := repository.NewPermissionRepository(db.DB)
	roleRepo := repository.NewRoleRepository(db.DB)

	// Initialize services
	cacheService, err := service.NewCache(&cfg.Cache)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	log.Info("cache initialized",
		zap.String("type", cfg.Cache.Type),
		zap.Bool("enabled", cfg.Cache.Enabled),
	)

	publisher := service.NewLogPublisher(log)
	permissionService := service.NewPermissionService(permissionRepo, roleRepo, cacheService, publisher)
	accessChecker := service.NewAccessChecker(permissionRepo, cacheService, log)
	hierarchy := service.NewHierarchyService(permissionRepo)
	exporter := service.NewExportService(permissionRepo)

	log.Info("permission service initialized")

	return &App{
		Config:            cfg,
		Logger:            log,
		Database:          db,
		PermissionService: permissionService,
		AccessChecker:     accessChecker,
		Hierarchy:         hierarchy,
		Exporter:          exporter,
		CacheService:      cacheService,
	}, nil
}

// Close cleans up application resources
func (app *App) Close() error {
	app.Logger.Info("closing application resources")
	if app.Database != nil {
		return app.Database.Close()
	}
	return nil
}

// Run starts the gRPC endpoint and blocks until a shutdown signal. Only the
// standard health service is registered here; the domain RPC surface is
// wired by the deployment on top of the use-case services.
func Run(app *App) error {
	lis, err := net.Listen("tcp", app.Config.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.Config.Server.Address, err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("server listening", zap.String("address", app.Config.Server.Address))
		errCh <- grpcServer.Serve(lis)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		app.Logger.Info("shutting down server", zap.String("signal", sig.String()))
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
		return nil
	}
}

func main() {
	app, err := InitializeApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()
	defer app.Logger.Sync()

	if err := Run(app); err != nil {
		app.Logger.Fatal("application error", zap.Error(err))
	}
}
