package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
	authpg "github.com/expenseops/expense-approval/internal/auth/postgres"
	"github.com/expenseops/expense-approval/internal/category"
	categorypg "github.com/expenseops/expense-approval/internal/category/postgres"
	"github.com/expenseops/expense-approval/internal/core/events"
	"github.com/expenseops/expense-approval/internal/directexpense"
	directexpensepg "github.com/expenseops/expense-approval/internal/directexpense/postgres"
	"github.com/expenseops/expense-approval/internal/ledger"
	ledgerpg "github.com/expenseops/expense-approval/internal/ledger/postgres"
	"github.com/expenseops/expense-approval/internal/notification"
	"github.com/expenseops/expense-approval/internal/project"
	projectpg "github.com/expenseops/expense-approval/internal/project/postgres"
	"github.com/expenseops/expense-approval/internal/reimbursement"
	reimbursementpg "github.com/expenseops/expense-approval/internal/reimbursement/postgres"
	"github.com/expenseops/expense-approval/internal/transport/rest"
	"github.com/expenseops/expense-approval/internal/user"
	userpg "github.com/expenseops/expense-approval/internal/user/postgres"
	"github.com/expenseops/expense-approval/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Format, config.Logging.Level)
	appLogger := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ORM: %w", err)
	}

	router := chi.NewRouter()
	wireServices(router, db, gormDB, config, appLogger)

	return &Dependencies{
		Config: config,
		Logger: appLogger,
		DB:     db,
		Router: router,
	}, nil
}

// wireServices builds the dependency graph: repositories over GORM, services
// on top, handlers mounted on the role-prefixed router.
func wireServices(router *chi.Mux, db *sqlx.DB, gormDB *gorm.DB, config *internal.Config, appLogger *slog.Logger) {
	eventBus := events.NewEventBus(appLogger)
	notification.NewSubscriber(appLogger).Register(eventBus)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpg.NewAuthRepository(gormDB), tokenGen, appLogger)
	authHandler := auth.NewHandler(authService)
	rbac := auth.NewRBACAuthorization(appLogger)

	projectRepo := projectpg.NewProjectRepository(gormDB)
	projectService := project.NewService(projectRepo, appLogger)

	categoryService := category.NewService(categorypg.NewCategoryRepository(gormDB), appLogger)

	reimbursementService := reimbursement.NewService(
		reimbursementpg.NewReimbursementRepository(gormDB),
		projectRepo,
		categoryService,
		eventBus,
		appLogger,
	)

	directExpenseService := directexpense.NewService(
		directexpensepg.NewDirectExpenseRepository(gormDB),
		projectRepo,
		categoryService,
		eventBus,
		appLogger,
	)

	ledgerService := ledger.NewService(ledgerpg.NewLedgerRepository(gormDB), appLogger)
	userService := user.NewService(userpg.NewUserRepository(gormDB), config.Security.BCryptCost, appLogger)

	handlers := rest.Handlers{
		Auth:          authHandler,
		Project:       project.NewHandler(projectService),
		Category:      category.NewHandler(categoryService),
		Reimbursement: reimbursement.NewHandler(reimbursementService),
		DirectExpense: directexpense.NewHandler(directExpenseService),
		Ledger:        ledger.NewHandler(ledgerService),
		User:          user.NewHandler(userService),
	}

	rest.RegisterAllRoutes(router, db.DB, handlers, rbac, config.Server.AllowedOrigins, appLogger)
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm opens GORM over the already-established connection so the pool is
// shared between raw queries and the repositories.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
