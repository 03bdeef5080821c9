package hookloop

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"

	"github.com/hookloop/hookloop/internal/actions"
	"github.com/hookloop/hookloop/internal/config"
	"github.com/hookloop/hookloop/internal/controllers"
	"github.com/hookloop/hookloop/internal/core"
	"github.com/hookloop/hookloop/internal/engine"
	"github.com/hookloop/hookloop/internal/migrations"
	"github.com/hookloop/hookloop/internal/poller"
	"github.com/hookloop/hookloop/internal/repository"
	"github.com/hookloop/hookloop/internal/resilience"
	"github.com/hookloop/hookloop/internal/schedule"

	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/go-sql-driver/mysql"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Start boots the run engine, the poll and schedule sweepers, and the HTTP
// server. This call blocks until the HTTP server stops.
func Start(mux *http.ServeMux) error {

	databaseType := config.GetSystemSettingString(config.DATABASE_TYPE)
	if databaseType == "" || (databaseType != config.DATABASE_TYPE_POSTGRES && databaseType != config.DATABASE_TYPE_MYSQL && databaseType != config.DATABASE_TYPE_SQLLITE) {
		panic("HLOOP_DATABASE_TYPE must be set to one of the following values: POSTGRES, MYSQL, SQLLITE")
	}

	var db *sql.DB
	if databaseType == config.DATABASE_TYPE_POSTGRES {
		db = setupPostgresDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_SQLLITE {
		db = setupSqlLiteDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_MYSQL {
		db = setupMysqlDatabase()
		defer db.Close()
	}

	clock := core.NewRealClock()

	workflowRepo := repository.NewWorkflowRepository(db, clock)
	runRepo := repository.NewRunRepository(db, clock)
	scheduleRepo := repository.NewScheduleRepository(db, clock)

	redisClient := redis.NewClient(&redis.Options{
		Addr: config.GetSystemSettingString(config.REDIS_ADDRESS),
	})
	locker := redislock.New(redisClient)

	client := &http.Client{Timeout: 30 * time.Second}
	registry := buildActionRegistry(client, clock)

	runCreator := engine.NewRunCreator(runRepo, clock)
	chainExecutor := engine.NewChainExecutor(runRepo, workflowRepo, registry)
	dispatcher := engine.NewDispatcher(runRepo, chainExecutor)

	ctx := context.Background()

	outboxInterval, _ := time.ParseDuration(config.GetSystemSettingString(config.ENGINE_OUTBOX_INTERVAL))
	go dispatcher.Start(ctx, outboxInterval)

	hashTTL := time.Duration(config.GetSystemSettingInteger(config.POLL_HASH_TTL_HOURS)) * time.Hour
	hashStore := poller.NewRedisHashStore(redisClient, "")
	rowPoller := poller.NewPoller(hashStore, hashTTL)
	pollInterval, _ := time.ParseDuration(config.GetSystemSettingString(config.POLL_SWEEP_INTERVAL))
	pollSweeper := poller.NewSweeper(workflowRepo, runCreator, rowPoller, locker,
		buildPollSources(client, clock), pollInterval)
	go pollSweeper.Start(ctx)

	scheduleInterval, _ := time.ParseDuration(config.GetSystemSettingString(config.SCHEDULE_SWEEP_INTERVAL))
	scheduleSweeper := schedule.NewSweeper(scheduleRepo, runCreator, clock, scheduleInterval,
		config.GetSystemSettingInteger(config.ENGINE_BATCH_SIZE))
	go scheduleSweeper.Start(ctx)

	if mux == nil {
		mux = http.NewServeMux()
	}
	hooksController := controllers.NewHooksController(workflowRepo, runCreator, dispatcher, clock)
	hooksController.RegisterRoutes(mux)
	runsController := controllers.NewRunsController(runRepo)
	runsController.RegisterRoutes(mux)

	addr := ":" + config.GetSystemSettingString(config.SERVER_WEB_PORT)
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		addr = v
	}
	slog.Info("Starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("HTTP server failed", "error", err)
		return err
	}
	return nil
}

// buildActionRegistry wires each built-in action type with its own resilience
// executor so one provider's failures never trip another's breaker.
func buildActionRegistry(client *http.Client, clock core.Clock) *actions.Registry {
	registry := actions.NewRegistry()

	registry.Register(actions.TypeEmailSend, actions.NewEmailHandler(
		config.GetSystemSettingString(config.EMAIL_RELAY_URL),
		config.GetSystemSettingString(config.EMAIL_API_KEY),
		client, newProviderExecutor("email", clock), clock))

	registry.Register(actions.TypeSolanaTransfer, actions.NewSolanaHandler(
		config.GetSystemSettingString(config.SOLANA_WALLET_URL),
		client, newProviderExecutor("solana", clock), clock))

	registry.Register(actions.TypeSheetsAppendRow, actions.NewSheetsHandler(
		config.GetSystemSettingString(config.SHEETS_API_URL),
		config.GetSystemSettingString(config.SHEETS_API_TOKEN),
		client, newSheetsExecutor("sheets", clock), clock))

	registry.Register(actions.TypeSlackPostMessage, actions.NewSlackHandler(
		client, newProviderExecutor("slack", clock), clock))

	registry.Register(actions.TypeHTTPRequest, actions.NewHTTPRequestHandler(
		client, newProviderExecutor("http", clock), clock))

	return registry
}

func buildPollSources(client *http.Client, clock core.Clock) map[string]poller.Source {
	return map[string]poller.Source{
		poller.SourceTypeSheetRows: poller.NewSheetRowsSource(
			config.GetSystemSettingString(config.SHEETS_API_URL),
			config.GetSystemSettingString(config.SHEETS_API_TOKEN),
			client, newSheetsExecutor("sheets-poll", clock), clock),
	}
}

func newProviderExecutor(name string, clock core.Clock) *resilience.Executor {
	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		MaxRequestsPerSecond: 10,
		MaxRequestsPerMinute: 300,
	}, clock)
	breaker := resilience.NewCircuitBreaker(5, 60*time.Second, clock)
	return resilience.NewExecutor(name, limiter, breaker, resilience.DefaultRetryConfig(), clock)
}

// newSheetsExecutor adds the hourly cost quota the sheets API enforces.
func newSheetsExecutor(name string, clock core.Clock) *resilience.Executor {
	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		MaxRequestsPerSecond: 10,
		MaxRequestsPerMinute: 60,
		MaxCostPerHour:       1000,
	}, clock)
	breaker := resilience.NewCircuitBreaker(5, 60*time.Second, clock)
	return resilience.NewExecutor(name, limiter, breaker, resilience.DefaultRetryConfig(), clock)
}

func setupPostgresDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("HLOOP_DATABASE_URL must be set when using the POSTGRES database type")
	}
	slog.Info("Using Postgres database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("postgres", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening Postgres database")
	dbPostgres, err := sql.Open("postgres", dbURL)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbPostgres
}

func setupSqlLiteDatabase() *sql.DB {
	fileName := config.GetSystemSettingString(config.DATABASE_SQLLITE_FILE_NAME)
	if fileName == "" {
		panic("HLOOP_DATABASE_SQLLITE_FILE_NAME must be set")
	}
	dbURL := "sqlite3://" + fileName
	slog.Info("Using SQLite database", "file", fileName)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("sqllite3", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening SQLite database")
	dbSqlLite, err := sql.Open("sqlite3", fileName)
	if err != nil {
		log.Fatalf("Failed to open SQLite DB: %v", err)
	}
	if err := dbSqlLite.Ping(); err != nil {
		log.Fatalf("Failed to ping SQLite DB: %v", err)
	}
	return dbSqlLite
}

func setupMysqlDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("HLOOP_DATABASE_URL must be set when using the MYSQL database type")
	}
	// panic if url does not contain ?parseTime=true
	if !strings.Contains(dbURL, "parseTime=true") {
		panic("HLOOP_DATABASE_URL must contain 'parseTime=true' for MySQL")
	}
	// panic if url does not  start with mysql://
	if !strings.HasPrefix(dbURL, "mysql://") {
		panic("HLOOP_DATABASE_URL must start with 'mysql://' for MySQL")
	}

	slog.Info("Using MySQL database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("mysql", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening MySQL database")
	//remove mysql:// prefix from url
	dbMysql, err := sql.Open("mysql", strings.Replace(dbURL, "mysql://", "", 1))
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbMysql
}

func runMigrationsFromEmbed(migrationsPath string, dbURL string) error {
	sub, err := fs.Sub(migrations.FS, migrationsPath)
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func SetupLogger() {
	w := os.Stderr
	_ = slog.New(tint.NewHandler(w, nil))
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}
