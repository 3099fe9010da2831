package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/reform.v1"
	"gopkg.in/reform.v1/dialects/postgresql"

	"github.com/corebank/transferd/engine"
	"github.com/corebank/transferd/httputils"
	"github.com/corebank/transferd/services/accounts"
	"github.com/corebank/transferd/services/auth"
	"github.com/corebank/transferd/services/updater"
	"github.com/corebank/transferd/services/users"
)

var VERSION = "dev"

var (
	addrF               = flag.String("addr", ":8080", "HTTP server address.")
	debugAddrF          = flag.String("debug-addr", ":9090", "Debug server address (metrics, health).")
	onLoggerDebugLevelF = flag.Bool("logger-debug-level", false, "Enable debug level logger.")
	optimisticF         = flag.Bool("optimistic", false, "Rely on store conflict detection instead of per-account locks.")
)

func main() {
	var wg sync.WaitGroup
	flag.Parse()
	level := "INFO"
	if *onLoggerDebugLevelF {
		level = "DEBUG"
	}
	defaultLogger(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	zap.L().Info("Starting transferd...", zap.String("version", VERSION))
	defer func() { zap.L().Info("Done.") }()

	sqlDB := setupPostgres(os.Getenv("PG_CONN"), 0, 5, 5)
	db := reform.NewDB(sqlDB, postgresql.Dialect, reform.NewPrintfLogger(zap.L().Sugar().Debugf))

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		zap.L().Panic("JWT_SECRET is required.")
	}
	tokens := auth.NewTokenManager(jwtSecret, auth.DefaultTokenTTL)

	var events engine.Publisher
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		nc, err := nats.Connect(natsURL)
		if err != nil {
			zap.L().Panic("Failed to connect to NATS.", zap.Error(err))
		}
		defer nc.Close()
		enc, err := nats.NewEncodedConn(nc, nats.JSON_ENCODER)
		if err != nil {
			zap.L().Panic("Failed to wrap NATS connection.", zap.Error(err))
		}
		events = updater.NewBroadcaster(enc)
		zap.L().Info("NATS - configured!")
	} else {
		zap.L().Info("NATS_URL is empty, balance changes are not published.")
	}

	store := engine.NewPostgresStore(sqlDB)
	var guard engine.ConsistencyGuard = engine.NewOrderedGuard()
	if *optimisticF {
		guard = engine.OptimisticGuard{}
	}
	coordinator := engine.NewCoordinator(store, guard, events)
	manager := engine.NewAccountManager(db)

	usersServer := users.NewServer(users.NewService(db, manager), tokens)
	accountsServer := accounts.NewServer(coordinator, manager)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	usersServer.Register(app.Group("/v1/users"))
	accountsServer.Register(app.Group("/v1/accounts", auth.Middleware(tokens)))

	debugServer := &http.Server{Addr: *debugAddrF, Handler: httputils.DebugMux()}

	// graceful stop
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			zap.L().Error("HTTP shutdown error.", zap.Error(err))
		}
		_ = debugServer.Close()
	}()

	zap.L().Info("Debug server start.", zap.String("address", *debugAddrF))
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := debugServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Error("Debug server error.", zap.Error(err))
		}
	}()

	zap.L().Info("HTTP server start.", zap.String("address", *addrF))
	if err := app.Listen(*addrF); err != nil {
		zap.L().Panic("Failed to serve.", zap.Error(err))
	}

	wg.Wait()
}

// defaultLogger configures the global zap logger.
//
// Available values of level:
// - DEBUG
// - INFO
// - WARN
// - ERROR
func defaultLogger(levelSet string) {
	level := zapcore.InfoLevel
	if err := level.Set(levelSet); err != nil {
		panic(err)
	}
	config := zap.NewProductionConfig()
	config.Level.SetLevel(level)
	l, err := config.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(l)
	zap.RedirectStdLog(l.Named("stdlog"))
}

func setupPostgres(conn string, maxLifetime time.Duration, maxOpen, maxIdle int) *sql.DB {
	if conn == "" {
		zap.L().Panic("PG_CONN is required.")
	}
	sqlDB, err := sql.Open("postgres", conn)
	if err != nil {
		zap.L().Panic("Failed to connect to PostgreSQL.", zap.Error(err))
	}
	sqlDB.SetConnMaxLifetime(maxLifetime)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if err := sqlDB.Ping(); err != nil {
		zap.L().Panic("Failed to ping PostgreSQL.", zap.Error(err))
	}
	return sqlDB
}
