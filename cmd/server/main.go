package main // Entry point package

import (
	"context"   // shutdown and migration deadlines
	"errors"    // distinguishes a clean server close
	"log"       // fatal startup errors
	"log/slog"  // structured application logging
	"net/http"  // http.ErrServerClosed
	"os"        // stdout for the log handler
	"os/signal" // SIGINT/SIGTERM handling
	"syscall"   // SIGTERM
	"time"      // timeouts

	"github.com/joho/godotenv"                      // .env loading for local runs
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // panic recovery

	"github.com/iliyamo/pollution-watch/internal/config"
	"github.com/iliyamo/pollution-watch/internal/database"
	"github.com/iliyamo/pollution-watch/internal/handler"
	"github.com/iliyamo/pollution-watch/internal/middleware"
	"github.com/iliyamo/pollution-watch/internal/queue"
	"github.com/iliyamo/pollution-watch/internal/repository"
	"github.com/iliyamo/pollution-watch/internal/router"
	"github.com/iliyamo/pollution-watch/internal/service"
	"github.com/iliyamo/pollution-watch/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load() // exits on missing secrets or database settings
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	issuer, err := utils.NewTokenIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("database: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Report events go to RabbitMQ when enabled; the consumer writes them to
	// logs/pollution.log in the background.
	qcfg := config.LoadQueueConfig()
	var events service.EventPublisher = queue.NopPublisher{}
	if qcfg.Enabled {
		events = queue.NewPublisher(qcfg.URL, qcfg.QueueName)
		if qcfg.ConsumerEnabled {
			go func() {
				if err := queue.StartConsumer(ctx, qcfg.URL, qcfg.QueueName, qcfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("pollution-consumer stopped", slog.String("err", err.Error()))
				}
			}()
		}
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	users := repository.NewUserRepo(db)
	sessions := repository.NewTokenRepo(db)
	reports := repository.NewPollutionRepo(db)
	favorites := repository.NewFavoriteRepo(db)

	authSvc := service.NewAuthService(users, sessions, issuer, cfg.BcryptCost)
	authSvc.AllowAdminSignup(cfg.AdminSignup)
	pollutionSvc := service.NewPollutionService(reports, users, events)
	favoriteSvc := service.NewFavoriteService(favorites, reports)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, authSvc), issuer, limiter)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, authSvc), issuer)
	router.RegisterPollutions(e, handler.NewPollutionHandler(cfg, pollutionSvc), issuer)
	router.RegisterFavorites(e, handler.NewFavoriteHandler(cfg, favoriteSvc), issuer)

	addr := ":" + cfg.Port
	go func() {
		slog.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", slog.String("err", err.Error()))
	}
}

// newLogger returns a JSON logger, or a text logger in dev.
func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "dev" {
		opts.Level = slog.LevelDebug
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
