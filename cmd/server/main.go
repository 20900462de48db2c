package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkpress/content-platform/internal/app"
	"github.com/inkpress/content-platform/internal/config"
	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/http/handler"
	"github.com/inkpress/content-platform/internal/http/middleware"
	"github.com/inkpress/content-platform/internal/http/router"
	"github.com/inkpress/content-platform/internal/observability"
	"github.com/inkpress/content-platform/internal/repository"
	"github.com/inkpress/content-platform/internal/security"
	"github.com/inkpress/content-platform/internal/service"
)

func main() {
	root := &cobra.Command{
		Use:           "content-platform",
		Short:         "HTTP content platform with an access-control gate",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	slog.SetDefault(logger)

	runtime, err := observability.InitRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&domain.Session{}, &domain.User{}, &domain.Post{}, &domain.Comment{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)

	events := repository.NewRedisEventStore(redisClient, "")
	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	limiter := service.NewRateLimiter(events, cfg.RateLimitWindow, cfg.RateLimitRetention, cfg.RateLimitThreshold, nil)
	sessions := service.NewSessionService(sessionRepo, jwtMgr, cfg.SessionTTL, cfg.AccessTokenTTL, nil)
	gate := service.NewAccessGate(limiter, jwtMgr)
	auth := service.NewAuthService(userRepo, sessions, nil)
	content := service.NewContentService(postRepo, commentRepo)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:        handler.NewAuthHandler(auth, sessions, cfg.SessionTTL, cfg.CookieSecure),
		DeviceHandler:      handler.NewDeviceHandler(sessions),
		UserHandler:        handler.NewUserHandler(auth),
		PostHandler:        handler.NewPostHandler(content),
		CommentHandler:     handler.NewCommentHandler(content),
		Gate:               gate,
		RateLimitThreshold: cfg.RateLimitThreshold,
		RateLimitWindow:    cfg.RateLimitWindow,
		RateLimitMode:      middleware.FailClosed,
		EnableOTelHTTP:     cfg.EnableOTelHTTP,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app.New(cfg, logger, server, runtime, sessions).Run(ctx)
}
