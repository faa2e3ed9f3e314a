package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/mentor-booking-api/api/swagger"
	"github.com/noah-isme/mentor-booking-api/internal/handler"
	internalmiddleware "github.com/noah-isme/mentor-booking-api/internal/middleware"
	"github.com/noah-isme/mentor-booking-api/internal/repository"
	"github.com/noah-isme/mentor-booking-api/internal/service"
	"github.com/noah-isme/mentor-booking-api/pkg/cache"
	"github.com/noah-isme/mentor-booking-api/pkg/config"
	"github.com/noah-isme/mentor-booking-api/pkg/database"
	"github.com/noah-isme/mentor-booking-api/pkg/events"
	"github.com/noah-isme/mentor-booking-api/pkg/export"
	"github.com/noah-isme/mentor-booking-api/pkg/jobs"
	"github.com/noah-isme/mentor-booking-api/pkg/logger"
	"github.com/noah-isme/mentor-booking-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/mentor-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mentor-booking-api/pkg/middleware/requestid"
)

// @title Mentor Booking API
// @version 1.0.0
// @description Availability, slot generation, month occupancy and lesson booking for the mentoring marketplace.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"postgres": db}

	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.RateLimit.Enabled || cfg.Booking.DraftStore == "redis" {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = redisPinger{client: redisClient}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	location := cfg.Scheduling.Location()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TutorialTTL, logr, cfg.Cache.Enabled)

	availabilityRepo := repository.NewAvailabilityRepository(db)
	tutorialRepo := repository.NewTutorialRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	userRepo := repository.NewUserRepository(db)

	availabilitySvc := service.NewAvailabilityService(availabilityRepo, validate, logr, service.AvailabilityConfig{
		SingleWindowPerDay: cfg.Scheduling.SingleWindowPerDay,
	})
	slotSvc := service.NewSlotService(tutorialRepo, availabilitySvc, lessonRepo, cacheSvc, metrics, logr, service.SlotConfig{
		Location:     location,
		LeadTime:     cfg.Scheduling.LeadTime,
		FetchTimeout: cfg.Scheduling.SlotFetchTimeout,
		TutorialTTL:  cfg.Cache.TutorialTTL,
	})
	occupancySvc := service.NewOccupancyService(slotSvc, metrics, logr, service.OccupancyConfig{
		BatchSize: cfg.Scheduling.OccupancyBatchSize,
		Location:  location,
	})
	exportSvc := service.NewOccupancyExportService(occupancySvc, export.NewRenderer(), location, logr)
	ticketSvc := service.NewTicketService(ticketRepo, lessonRepo, logr)
	bookingSvc := service.NewBookingService(ticketSvc, slotSvc, lessonRepo, validate, metrics, logr)
	lessonSvc := service.NewLessonService(lessonRepo, validate, metrics, logr)

	var draftStore service.DraftStore
	if cfg.Booking.DraftStore == "redis" {
		draftStore = repository.NewBookingDraftRepository(cacheRepo, cfg.Booking.DraftTTL)
	} else {
		memStore := service.NewMemoryDraftStore(cfg.Booking.DraftTTL)
		memStore.StartSweeper(ctx, 0)
		draftStore = memStore
	}
	sessionSvc := service.NewBookingSessionService(ticketSvc, slotSvc, occupancySvc, bookingSvc, draftStore, validate, logr)

	// Notifications: booking hooks enqueue jobs; workers publish to Kafka and send mail.
	mux := jobs.NewMux()
	queue := jobs.NewQueue("notifications", mux.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	var publisher *events.Publisher
	if len(cfg.Notifications.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Notifications.KafkaBrokers, cfg.Notifications.KafkaTopic, logr)
		defer publisher.Close() //nolint:errcheck
	}
	var mail *mailer.Mailer
	if cfg.Notifications.SMTPHost != "" {
		mail = mailer.New(cfg.Notifications.SMTPHost, cfg.Notifications.SMTPPort, cfg.Notifications.SMTPUser, cfg.Notifications.SMTPPassword, cfg.Notifications.MailFrom)
	}
	notificationSvc := newNotificationService(queue, publisher, mail, userRepo, location, logr)
	notificationSvc.Register(mux)
	bookingSvc.OnBooked(notificationSvc.LessonBooked)
	lessonSvc.OnTransition(notificationSvc.LessonTransitioned)
	queue.Start(ctx)
	defer queue.Stop()

	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	var limiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limiter = internalmiddleware.RateLimit(internalmiddleware.NewRedisWindowCounter(redisClient), internalmiddleware.RateLimitConfig{
			Limit:    cfg.RateLimit.Limit,
			Window:   cfg.RateLimit.Window,
			Prefix:   "rl:occupancy",
			FailOpen: true,
			Logger:   logr,
		})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Tutorials:    handler.NewTutorialHandler(slotSvc, occupancySvc, exportSvc, ticketSvc),
		Tickets:      handler.NewTicketHandler(ticketSvc, bookingSvc),
		Lessons:      handler.NewLessonHandler(lessonSvc),
		Sessions:     handler.NewBookingSessionHandler(sessionSvc, location),
		Metrics:      handler.NewMetricsHandler(metrics, checks),
	}, handler.RouteOptions{Tokens: tokenSvc, OccupancyLimiter: limiter})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newNotificationService passes only configured sinks so absent ones stay nil interfaces.
func newNotificationService(queue *jobs.Queue, publisher *events.Publisher, mail *mailer.Mailer, users *repository.UserRepository, location *time.Location, logr *zap.Logger) *service.NotificationService {
	switch {
	case publisher != nil && mail != nil:
		return service.NewNotificationService(queue, publisher, mail, users, location, logr)
	case publisher != nil:
		return service.NewNotificationService(queue, publisher, nil, users, location, logr)
	case mail != nil:
		return service.NewNotificationService(queue, nil, mail, users, location, logr)
	default:
		return service.NewNotificationService(queue, nil, nil, users, location, logr)
	}
}
