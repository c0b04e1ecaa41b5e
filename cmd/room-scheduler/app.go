package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-room-scheduler/internal/handler"
	"github.com/noah-isme/sma-room-scheduler/internal/middleware"
	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/notification"
	"github.com/noah-isme/sma-room-scheduler/internal/repository"
	"github.com/noah-isme/sma-room-scheduler/internal/repository/mongostore"
	"github.com/noah-isme/sma-room-scheduler/internal/service"
	"github.com/noah-isme/sma-room-scheduler/internal/timeslot"
	"github.com/noah-isme/sma-room-scheduler/pkg/cache"
	"github.com/noah-isme/sma-room-scheduler/pkg/config"
	"github.com/noah-isme/sma-room-scheduler/pkg/database"
	"github.com/noah-isme/sma-room-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-room-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-room-scheduler/pkg/middleware/requestid"
)

// scheduleStore is satisfied by both the Postgres repository and the Mongo store.
type scheduleStore interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, int, error)
	FindByRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error)
	FindByDay(ctx context.Context, day string) ([]models.ScheduleRecord, error)
	DistinctRooms(ctx context.Context) ([]string, error)
	ListConflictBuckets(ctx context.Context) ([]models.RoomDayBucket, error)
	FindMatching(ctx context.Context, selector models.ScheduleSelector) ([]models.ScheduleRecord, error)
	Create(ctx context.Context, record *models.ScheduleRecord) error
	Replace(ctx context.Context, record *models.ScheduleRecord) error
}

type scanLock interface {
	Acquire(ctx context.Context) (bool, func(context.Context) error, error)
}

type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService

	schedules scheduleStore
	conflicts service.ConflictStore
	monitor   *service.ConflictMonitor
	async     *notification.AsyncNotifier

	handlers  handler.Handlers
	readiness []handler.ReadinessCheck
	closers   []func(context.Context) error
}

// newApplication connects the configured stores and builds every service.
// asyncNotify routes notifications through the retrying worker queue.
func newApplication(ctx context.Context, cfg *config.Config, logr *zap.Logger, asyncNotify bool) (*application, error) {
	app := &application{cfg: cfg, logger: logr, metrics: service.NewMetricsService()}

	if err := app.connectStores(ctx); err != nil {
		app.close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			app.close()
			return nil, err
		}
		redisClient = client
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		app.readiness = append(app.readiness, handler.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}

	hours, err := timeslot.NewBusinessHours(cfg.BusinessHours.Start, cfg.BusinessHours.End, timeslot.WeekendPolicy(cfg.BusinessHours.WeekendPolicy))
	if err != nil {
		app.close()
		return nil, fmt.Errorf("business hours: %w", err)
	}

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled && redisClient != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), app.metrics, cfg.Cache.AvailabilityTTL, logr, true)
	}

	var lock scanLock
	if cfg.Conflicts.LockEnabled && redisClient != nil {
		lock = repository.NewScanLockRepository(redisClient, cfg.Conflicts.LockTTL)
	}

	sink, err := app.notificationSink(ctx, asyncNotify)
	if err != nil {
		app.close()
		return nil, err
	}

	validate := validator.New()
	analyzer := service.NewConflictAnalyzer(logr)
	app.monitor = service.NewConflictMonitor(
		app.schedules,
		app.conflicts,
		lock,
		service.NewConflictNotifier(sink, app.metrics, logr),
		analyzer,
		app.metrics,
		service.MonitorConfig{
			Interval:    cfg.Conflicts.ScanInterval,
			AdminID:     cfg.Conflicts.AdminID,
			Concurrency: cfg.Conflicts.ScanConcurrency,
			StopTimeout: cfg.Conflicts.StopTimeout,
			ScanOnStart: cfg.Conflicts.ScanOnStart,
		},
		logr,
	)

	app.handlers = handler.Handlers{
		Schedule: handler.NewScheduleHandler(
			service.NewScheduleService(app.schedules, analyzer, cacheSvc, validate, logr),
			service.NewReallocationService(app.schedules, analyzer, cacheSvc, validate, logr),
		),
		Availability: handler.NewAvailabilityHandler(service.NewAvailabilityService(app.schedules, analyzer, hours, cacheSvc, app.metrics, validate, logr)),
		Conflict:     handler.NewConflictHandler(service.NewConflictService(app.conflicts, app.monitor, validate, logr)),
		Metrics:      handler.NewMetricsHandler(app.metrics, app.readiness...),
	}
	return app, nil
}

func (a *application) connectStores(ctx context.Context) error {
	switch a.cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := database.NewMongo(ctx, a.cfg.Mongo)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Disconnect)
		schedules := db.Collection(a.cfg.Mongo.SchedulesCollection)
		conflicts := db.Collection(a.cfg.Mongo.ConflictsCollection)
		if err := mongostore.EnsureIndexes(ctx, schedules, conflicts); err != nil {
			return err
		}
		a.schedules = mongostore.NewScheduleStore(schedules)
		a.conflicts = mongostore.NewConflictStore(conflicts)
		a.readiness = append(a.readiness, handler.ReadinessCheck{
			Name:  "mongo",
			Check: func(ctx context.Context) error { return client.Ping(ctx, nil) },
		})
	case config.DriverPostgres, "":
		db, err := database.NewPostgres(ctx, a.cfg.Database)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.schedules = repository.NewScheduleRepository(db)
		a.conflicts = repository.NewConflictRepository(db)
		a.readiness = append(a.readiness, handler.ReadinessCheck{Name: "postgres", Check: db.PingContext})
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", a.cfg.Database.Driver)
	}
	return nil
}

func (a *application) notificationSink(ctx context.Context, asyncNotify bool) (notification.Sink, error) {
	cfg := a.cfg.Notifications
	var sinks []notification.Sink
	if cfg.LogEnabled {
		sinks = append(sinks, notification.NewLogNotifier(a.logger))
	}
	if len(cfg.ShoutrrrURLs) > 0 {
		push, err := notification.NewShoutrrrNotifier(cfg.ShoutrrrURLs, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, push)
	}
	fanout := notification.NewFanout(sinks...)
	if fanout.Len() == 0 {
		a.logger.Sugar().Warnw("no notification sinks configured; conflicts are stored only")
	}
	if !asyncNotify || !cfg.Async {
		return fanout, nil
	}

	a.async = notification.NewAsyncNotifier(fanout, notification.AsyncConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.Timeout,
	}, a.logger)
	a.async.Start(ctx)
	return a.async, nil
}

func (a *application) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(a.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	handler.Register(r, a.cfg.APIPrefix, a.handlers)
	if a.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

// close stops the notification workers and releases connections in reverse order.
func (a *application) close() {
	if a.async != nil {
		a.async.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Sugar().Warnw("close resource", "error", err)
		}
	}
}
