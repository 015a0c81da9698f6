// Package server wires configuration, storage and handlers into a running
// HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskboard/internal/cache"
	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/monitoring"
	"taskboard/internal/services"
	"taskboard/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 15 * time.Second

// Services is the set of business services the handlers run on.
type Services struct {
	Auth       services.AuthService
	Register   services.RegisterService
	Tasks      services.TaskService
	Checklists services.ChecklistService
	Comments   services.CommentService
	Teams      services.TeamService
	Board      services.BoardService
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	pool     *database.DatabasePool
	redis    *redis.Client
	cache    *cache.MultiLevelCache
	monitor  *monitoring.Monitor
	services Services
	router   *gin.Engine
}

// New opens the database (running migrations), connects redis when enabled
// and builds the router.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	pool, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(pool.DB); err != nil {
		_ = pool.Close()
		return nil, err
	}

	s := &Server{
		config:  cfg,
		logger:  log,
		pool:    pool,
		monitor: monitoring.NewMonitor(),
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		s.redis = cache.NewRedisClient(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		redisCache = cache.NewRedisCache(s.redis, "taskboard:")
	}
	s.cache = cache.NewMultiLevelCache(redisCache, log.Named("cache"))

	s.services = s.buildServices()
	s.registerHealthChecks()
	s.router = s.setupRouter()
	return s, nil
}

// OpenDatabase connects using the configured driver and pool limits.
func OpenDatabase(cfg *config.Config) (*database.DatabasePool, error) {
	level := logger.Warn
	if cfg.Logging.Level == "debug" {
		level = logger.Info
	}
	return database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        level,
	})
}

func (s *Server) buildServices() Services {
	teams := services.NewTeamService()
	tasks, checklists, comments := services.NewCachedServices(
		services.NewTaskService(),
		services.NewChecklistService(),
		services.NewCommentService(),
		s.cache,
		s.config.App.BoardTTL,
		s.logger.Named("board"),
	)

	s.monitor.RegisterStats("board_cache", tasks.GetCacheStats)

	return Services{
		Auth:       services.NewAuthService(s.config.Auth),
		Register:   services.NewRegisterService(s.config.Auth.BCryptCost, services.NewAvatarPicker(s.config.App.AvatarDir)),
		Tasks:      tasks,
		Checklists: checklists,
		Comments:   comments,
		Teams:      teams,
		Board:      services.NewBoardService(tasks, teams, services.NewNotificationService()),
	}
}

func (s *Server) registerHealthChecks() {
	s.monitor.RegisterHealthCheck("database", true, s.pool.HealthContext)
	s.monitor.RegisterStats("database", s.pool.Stats)

	if s.redis != nil {
		s.monitor.RegisterHealthCheck("redis", false, func(ctx context.Context) error {
			return s.redis.Ping(ctx).Err()
		})
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) DB() *gorm.DB {
	return s.pool.DB
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully. With
// redis enabled the job worker and the session cleanup scheduler run
// alongside the server and stop with it.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.GetServerAddr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if s.redis != nil {
		w, scheduler := s.backgroundJobs()
		g.Go(func() error { return w.Run(ctx) })
		g.Go(func() error { return scheduler.Run(ctx) })
	}

	return g.Wait()
}

func (s *Server) backgroundJobs() (*worker.Worker, *worker.Scheduler) {
	log := s.logger.Named("worker")

	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient:  s.redis,
		Concurrency:  s.config.Worker.Concurrency,
		PollInterval: s.config.Worker.PollInterval,
		Queues:       s.config.Worker.Queues,
		Logger:       log,
	})
	w.RegisterHandler(worker.JobTypeSessionCleanup, worker.SessionCleanupHandler(
		worker.SessionCleanerFunc(func(ctx context.Context) (int64, error) {
			return s.services.Auth.CleanupSessions(s.pool.DB.WithContext(ctx))
		}),
		log,
	))

	scheduler := worker.NewScheduler(worker.NewJobQueue(s.redis), worker.DefaultQueue,
		worker.JobTypeSessionCleanup, s.config.Worker.CleanupInterval, log)

	return w, scheduler
}

// Close releases the cache, redis and database connections.
func (s *Server) Close() error {
	var errs []error
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}
	if err := s.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
