package app

import (
	"context"
	"digcomp_backend/internal/config"
	"digcomp_backend/internal/controller"
	"digcomp_backend/internal/repository"
	"digcomp_backend/internal/seed"
	"digcomp_backend/internal/service"
	"digcomp_backend/pkg/configwatcher"
	"digcomp_backend/pkg/database"
	"digcomp_backend/pkg/logger"
	"digcomp_backend/pkg/monitoring"
	"digcomp_backend/pkg/security"
	"digcomp_backend/pkg/tracing"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lastUserTTL   = 30 * 24 * time.Hour
	sweepInterval = time.Minute
)

type App struct {
	Config     *config.Config
	ConfigPath string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client

	services        *services
	limiter         *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	stop            context.CancelFunc
}

type repositories struct {
	user     *repository.UserRepository
	attempt  *repository.AttemptRepository
	question *repository.QuestionRepository
	resource *repository.ResourceRepository
}

type services struct {
	storage  *service.StorageService
	mail     *service.MailService
	user     *service.UserService
	question *service.QuestionService
	resource *service.ResourceService
	quiz     *service.QuizService
	report   *service.ReportService
}

type controllers struct {
	health   *controller.HealthController
	user     *controller.UserController
	question *controller.QuestionController
	resource *controller.ResourceController
	quiz     *controller.QuizController
	report   *controller.ReportController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		attempt:  repository.NewAttemptRepository(db),
		question: repository.NewQuestionRepository(db),
		resource: repository.NewResourceRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.mail = service.NewMailService(cfg.Mail)

	var lastUser service.LastUserStore
	if rdb != nil {
		lastUser = &service.RedisLastUserStore{Redis: rdb, TTL: lastUserTTL}
	}
	s.user = service.NewUserService(repos.user, lastUser)

	s.question = service.NewQuestionService(repos.question, rdb, cfg.Quiz.BankCacheTTL)
	s.resource = service.NewResourceService(repos.resource)
	s.quiz = service.NewQuizService(repos.attempt, repos.user, s.question, cfg.Quiz)

	var archive service.Archiver
	if cfg.Storage.ArchiveReports {
		archive = s.storage
	}
	s.report = service.NewReportService(repos.attempt, repos.user, s.question, s.resource,
		cfg.Quiz.LookupConcurrency, s.mail, archive)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		health:   controller.NewHealthController(db, rdb),
		user:     controller.NewUserController(s.user),
		question: controller.NewQuestionController(s.question),
		resource: controller.NewResourceController(s.resource),
		quiz:     controller.NewQuizController(s.quiz),
		report:   controller.NewReportController(s.report),
	}
}

func rateWindow(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, rateWindow(cfg))
	router.Use(a.limiter.Middleware())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerReloaders() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.services.quiz.SetTiming(cfg.Quiz)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.limiter.Update(cfg.RateLimit.MaxRequests, rateWindow(cfg))
	})
}

func (a *App) reload(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	go a.services.quiz.RunSweeper(ctx, sweepInterval)

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := a.limiter.Sweep(now); n > 0 {
					logger.Log.Debug("Rate limiter visitors swept", zap.Int("count", n))
				}
			}
		}
	}()

	if a.ConfigPath != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.ConfigPath, a.reload); err != nil {
				logger.Log.Warn("Config watcher stopped", zap.Error(err))
			}
		}()
	}
}

// NewApp wires the application. configDir is the directory holding
// config.yaml; it is watched for live changes.
func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb
	if configDir != "" {
		app.ConfigPath = filepath.Join(configDir, "config.yaml")
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)
	app.registerReloaders()

	ctx, cancel := context.WithCancel(context.Background())
	app.stop = cancel
	app.startBackgroundTasks(ctx)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	a.stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	// pending autosaves and abandon deletes
	a.services.quiz.Wait()

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
	_ = logger.Log.Sync()
}

// Seed imports a YAML question bank into the database and drops the cached
// bank so the next quiz sees it.
func (a *App) Seed(ctx context.Context, path string) error {
	st, err := seed.ImportFile(ctx, path, repository.NewQuestionRepository(a.DB), repository.NewResourceRepository(a.DB))
	if err != nil {
		return err
	}
	logger.Log.Info("Seed imported",
		zap.String("file", path),
		zap.Int("questions", st.Questions),
		zap.Int("resources", st.Resources),
		zap.Int("links", st.Links))

	if a.services != nil {
		if err := a.services.question.InvalidateCache(ctx); err != nil {
			logger.Log.Warn("Question bank cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}
