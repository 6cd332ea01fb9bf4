package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/config"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/modulbox/leadform-backend/internal/handler"
	"github.com/modulbox/leadform-backend/internal/middleware"
	"github.com/modulbox/leadform-backend/internal/repository"
	"github.com/modulbox/leadform-backend/internal/routes"
	"github.com/modulbox/leadform-backend/internal/service"
	"github.com/modulbox/leadform-backend/pkg/imaging"
	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
	pkgredis "github.com/modulbox/leadform-backend/pkg/redis"
	pkgstorage "github.com/modulbox/leadform-backend/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const notifyTimeout = 15 * time.Second

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	pkglogger.Init()
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	// Drafts and leads cannot live anywhere else, so unlike Redis the DB is required
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")
	if err := db.AutoMigrate(&domain.Draft{}, &domain.DraftSlot{}, &domain.Lead{}, &domain.LeadImage{}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Info("Warning: Failed to connect to Redis: %v (continuing without rate limiting)", err)
		redisClient = nil
	} else {
		pkglogger.Info("Connected to Redis")
	}

	// Media host: S3-compatible storage with local disk as fallback
	var primary pkgstorage.Store
	if cfg.Storage.Enabled && cfg.Storage.Bucket != "" {
		s3Client, s3Err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if s3Err != nil {
			pkglogger.Info("Warning: S3 storage init failed: %v (storing images locally)", s3Err)
		} else {
			primary = s3Client
		}
	}

	localStore, err := pkgstorage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.LocalBaseURL)
	if err != nil {
		log.Fatalf("Failed to init local storage: %v", err)
	}
	stagingStore, err := pkgstorage.NewLocalStorage(cfg.Storage.StagingPath, "")
	if err != nil {
		log.Fatalf("Failed to init staging storage: %v", err)
	}
	mediaStore := pkgstorage.NewFallbackStore(primary, localStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	compressor := budget.NewCompressor(imaging.NewTranscoder())
	draftQueue := service.NewDraftQueue()
	draftSvc := service.NewDraftService(repository.NewDraftRepository(db), stagingStore, compressor, draftQueue, cfg.Intake.DraftTTL)
	draftSvc.StartSweeper(ctx, cfg.Intake.SweepInterval)

	asyncNotifier := buildNotifier(cfg.Notify)
	var notifier service.Notifier
	if asyncNotifier != nil {
		notifier = asyncNotifier
	}

	validator := service.NewFormValidator()
	leadSvc := service.NewLeadService(repository.NewLeadRepository(db), draftSvc, mediaStore, validator, compressor, notifier)

	draftHandler := handler.NewDraftHandler(draftSvc, leadSvc)
	leadHandler := handler.NewLeadHandler(leadSvc, validator)
	adminHandler := handler.NewAdminHandler(leadSvc)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     splitAndTrim(cfg.CORS.AllowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-API-Key", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:           86400,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.InputSanitizer())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "leadform-backend",
			"time":    time.Now().Unix(),
		})
	})

	// Images stored on the local fallback are served from here
	router.Static("/files", cfg.Storage.LocalPath)

	routes.Setup(router, draftHandler, leadHandler, adminHandler, redisClient, cfg)

	go reportGauges(ctx, db, draftQueue)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	pkglogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Error("Server forced to shutdown: %v", err)
	}
	if asyncNotifier != nil {
		asyncNotifier.Wait()
	}
	closeClients(db, redisClient)
	pkglogger.Info("Server exited")
}

// buildNotifier wires the configured lead notification channels. It returns
// nil when none is configured.
func buildNotifier(cfg config.NotifyConfig) *service.AsyncNotifier {
	var channels service.MultiNotifier
	if cfg.WebhookURL != "" {
		channels = append(channels, service.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.SMTPHost != "" && len(cfg.Recipients) > 0 {
		channels = append(channels, service.NewEmailNotifier(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From, cfg.Recipients))
	}
	if len(channels) == 0 {
		pkglogger.Info("Lead notifications disabled")
		return nil
	}
	return service.NewAsyncNotifier(channels, notifyTimeout)
}

func reportGauges(ctx context.Context, db *gorm.DB, queue *service.DraftQueue) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			middleware.SetDraftQueuesActive(float64(queue.Active()))
			if sqlDB, err := db.DB(); err == nil {
				middleware.SetDBConnectionsActive(float64(sqlDB.Stats().InUse))
			}
		}
	}
}

func closeClients(db *gorm.DB, redisClient *redis.Client) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// splitAndTrim splits a string by delimiter and trims spaces
func splitAndTrim(s string, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// initDB opens the MySQL connection pool
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+00:00'"

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
